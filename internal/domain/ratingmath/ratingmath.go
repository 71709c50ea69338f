// Package ratingmath provides the Gaussian primitives behind the skill
// update rule: pdf, cdf via an erf approximation, and the v/w correction
// functions of the pairwise-comparison model.
package ratingmath

import "math"

// Abramowitz–Stegun 7.1.26 coefficients. Maximum absolute error 1.5e-7.
const (
	erfA1 = 0.254829592
	erfA2 = -0.284496736
	erfA3 = 1.421413741
	erfA4 = -1.453152027
	erfA5 = 1.061405429
	erfP  = 0.3275911
)

// cdfFloor keeps v finite when the cdf underflows for very negative t.
const cdfFloor = 1e-12

// Erf approximates the Gaussian error function with a 5-term rational
// polynomial, stable for |x| well beyond 10.
func Erf(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1.0
		x = -x
	}
	t := 1.0 / (1.0 + erfP*x)
	y := 1.0 - (((((erfA5*t+erfA4)*t)+erfA3)*t+erfA2)*t+erfA1)*t*math.Exp(-x*x)
	return sign * y
}

// NormalPdf is the standard normal density at x.
func NormalPdf(x float64) float64 {
	return math.Exp(-x*x/2) / math.Sqrt(2*math.Pi)
}

// NormalCdf is the standard normal cumulative distribution at x.
func NormalCdf(x float64) float64 {
	return 0.5 * (1 + Erf(x/math.Sqrt2))
}

// VW returns the mean and variance correction factors of the win/lose
// update at performance margin t: v = pdf(t)/cdf(t) with the cdf floored
// to avoid division blow-up, and w = v*(v+t).
func VW(t float64) (v, w float64) {
	v = NormalPdf(t) / math.Max(NormalCdf(t), cdfFloor)
	w = v * (v + t)
	return v, w
}

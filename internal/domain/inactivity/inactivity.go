// Package inactivity grows a player's rating uncertainty after idle
// periods, modeling skill-estimate staleness.
package inactivity

import (
	"math"
	"time"

	"github.com/matchday/engine/internal/domain/model"
)

// Default inflation constants.
const (
	DefaultLambda     = 0.35
	DefaultPeriodDays = 7
)

const hoursPerDay = 24

// Config declares exactly what the model reads.
type Config struct {
	// Enabled toggles inflation entirely; a disabled model is a no-op.
	Enabled bool
	// Lambda is the exponential convergence rate per inactive period.
	Lambda float64
	// PeriodDays is the length of one inactivity period.
	PeriodDays int
	// Sigma0 is the prior uncertainty inflation converges toward.
	Sigma0 float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:    true,
		Lambda:     DefaultLambda,
		PeriodDays: DefaultPeriodDays,
		Sigma0:     model.Sigma0,
	}
}

// Model is a pure function of (player state, evaluation time).
type Model struct {
	cfg Config
}

// New creates a Model from the given configuration, filling in defaults
// for zero-valued fields.
func New(cfg Config) *Model {
	if cfg.Lambda <= 0 {
		cfg.Lambda = DefaultLambda
	}
	if cfg.PeriodDays <= 0 {
		cfg.PeriodDays = DefaultPeriodDays
	}
	if cfg.Sigma0 <= 0 {
		cfg.Sigma0 = model.Sigma0
	}
	return &Model{cfg: cfg}
}

// Weeks returns the number of whole inactive periods between the player's
// last activity and now. Zero when the gap is non-positive.
func (m *Model) Weeks(p model.PlayerRating, now time.Time) int {
	days := int(math.Floor(now.Sub(p.LastActivity()).Hours() / hoursPerDay))
	if days <= 0 {
		return 0
	}
	return days / m.cfg.PeriodDays
}

// InflatedSigma returns the player's sigma after idle inflation at the
// given evaluation time. The sigma converges exponentially toward Sigma0
// and never decreases from this step, nor exceeds the prior.
func (m *Model) InflatedSigma(p model.PlayerRating, now time.Time) float64 {
	if !m.cfg.Enabled || p.GamesPlayed < 1 {
		return p.Sigma
	}
	weeks := m.Weeks(p, now)
	if weeks <= 0 {
		return p.Sigma
	}

	s2 := p.Sigma * p.Sigma
	s02 := m.cfg.Sigma0 * m.cfg.Sigma0
	s2New := s2 + (s02-s2)*(1-math.Exp(-m.cfg.Lambda*float64(weeks)))

	// max keeps the step monotone; min caps at the prior.
	return math.Min(m.cfg.Sigma0, math.Sqrt(math.Max(s2New, s2)))
}

// Lambda exposes the decay rate for event metadata.
func (m *Model) Lambda() float64 { return m.cfg.Lambda }

// Enabled reports whether inflation is active.
func (m *Model) Enabled() bool { return m.cfg.Enabled }

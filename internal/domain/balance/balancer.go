// Package balance partitions a player pool into equal teams by seeding a
// snake draft and refining it with randomized swap search. Player weight is
// the current mu; pairwise synergy and counter history can adjust the
// objective but never justify a raw-skill imbalance beyond the hard cap.
package balance

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/pkg/metrics"
)

// Pool and team sizes are fixed by the format: 8-a-side, two or three teams.
const (
	TeamSize      = 8
	TwoTeamPool   = 2 * TeamSize
	ThreeTeamPool = 3 * TeamSize
)

// Defaults for the balancing knobs.
const (
	DefaultSynergyWeightSame   = 0.5
	DefaultSynergyWeightVs     = 0.3
	DefaultMaxBaseDiff         = 2.0
	DefaultTwoTeamIterations   = 500
	DefaultThreeTeamIterations = 400
	DefaultTargetDiff          = 1.0
)

const logisticScale = model.Sigma0

// Config declares the knobs the balancer reads.
type Config struct {
	// SynergyEnabled lets a supplied pair matrix adjust the objective.
	SynergyEnabled bool
	// SynergyWeightSame scales the bounded within-team synergy term.
	SynergyWeightSame float64
	// SynergyWeightVs scales the bounded cross-team counter term.
	SynergyWeightVs float64
	// MaxBaseDiff is the hard cap on raw weight imbalance; swaps pushing
	// past it are rejected no matter what synergy says.
	MaxBaseDiff float64
	// TwoTeamIterations bounds the two-team local search.
	TwoTeamIterations int
	// ThreeTeamIterations bounds the three-team local search.
	ThreeTeamIterations int
	// TargetDiff stops the search early once the objective is this small.
	TargetDiff float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SynergyEnabled:      true,
		SynergyWeightSame:   DefaultSynergyWeightSame,
		SynergyWeightVs:     DefaultSynergyWeightVs,
		MaxBaseDiff:         DefaultMaxBaseDiff,
		TwoTeamIterations:   DefaultTwoTeamIterations,
		ThreeTeamIterations: DefaultThreeTeamIterations,
		TargetDiff:          DefaultTargetDiff,
	}
}

// Balancer runs the partition search.
type Balancer struct {
	cfg Config
	rng *rand.Rand
}

// Option applies a configuration option to the Balancer.
type Option func(*Balancer)

// WithRand injects a seeded random source for deterministic searches.
func WithRand(rng *rand.Rand) Option {
	return func(b *Balancer) {
		if rng != nil {
			b.rng = rng
		}
	}
}

// New creates a Balancer, filling zero-valued config fields with defaults.
func New(cfg Config, opts ...Option) *Balancer {
	if cfg.SynergyWeightSame <= 0 {
		cfg.SynergyWeightSame = DefaultSynergyWeightSame
	}
	if cfg.SynergyWeightVs <= 0 {
		cfg.SynergyWeightVs = DefaultSynergyWeightVs
	}
	if cfg.MaxBaseDiff <= 0 {
		cfg.MaxBaseDiff = DefaultMaxBaseDiff
	}
	if cfg.TwoTeamIterations <= 0 {
		cfg.TwoTeamIterations = DefaultTwoTeamIterations
	}
	if cfg.ThreeTeamIterations <= 0 {
		cfg.ThreeTeamIterations = DefaultThreeTeamIterations
	}
	if cfg.TargetDiff <= 0 {
		cfg.TargetDiff = DefaultTargetDiff
	}
	b := &Balancer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // balance search needs no crypto randomness
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// TeamBalance is the two-team partition with its quality metrics.
type TeamBalance struct {
	TeamA []model.PlayerRating
	TeamB []model.PlayerRating

	TotalA   float64
	TotalB   float64
	AverageA float64
	AverageB float64

	// Diff is the raw weight difference; AdjustedDiff folds in synergy and
	// equals Diff when no matrix was used.
	Diff         float64
	AdjustedDiff float64

	// WinProbabilityA is team A's logistic win estimate in percent.
	WinProbabilityA float64

	Iterations int
}

// ThreeTeamBalance is the three-team partition with its quality metrics.
type ThreeTeamBalance struct {
	TeamA []model.PlayerRating
	TeamB []model.PlayerRating
	TeamC []model.PlayerRating

	Totals   [3]float64
	Averages [3]float64

	// MaxDiff is the largest pairwise raw-weight difference; MeanAbsDev is
	// the mean absolute deviation from the average team weight.
	MaxDiff    float64
	MeanAbsDev float64

	Iterations int
}

// TwoTeams partitions exactly 16 players into two teams of 8. A non-empty
// matrix refines the objective when synergy is enabled; nil disables it.
func (b *Balancer) TwoTeams(players []model.PlayerRating, matrix model.PairMatrix) (*TeamBalance, error) {
	if len(players) != TwoTeamPool {
		return nil, fmt.Errorf("%w: need %d players, got %d", ErrInvalidPoolSize, TwoTeamPool, len(players))
	}
	useSynergy := b.cfg.SynergyEnabled && len(matrix) > 0

	teamA, teamB := snakeSeedTwo(players)

	objective := func() float64 {
		if useSynergy {
			return math.Abs(b.effectiveStrength(teamA, teamB, matrix) - b.effectiveStrength(teamB, teamA, matrix))
		}
		return math.Abs(totalWeight(teamA) - totalWeight(teamB))
	}

	obj := objective()
	iterations := 0
	for ; iterations < b.cfg.TwoTeamIterations && obj > b.cfg.TargetDiff; iterations++ {
		i := b.rng.Intn(len(teamA))
		j := b.rng.Intn(len(teamB))
		teamA[i], teamB[j] = teamB[j], teamA[i]

		// Synergy never excuses a raw-skill imbalance past the cap.
		if math.Abs(totalWeight(teamA)-totalWeight(teamB)) > b.cfg.MaxBaseDiff {
			teamA[i], teamB[j] = teamB[j], teamA[i]
			continue
		}
		if next := objective(); next < obj {
			obj = next
		} else {
			teamA[i], teamB[j] = teamB[j], teamA[i]
		}
	}

	totalA, totalB := totalWeight(teamA), totalWeight(teamB)
	res := &TeamBalance{
		TeamA:           teamA,
		TeamB:           teamB,
		TotalA:          totalA,
		TotalB:          totalB,
		AverageA:        totalA / TeamSize,
		AverageB:        totalB / TeamSize,
		Diff:            math.Abs(totalA - totalB),
		AdjustedDiff:    obj,
		WinProbabilityA: 100 / (1 + math.Pow(10, (totalB-totalA)/(math.Sqrt2*logisticScale))),
		Iterations:      iterations,
	}
	metrics.ObserveBalanceIterations(iterations)
	metrics.ObserveBalanceObjective(obj)
	return res, nil
}

// ThreeTeams partitions exactly 24 players into three teams of 8.
func (b *Balancer) ThreeTeams(players []model.PlayerRating, matrix model.PairMatrix) (*ThreeTeamBalance, error) {
	if len(players) != ThreeTeamPool {
		return nil, fmt.Errorf("%w: need %d players, got %d", ErrInvalidPoolSize, ThreeTeamPool, len(players))
	}
	useSynergy := b.cfg.SynergyEnabled && len(matrix) > 0

	teams := snakeSeedThree(players)

	objective := func() float64 {
		if useSynergy {
			var eff [3]float64
			for t := range teams {
				others := append(append([]model.PlayerRating(nil), teams[(t+1)%3]...), teams[(t+2)%3]...)
				eff[t] = b.effectiveStrength(teams[t], others, matrix)
			}
			return maxOf(eff) - minOf(eff)
		}
		var totals [3]float64
		for t := range teams {
			totals[t] = totalWeight(teams[t])
		}
		return maxOf(totals) - minOf(totals)
	}

	rawSpread := func() float64 {
		var totals [3]float64
		for t := range teams {
			totals[t] = totalWeight(teams[t])
		}
		return maxOf(totals) - minOf(totals)
	}

	obj := objective()
	iterations := 0
	for ; iterations < b.cfg.ThreeTeamIterations && obj > b.cfg.TargetDiff; iterations++ {
		t1 := b.rng.Intn(3)
		t2 := b.rng.Intn(3)
		if t1 == t2 {
			t2 = (t2 + 1) % 3
		}
		i := b.rng.Intn(len(teams[t1]))
		j := b.rng.Intn(len(teams[t2]))
		teams[t1][i], teams[t2][j] = teams[t2][j], teams[t1][i]

		if rawSpread() > b.cfg.MaxBaseDiff {
			teams[t1][i], teams[t2][j] = teams[t2][j], teams[t1][i]
			continue
		}
		if next := objective(); next < obj {
			obj = next
		} else {
			teams[t1][i], teams[t2][j] = teams[t2][j], teams[t1][i]
		}
	}

	var totals, averages [3]float64
	for t := range teams {
		totals[t] = totalWeight(teams[t])
		averages[t] = totals[t] / TeamSize
	}
	mean := (totals[0] + totals[1] + totals[2]) / 3
	res := &ThreeTeamBalance{
		TeamA:      teams[0],
		TeamB:      teams[1],
		TeamC:      teams[2],
		Totals:     totals,
		Averages:   averages,
		MaxDiff:    maxOf(totals) - minOf(totals),
		MeanAbsDev: (math.Abs(totals[0]-mean) + math.Abs(totals[1]-mean) + math.Abs(totals[2]-mean)) / 3,
		Iterations: iterations,
	}
	metrics.ObserveBalanceIterations(iterations)
	metrics.ObserveBalanceObjective(obj)
	return res, nil
}

// effectiveStrength is the team's raw weight plus bounded synergy within
// the team and bounded counter advantage against the opposing players.
// Derived sigma is one minus confidence, so each pair contributes its mu
// scaled by how much history backs it.
func (b *Balancer) effectiveStrength(team, opponents []model.PlayerRating, matrix model.PairMatrix) float64 {
	base := totalWeight(team)

	var within float64
	for i := 0; i < len(team); i++ {
		for j := i + 1; j < len(team); j++ {
			p := matrix.Get(team[i].ID, team[j].ID)
			within += p.SynergyMu * (1 - p.SynergySigma)
		}
	}

	var versus float64
	for _, own := range team {
		for _, opp := range opponents {
			p := matrix.Get(own.ID, opp.ID)
			versus += p.CounterMuFor(own.ID) * (1 - p.CounterSigma)
		}
	}

	return base + b.cfg.SynergyWeightSame*math.Tanh(within) + b.cfg.SynergyWeightVs*math.Tanh(versus)
}

// snakeSeedTwo walks the weight-sorted pool in an A-B-B-A pattern.
func snakeSeedTwo(players []model.PlayerRating) (teamA, teamB []model.PlayerRating) {
	sorted := sortByWeightDesc(players)
	teamA = make([]model.PlayerRating, 0, TeamSize)
	teamB = make([]model.PlayerRating, 0, TeamSize)
	for i, p := range sorted {
		if m := i % 4; m == 0 || m == 3 {
			teamA = append(teamA, p)
		} else {
			teamB = append(teamB, p)
		}
	}
	return teamA, teamB
}

// snakeSeedThree walks the sorted pool A-B-C on even cycles and C-B-A on
// odd ones.
func snakeSeedThree(players []model.PlayerRating) [3][]model.PlayerRating {
	sorted := sortByWeightDesc(players)
	var teams [3][]model.PlayerRating
	for i, p := range sorted {
		cycle := i / 3
		pos := i % 3
		if cycle%2 == 1 {
			pos = 2 - pos
		}
		teams[pos] = append(teams[pos], p)
	}
	return teams
}

func sortByWeightDesc(players []model.PlayerRating) []model.PlayerRating {
	sorted := append([]model.PlayerRating(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Mu > sorted[j].Mu })
	return sorted
}

func totalWeight(team []model.PlayerRating) float64 {
	var sum float64
	for _, p := range team {
		sum += p.Mu
	}
	return sum
}

func maxOf(xs [3]float64) float64 {
	return math.Max(xs[0], math.Max(xs[1], xs[2]))
}

func minOf(xs [3]float64) float64 {
	return math.Min(xs[0], math.Min(xs[1], xs[2]))
}

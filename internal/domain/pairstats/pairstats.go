// Package pairstats maintains per-pair together/versus history and the
// derived synergy and counter ratings used to refine team balancing.
package pairstats

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/pkg/metrics"
)

// Default pair-rating constants.
const (
	DefaultScale              = 1.0
	DefaultCap                = 0.8
	DefaultGamesForConfidence = 10
	DefaultHalfLifeWeeks      = 4
	DefaultDecayFactor        = 0.9
	DefaultMinGames           = 3
)

const (
	topListSize  = 3
	hoursPerWeek = 24 * 7
)

// Config declares the pair-rating constants the store reads.
type Config struct {
	// Enabled toggles the whole subsystem; a disabled store is a silent no-op.
	Enabled bool
	// Scale spreads the centered win probability onto the mu scale.
	Scale float64
	// Cap clamps derived mu to +-Cap before decay.
	Cap float64
	// GamesForConfidence is the game count at which confidence saturates.
	GamesForConfidence int
	// HalfLifeWeeks is the grace period before decay kicks in.
	HalfLifeWeeks float64
	// DecayFactor is the per-period decay base. The name is historical:
	// with the default 0.9 the decay is gentler than a literal half-life,
	// and downstream balance quality depends on keeping it that way.
	DecayFactor float64
	// MinGames filters noise out of the best/worst pair listings.
	MinGames int
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:            true,
		Scale:              DefaultScale,
		Cap:                DefaultCap,
		GamesForConfidence: DefaultGamesForConfidence,
		HalfLifeWeeks:      DefaultHalfLifeWeeks,
		DecayFactor:        DefaultDecayFactor,
		MinGames:           DefaultMinGames,
	}
}

// Repo is the storage surface the store needs.
type Repo interface {
	// GetPairs returns stored stats for the given keys; unknown keys are
	// simply absent from the result.
	GetPairs(ctx context.Context, keys []model.PairKey) ([]model.PairStats, error)
	// PairsForPlayer returns every stored pair involving the player.
	PairsForPlayer(ctx context.Context, playerID int64) ([]model.PairStats, error)
	// UpsertPairs writes the given pair rows.
	UpsertPairs(ctx context.Context, pairs []model.PairStats) error
}

// Store computes and persists pair statistics.
type Store struct {
	repo Repo
	cfg  Config
}

// New creates a Store, filling zero-valued config fields with defaults.
func New(repo Repo, cfg Config) *Store {
	if cfg.Scale <= 0 {
		cfg.Scale = DefaultScale
	}
	if cfg.Cap <= 0 {
		cfg.Cap = DefaultCap
	}
	if cfg.GamesForConfidence <= 0 {
		cfg.GamesForConfidence = DefaultGamesForConfidence
	}
	if cfg.HalfLifeWeeks <= 0 {
		cfg.HalfLifeWeeks = DefaultHalfLifeWeeks
	}
	if cfg.DecayFactor <= 0 {
		cfg.DecayFactor = DefaultDecayFactor
	}
	if cfg.MinGames <= 0 {
		cfg.MinGames = DefaultMinGames
	}
	return &Store{repo: repo, cfg: cfg}
}

// Enabled reports whether pair tracking is active.
func (s *Store) Enabled() bool { return s.cfg.Enabled }

// UpdateAfterMatch records a decisive outcome: winner pairs play and win
// together, loser pairs play together, and every cross pair plays against
// each other with the win credited to the smaller-id member when it sits
// on the winning side. Silently does nothing when disabled.
func (s *Store) UpdateAfterMatch(ctx context.Context, winnerIDs, loserIDs []int64, playedAt time.Time) error {
	if !s.cfg.Enabled {
		return nil
	}

	touched, err := s.loadTouched(ctx, winnerIDs, loserIDs)
	if err != nil {
		return err
	}

	for _, key := range pairsWithin(winnerIDs) {
		p := touched[key]
		p.TogetherGames++
		p.TogetherWins++
		touched[key] = p
	}
	for _, key := range pairsWithin(loserIDs) {
		p := touched[key]
		p.TogetherGames++
		touched[key] = p
	}
	for _, w := range winnerIDs {
		for _, l := range loserIDs {
			key := model.NewPairKey(w, l)
			p := touched[key]
			p.VsGames++
			if key.A == w {
				p.VsWins++
			}
			touched[key] = p
		}
	}

	return s.commit(ctx, touched, playedAt)
}

// UpdateAfterDraw records a draw as its own outcome kind: teammates played
// together without a win, opponents played against each other without a
// credit either way. Silently does nothing when disabled.
func (s *Store) UpdateAfterDraw(ctx context.Context, team1IDs, team2IDs []int64, playedAt time.Time) error {
	if !s.cfg.Enabled {
		return nil
	}

	touched, err := s.loadTouched(ctx, team1IDs, team2IDs)
	if err != nil {
		return err
	}

	for _, key := range pairsWithin(team1IDs) {
		p := touched[key]
		p.TogetherGames++
		touched[key] = p
	}
	for _, key := range pairsWithin(team2IDs) {
		p := touched[key]
		p.TogetherGames++
		touched[key] = p
	}
	for _, a := range team1IDs {
		for _, b := range team2IDs {
			key := model.NewPairKey(a, b)
			p := touched[key]
			p.VsGames++
			touched[key] = p
		}
	}

	return s.commit(ctx, touched, playedAt)
}

// MatrixFor builds the full matrix for every unordered pair in the id set.
// Pairs with no stored history get the no-information default.
func (s *Store) MatrixFor(ctx context.Context, playerIDs []int64) (model.PairMatrix, error) {
	keys := pairsWithin(playerIDs)
	matrix := make(model.PairMatrix, len(keys))
	for _, key := range keys {
		matrix[key] = model.NewPairStats(key)
	}
	if !s.cfg.Enabled || len(keys) == 0 {
		return matrix, nil
	}

	stored, err := s.repo.GetPairs(ctx, keys)
	if err != nil {
		return nil, err
	}
	for _, p := range stored {
		matrix[p.Key] = p
	}
	return matrix, nil
}

// PartnerStat is one row of a player's best-partner / worst-counter listing.
type PartnerStat struct {
	PlayerID int64
	Games    int
	Mu       float64
}

// PlayerSummary is the per-player pair digest shown by the bot.
type PlayerSummary struct {
	BestPartners  []PartnerStat
	WorstCounters []PartnerStat
}

// PlayerSummaryFor returns the player's top-3 synergy partners and the
// top-3 opponents they historically struggle against, filtered to pairs
// with at least MinGames on the relevant counter.
func (s *Store) PlayerSummaryFor(ctx context.Context, playerID int64) (PlayerSummary, error) {
	if !s.cfg.Enabled {
		return PlayerSummary{}, nil
	}

	pairs, err := s.repo.PairsForPlayer(ctx, playerID)
	if err != nil {
		return PlayerSummary{}, err
	}

	var partners, counters []PartnerStat
	for _, p := range pairs {
		other := p.Key.Other(playerID)
		if other == 0 {
			continue
		}
		if p.TogetherGames >= s.cfg.MinGames {
			partners = append(partners, PartnerStat{PlayerID: other, Games: p.TogetherGames, Mu: p.SynergyMu})
		}
		if p.VsGames >= s.cfg.MinGames {
			counters = append(counters, PartnerStat{PlayerID: other, Games: p.VsGames, Mu: p.CounterMuFor(playerID)})
		}
	}

	sort.Slice(partners, func(i, j int) bool { return partners[i].Mu > partners[j].Mu })
	sort.Slice(counters, func(i, j int) bool { return counters[i].Mu < counters[j].Mu })

	return PlayerSummary{
		BestPartners:  topN(partners, topListSize),
		WorstCounters: topN(counters, topListSize),
	}, nil
}

// loadTouched fetches existing stats for every pair this match touches,
// creating defaults for pairs seen for the first time.
func (s *Store) loadTouched(ctx context.Context, sideA, sideB []int64) (map[model.PairKey]model.PairStats, error) {
	all := append(append([]int64(nil), sideA...), sideB...)
	keys := pairsWithin(all)
	touched := make(map[model.PairKey]model.PairStats, len(keys))

	// Every pair in the clique is touched: same-side pairs as teammates,
	// cross pairs as opponents.
	stored, err := s.repo.GetPairs(ctx, keys)
	if err != nil {
		return nil, err
	}
	byKey := make(map[model.PairKey]model.PairStats, len(stored))
	for _, p := range stored {
		byKey[p.Key] = p
	}
	for _, key := range keys {
		if p, ok := byKey[key]; ok {
			touched[key] = p
		} else {
			touched[key] = model.NewPairStats(key)
		}
	}
	return touched, nil
}

// commit recomputes derived ratings for pairs whose counters moved and
// upserts them. Decay is evaluated against the pair's previous game before
// the timestamp advances, so a pair resuming after a long gap carries a
// dampened signal.
func (s *Store) commit(ctx context.Context, touched map[model.PairKey]model.PairStats, playedAt time.Time) error {
	updates := make([]model.PairStats, 0, len(touched))
	for _, p := range touched {
		if p.TogetherGames == 0 && p.VsGames == 0 {
			continue
		}
		p.SynergyMu, p.SynergySigma = s.pairRating(p.TogetherWins, p.TogetherGames, p.LastGameAt, playedAt)
		p.CounterMu, p.CounterSigma = s.pairRating(p.VsWins, p.VsGames, p.LastGameAt, playedAt)
		at := playedAt
		p.LastGameAt = &at
		updates = append(updates, p)
	}
	if len(updates) == 0 {
		return nil
	}
	if err := s.repo.UpsertPairs(ctx, updates); err != nil {
		return err
	}
	metrics.RecordPairUpdates(len(updates))
	return nil
}

// pairRating derives (mu, sigma) from raw counters: Beta(1,1)-smoothed win
// probability centered on zero, scaled, capped, time-decayed; sigma is one
// minus a games-based confidence.
func (s *Store) pairRating(wins, games int, lastGameAt *time.Time, now time.Time) (mu, sigma float64) {
	if games == 0 {
		return 0, 1
	}

	pWin := (float64(wins) + 1) / (float64(games) + 2)
	mu = (pWin - 0.5) * s.cfg.Scale
	mu = math.Max(-s.cfg.Cap, math.Min(s.cfg.Cap, mu))
	mu *= s.decayFactor(lastGameAt, now)

	confidence := math.Min(1, float64(games)/float64(s.cfg.GamesForConfidence))
	sigma = math.Max(0, 1-confidence)
	return mu, sigma
}

// decayFactor is 1 inside the grace period, then DecayFactor raised to
// weeks/HalfLifeWeeks beyond it.
func (s *Store) decayFactor(lastGameAt *time.Time, now time.Time) float64 {
	if lastGameAt == nil {
		return 1
	}
	weeks := now.Sub(*lastGameAt).Hours() / hoursPerWeek
	if weeks <= s.cfg.HalfLifeWeeks {
		return 1
	}
	return math.Pow(s.cfg.DecayFactor, weeks/s.cfg.HalfLifeWeeks)
}

// pairsWithin returns the canonical key of every unordered pair in ids.
func pairsWithin(ids []int64) []model.PairKey {
	var keys []model.PairKey
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			keys = append(keys, model.NewPairKey(ids[i], ids[j]))
		}
	}
	return keys
}

func topN(stats []PartnerStat, n int) []PartnerStat {
	if len(stats) > n {
		return stats[:n]
	}
	return stats
}

// Package rating implements the Bayesian pairwise-comparison skill update
// applied after every match: decisive outcomes move mu along the v/w
// correction curve, draws exchange expectation-based bonuses, and both
// paths persist state plus audit events in one atomic batch.
package rating

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/ratingmath"
	"github.com/matchday/engine/pkg/logger"
	"github.com/matchday/engine/pkg/metrics"
)

// Model constants of the pairwise-comparison system.
const (
	beta       = 25.0 / 6.0   // performance variance
	tau        = 25.0 / 300.0 // dynamics noise added each game
	sigmaFloor = model.SigmaFloor
)

// Defaults for the configurable knobs.
const (
	DefaultMVPMuBonus          = 0.6
	DefaultMVPSigmaMultiplier  = 1.0
	DefaultDrawBaseBonus       = 0.1
	DefaultDrawUpsetBonus      = 0.2
	DefaultDrawUpsetPenalty    = 0.1
	DefaultDrawSignificantWinP = 0.65
	drawLogisticScale          = model.Sigma0
	maxMVPs                    = 2
	idleSigmaEpsilon           = inactivity.SigmaEpsilon
)

// Config declares the knobs the engine reads.
type Config struct {
	// MVPEnabled toggles the MVP bonus step.
	MVPEnabled bool
	// MVPMuBonus is the flat mu bonus per MVP.
	MVPMuBonus float64
	// MVPSigmaMultiplier scales an MVP's sigma after the update.
	MVPSigmaMultiplier float64
	// ApplyIdleInflation runs the inactivity pre-step before each update.
	ApplyIdleInflation bool
	// DrawBaseBonus is the flat mu bonus both sides earn for a draw.
	DrawBaseBonus float64
	// DrawUpsetBonus is the extra bonus the weaker side earns for holding
	// a much stronger side to a draw.
	DrawUpsetBonus float64
	// DrawUpsetPenalty is subtracted from the stronger side's base bonus.
	DrawUpsetPenalty float64
	// DrawSignificantWinP is the expected-win-probability threshold above
	// which the sides are treated as mismatched.
	DrawSignificantWinP float64
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MVPEnabled:          true,
		MVPMuBonus:          DefaultMVPMuBonus,
		MVPSigmaMultiplier:  DefaultMVPSigmaMultiplier,
		ApplyIdleInflation:  true,
		DrawBaseBonus:       DefaultDrawBaseBonus,
		DrawUpsetBonus:      DefaultDrawUpsetBonus,
		DrawUpsetPenalty:    DefaultDrawUpsetPenalty,
		DrawSignificantWinP: DefaultDrawSignificantWinP,
	}
}

// PlayerRepo is the storage surface the engine needs.
type PlayerRepo interface {
	// FindByIDs returns the rating state for the given ids; absent ids are
	// simply missing from the result.
	FindByIDs(ctx context.Context, ids []int64) ([]model.PlayerRating, error)
	// Apply commits a write batch atomically.
	Apply(ctx context.Context, batch model.WriteBatch) error
}

// PairForwarder receives match outcomes for synergy bookkeeping. Failures
// here never fail the rating update.
type PairForwarder interface {
	UpdateAfterMatch(ctx context.Context, winnerIDs, loserIDs []int64, playedAt time.Time) error
	UpdateAfterDraw(ctx context.Context, team1IDs, team2IDs []int64, playedAt time.Time) error
}

// Engine applies match outcomes to player rating state.
type Engine struct {
	players PlayerRepo
	pairs   PairForwarder
	idle    *inactivity.Model
	cfg     Config
	log     logger.Logger
	now     func() time.Time
}

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithLogger sets a custom logger for the engine.
func WithLogger(log logger.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Engine. The pair forwarder may be nil when synergy
// tracking is disabled.
func New(players PlayerRepo, pairs PairForwarder, idle *inactivity.Model, cfg Config, opts ...Option) *Engine {
	if cfg.MVPMuBonus == 0 {
		cfg.MVPMuBonus = DefaultMVPMuBonus
	}
	if cfg.MVPSigmaMultiplier <= 0 {
		cfg.MVPSigmaMultiplier = DefaultMVPSigmaMultiplier
	}
	if cfg.DrawBaseBonus == 0 {
		cfg.DrawBaseBonus = DefaultDrawBaseBonus
	}
	if cfg.DrawUpsetBonus == 0 {
		cfg.DrawUpsetBonus = DefaultDrawUpsetBonus
	}
	if cfg.DrawUpsetPenalty == 0 {
		cfg.DrawUpsetPenalty = DefaultDrawUpsetPenalty
	}
	if cfg.DrawSignificantWinP <= 0 || cfg.DrawSignificantWinP >= 1 {
		cfg.DrawSignificantWinP = DefaultDrawSignificantWinP
	}
	e := &Engine{
		players: players,
		pairs:   pairs,
		idle:    idle,
		cfg:     cfg,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MatchOptions tune a single update call.
type MatchOptions struct {
	// PlayedAt is the match time; zero means now.
	PlayedAt time.Time
	// Weight scales the update; zero means a full match (1.0). Mini-games
	// of a round-robin night use fractional weights.
	Weight float64
	// MVPIDs designates up to one standout player per team.
	MVPIDs []int64
	// SkipIdleInflation suppresses the inactivity pre-step for this call.
	SkipIdleInflation bool
}

func (o MatchOptions) playedAt(now func() time.Time) time.Time {
	if o.PlayedAt.IsZero() {
		return now()
	}
	return o.PlayedAt
}

func (o MatchOptions) weight() float64 {
	if o.Weight <= 0 {
		return 1.0
	}
	return o.Weight
}

// PlayerChange is one participant's before/after state.
type PlayerChange struct {
	Before model.PlayerRating
	After  model.PlayerRating
	Winner bool
	MVP    bool
}

// Result reports everything one update committed.
type Result struct {
	Changes []PlayerChange
	Events  []model.RatingEvent
}

// UpdateOutcome applies a decisive result to both rosters atomically:
// validation, optional idle inflation, the Bayesian mu/sigma update, MVP
// bonuses, one write batch, then best-effort pair-stats forwarding.
func (e *Engine) UpdateOutcome(ctx context.Context, winnerIDs, loserIDs []int64, opts MatchOptions) (*Result, error) {
	if err := validateRosters(winnerIDs, loserIDs); err != nil {
		return nil, err
	}
	if err := validateMVPs(opts.MVPIDs, winnerIDs, loserIDs); err != nil {
		return nil, err
	}

	playedAt := opts.playedAt(e.now)
	weight := opts.weight()

	states, err := e.loadParticipants(ctx, winnerIDs, loserIDs)
	if err != nil {
		return nil, err
	}

	var batch model.WriteBatch
	if e.shouldInflate(opts) {
		batch.Events = append(batch.Events, e.inflateIdle(states, playedAt)...)
	}

	var muW, muL, s2W, s2L float64
	for _, id := range winnerIDs {
		p := states[id]
		muW += p.Mu
		s2W += p.Sigma * p.Sigma
	}
	for _, id := range loserIDs {
		p := states[id]
		muL += p.Mu
		s2L += p.Sigma * p.Sigma
	}

	c := math.Sqrt(s2W + s2L + 2*beta*beta)
	if !isFinitePositive(c) {
		return nil, fmt.Errorf("%w: c=%v", ErrDegenerateMatch, c)
	}
	t := (muW - muL) / c
	v, w := ratingmath.VW(t)
	v *= weight
	w *= weight

	mvps := make(map[int64]bool, len(opts.MVPIDs))
	if e.cfg.MVPEnabled {
		for _, id := range opts.MVPIDs {
			mvps[id] = true
		}
	}

	res := &Result{}
	update := func(id int64, winner bool) {
		before := states[id]
		after := before

		sign := 1.0
		if !winner {
			sign = -1.0
		}
		s2 := before.Sigma * before.Sigma
		after.Mu = before.Mu + sign*(s2/c)*v
		s2New := s2*(1-(s2/(c*c))*w) + tau*tau
		after.Sigma = math.Max(sigmaFloor, math.Sqrt(math.Max(s2New, 0)))

		isMVP := mvps[id]
		if isMVP {
			after.Mu += e.cfg.MVPMuBonus
			after.Sigma = math.Max(sigmaFloor, after.Sigma*e.cfg.MVPSigmaMultiplier)
			after.MVPCount++
		}

		at := playedAt
		after.GamesPlayed++
		after.LastPlayedAt = &at
		if after.FirstPlayedAt == nil {
			after.FirstPlayedAt = &at
		}
		states[id] = after

		batch.Players = append(batch.Players, after)
		batch.Events = append(batch.Events, model.RatingEvent{
			EventID:     uuid.NewString(),
			PlayerID:    id,
			MuBefore:    before.Mu,
			MuAfter:     after.Mu,
			SigmaBefore: before.Sigma,
			SigmaAfter:  after.Sigma,
			Reason:      model.ReasonMatch,
			Meta: map[string]any{
				"winner": winner,
				"mvp":    isMVP,
				"weight": weight,
			},
			CreatedAt: playedAt,
		})
		if isMVP {
			batch.Events = append(batch.Events, model.RatingEvent{
				EventID:     uuid.NewString(),
				PlayerID:    id,
				MuBefore:    after.Mu - e.cfg.MVPMuBonus,
				MuAfter:     after.Mu,
				SigmaBefore: after.Sigma,
				SigmaAfter:  after.Sigma,
				Reason:      model.ReasonMVP,
				Meta:        map[string]any{"bonus": e.cfg.MVPMuBonus},
				CreatedAt:   playedAt,
			})
		}
		res.Changes = append(res.Changes, PlayerChange{Before: before, After: after, Winner: winner, MVP: isMVP})
	}

	for _, id := range winnerIDs {
		update(id, true)
	}
	for _, id := range loserIDs {
		update(id, false)
	}

	if err := e.players.Apply(ctx, batch); err != nil {
		return nil, err
	}
	res.Events = batch.Events
	metrics.RecordMatchProcessed()

	e.forwardPairs(ctx, func() error {
		return e.pairs.UpdateAfterMatch(ctx, winnerIDs, loserIDs, playedAt)
	})
	return res, nil
}

// UpdateDraw applies a drawn result: both sides earn the base bonus, and a
// side that held a clearly stronger opponent earns the upset bonus while
// the favorite is docked. Sigma is only re-floored.
func (e *Engine) UpdateDraw(ctx context.Context, team1IDs, team2IDs []int64, opts MatchOptions) (*Result, error) {
	if err := validateRosters(team1IDs, team2IDs); err != nil {
		return nil, err
	}

	playedAt := opts.playedAt(e.now)
	weight := opts.weight()

	states, err := e.loadParticipants(ctx, team1IDs, team2IDs)
	if err != nil {
		return nil, err
	}

	var batch model.WriteBatch
	if e.shouldInflate(opts) {
		batch.Events = append(batch.Events, e.inflateIdle(states, playedAt)...)
	}

	avg1 := averageMu(states, team1IDs)
	avg2 := averageMu(states, team2IDs)
	p1 := 1 / (1 + math.Pow(10, (avg2-avg1)/(math.Sqrt2*drawLogisticScale)))

	delta1 := e.cfg.DrawBaseBonus
	delta2 := e.cfg.DrawBaseBonus
	switch {
	case p1 > e.cfg.DrawSignificantWinP:
		// Team 1 was expected to win: dock it, reward the underdog.
		delta1 = e.cfg.DrawBaseBonus - e.cfg.DrawUpsetPenalty
		delta2 = e.cfg.DrawBaseBonus + e.cfg.DrawUpsetBonus
	case p1 < 1-e.cfg.DrawSignificantWinP:
		delta1 = e.cfg.DrawBaseBonus + e.cfg.DrawUpsetBonus
		delta2 = e.cfg.DrawBaseBonus - e.cfg.DrawUpsetPenalty
	}

	res := &Result{}
	update := func(id int64, delta float64) {
		before := states[id]
		after := before
		after.Mu = before.Mu + delta*weight
		after.Sigma = math.Max(sigmaFloor, before.Sigma)

		at := playedAt
		after.GamesPlayed++
		after.LastPlayedAt = &at
		if after.FirstPlayedAt == nil {
			after.FirstPlayedAt = &at
		}
		states[id] = after

		batch.Players = append(batch.Players, after)
		batch.Events = append(batch.Events, model.RatingEvent{
			EventID:     uuid.NewString(),
			PlayerID:    id,
			MuBefore:    before.Mu,
			MuAfter:     after.Mu,
			SigmaBefore: before.Sigma,
			SigmaAfter:  after.Sigma,
			Reason:      model.ReasonMatch,
			Meta: map[string]any{
				"draw":   true,
				"delta":  delta,
				"weight": weight,
			},
			CreatedAt: playedAt,
		})
		res.Changes = append(res.Changes, PlayerChange{Before: before, After: after})
	}

	for _, id := range team1IDs {
		update(id, delta1)
	}
	for _, id := range team2IDs {
		update(id, delta2)
	}

	if err := e.players.Apply(ctx, batch); err != nil {
		return nil, err
	}
	res.Events = batch.Events
	metrics.RecordDrawProcessed()

	e.forwardPairs(ctx, func() error {
		return e.pairs.UpdateAfterDraw(ctx, team1IDs, team2IDs, playedAt)
	})
	return res, nil
}

// shouldInflate combines the config default with the per-call override.
func (e *Engine) shouldInflate(opts MatchOptions) bool {
	return e.cfg.ApplyIdleInflation && !opts.SkipIdleInflation && e.idle != nil && e.idle.Enabled()
}

// inflateIdle runs the inactivity pre-step in place and returns the idle
// events for players whose sigma actually moved.
func (e *Engine) inflateIdle(states map[int64]model.PlayerRating, playedAt time.Time) []model.RatingEvent {
	var events []model.RatingEvent
	for id, p := range states {
		newSigma := e.idle.InflatedSigma(p, playedAt)
		if math.Abs(newSigma-p.Sigma) <= idleSigmaEpsilon {
			continue
		}
		events = append(events, model.RatingEvent{
			EventID:     uuid.NewString(),
			PlayerID:    id,
			MuBefore:    p.Mu,
			MuAfter:     p.Mu,
			SigmaBefore: p.Sigma,
			SigmaAfter:  newSigma,
			Reason:      model.ReasonIdle,
			Meta: map[string]any{
				"weeksInactive": e.idle.Weeks(p, playedAt),
				"lambda":        e.idle.Lambda(),
			},
			CreatedAt: playedAt,
		})
		p.Sigma = newSigma
		states[id] = p
	}
	// Map iteration order is random; keep the audit trail deterministic.
	sort.Slice(events, func(i, j int) bool { return events[i].PlayerID < events[j].PlayerID })
	return events
}

// loadParticipants fetches all participants and fails with the missing ids
// if any are absent.
func (e *Engine) loadParticipants(ctx context.Context, side1, side2 []int64) (map[int64]model.PlayerRating, error) {
	ids := append(append([]int64(nil), side1...), side2...)
	players, err := e.players.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	states := make(map[int64]model.PlayerRating, len(players))
	for _, p := range players {
		states[p.ID] = p
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := states[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingPlayers, missing)
	}
	return states, nil
}

// forwardPairs runs the synergy bookkeeping as a best-effort side effect.
func (e *Engine) forwardPairs(ctx context.Context, fn func() error) {
	if e.pairs == nil {
		return
	}
	if err := fn(); err != nil {
		metrics.RecordPairUpdateError()
		if e.log != nil {
			e.log.Warn(ctx, "pair statistics update failed", logger.Error(err))
		}
	}
}

func validateRosters(side1, side2 []int64) error {
	if len(side1) == 0 || len(side2) == 0 {
		return fmt.Errorf("%w: both sides need at least one player", ErrInvalidMatch)
	}
	seen := make(map[int64]bool, len(side1)+len(side2))
	for _, id := range side1 {
		if seen[id] {
			return fmt.Errorf("%w: duplicate player %d", ErrInvalidMatch, id)
		}
		seen[id] = true
	}
	for _, id := range side2 {
		if seen[id] {
			return fmt.Errorf("%w: player %d on both sides", ErrInvalidMatch, id)
		}
		seen[id] = true
	}
	return nil
}

func validateMVPs(mvpIDs, winnerIDs, loserIDs []int64) error {
	if len(mvpIDs) == 0 {
		return nil
	}
	if len(mvpIDs) > maxMVPs {
		return fmt.Errorf("%w: at most %d mvps", ErrInvalidMVP, maxMVPs)
	}
	winners := toSet(winnerIDs)
	losers := toSet(loserIDs)
	var perWinners, perLosers int
	seen := make(map[int64]bool, len(mvpIDs))
	for _, id := range mvpIDs {
		if seen[id] {
			return fmt.Errorf("%w: duplicate mvp %d", ErrInvalidMVP, id)
		}
		seen[id] = true
		switch {
		case winners[id]:
			perWinners++
		case losers[id]:
			perLosers++
		default:
			return fmt.Errorf("%w: player %d did not play", ErrInvalidMVP, id)
		}
	}
	if perWinners > 1 || perLosers > 1 {
		return fmt.Errorf("%w: at most one mvp per team", ErrInvalidMVP)
	}
	return nil
}

func toSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

func averageMu(states map[int64]model.PlayerRating, ids []int64) float64 {
	var sum float64
	for _, id := range ids {
		sum += states[id].Mu
	}
	return sum / float64(len(ids))
}

func isFinitePositive(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0) && x > 0
}

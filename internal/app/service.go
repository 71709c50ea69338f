// Package app provides the service facade the bot layer talks to: match
// outcome processing, team building, and the manual sweep trigger.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/matchday/engine/internal/domain/balance"
	"github.com/matchday/engine/internal/domain/dedupe"
	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/internal/domain/pairstats"
	"github.com/matchday/engine/internal/domain/rating"
	"github.com/matchday/engine/pkg/logger"
)

// PlayerRepo is the storage surface the facade needs for players.
type PlayerRepo interface {
	FindByIDs(ctx context.Context, ids []int64) ([]model.PlayerRating, error)
	AllPlayers(ctx context.Context) ([]model.PlayerRating, error)
	Apply(ctx context.Context, batch model.WriteBatch) error
}

// Service wires the rating engine, pair store, balancer, and sweeper behind
// one surface. It owns no goroutines; the bot drives it call by call.
type Service struct {
	players  PlayerRepo
	pairs    *pairstats.Store
	engine   *rating.Engine
	balancer *balance.Balancer
	sweeper  *inactivity.Sweeper
	deduper  dedupe.Deduper
	logger   logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithDeduper replaces the default in-memory idempotency guard.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// New creates the facade over the given stores and domain components.
func New(
	players PlayerRepo,
	pairs *pairstats.Store,
	engine *rating.Engine,
	balancer *balance.Balancer,
	sweeper *inactivity.Sweeper,
	opts ...Option,
) *Service {
	s := &Service{
		players:  players,
		pairs:    pairs,
		engine:   engine,
		balancer: balancer,
		sweeper:  sweeper,
		deduper:  dedupe.NewInMemoryDeduper(),
		logger:   logger.Get().Named("app"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProcessMatch applies a decisive result exactly once per match id. A repeat
// delivery of the same id returns ErrDuplicateMatch without touching state;
// a failed update releases the id so the bot may retry.
func (s *Service) ProcessMatch(ctx context.Context, matchID string, winnerIDs, loserIDs []int64, opts rating.MatchOptions) (*rating.Result, error) {
	if s.deduper.SeenAndRecord(ctx, matchID) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateMatch, matchID)
	}

	res, err := s.engine.UpdateOutcome(ctx, winnerIDs, loserIDs, opts)
	if err != nil {
		s.deduper.Unrecord(ctx, matchID)
		return nil, err
	}

	s.logger.Info(ctx, "match processed",
		logger.String("matchId", matchID),
		logger.Int("players", len(res.Changes)),
	)
	return res, nil
}

// ProcessDraw is ProcessMatch for a drawn result.
func (s *Service) ProcessDraw(ctx context.Context, matchID string, team1IDs, team2IDs []int64, opts rating.MatchOptions) (*rating.Result, error) {
	if s.deduper.SeenAndRecord(ctx, matchID) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateMatch, matchID)
	}

	res, err := s.engine.UpdateDraw(ctx, team1IDs, team2IDs, opts)
	if err != nil {
		s.deduper.Unrecord(ctx, matchID)
		return nil, err
	}

	s.logger.Info(ctx, "draw processed",
		logger.String("matchId", matchID),
		logger.Int("players", len(res.Changes)),
	)
	return res, nil
}

// BuildTwoTeams splits a 16-player pool into two balanced eights.
func (s *Service) BuildTwoTeams(ctx context.Context, playerIDs []int64) (*balance.TeamBalance, error) {
	pool, matrix, err := s.loadPool(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	return s.balancer.TwoTeams(pool, matrix)
}

// BuildThreeTeams splits a 24-player pool into three balanced eights.
func (s *Service) BuildThreeTeams(ctx context.Context, playerIDs []int64) (*balance.ThreeTeamBalance, error) {
	pool, matrix, err := s.loadPool(ctx, playerIDs)
	if err != nil {
		return nil, err
	}
	return s.balancer.ThreeTeams(pool, matrix)
}

// PartnerStats returns the player's best partners and worst counters for
// the bot's stats display.
func (s *Service) PartnerStats(ctx context.Context, playerID int64) (pairstats.PlayerSummary, error) {
	return s.pairs.PlayerSummaryFor(ctx, playerID)
}

// RunIdleSweep triggers one inactivity pass outside the schedule.
func (s *Service) RunIdleSweep(ctx context.Context, now time.Time) (inactivity.SweepResult, error) {
	return s.sweeper.Run(ctx, now)
}

// loadPool resolves a pool of player ids into rating state plus, when
// synergy is enabled, their pair matrix. It fails if any id is unknown so
// the balancer never silently drops a player.
func (s *Service) loadPool(ctx context.Context, playerIDs []int64) ([]model.PlayerRating, model.PairMatrix, error) {
	pool, err := s.players.FindByIDs(ctx, playerIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(pool) != len(playerIDs) {
		known := make(map[int64]struct{}, len(pool))
		for _, p := range pool {
			known[p.ID] = struct{}{}
		}
		var missing []int64
		for _, id := range playerIDs {
			if _, ok := known[id]; !ok {
				missing = append(missing, id)
			}
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUnknownPlayers, missing)
	}

	var matrix model.PairMatrix
	if s.pairs != nil && s.pairs.Enabled() {
		matrix, err = s.pairs.MatrixFor(ctx, playerIDs)
		if err != nil {
			// Balance on base weights alone rather than fail the night.
			s.logger.Warn(ctx, "pair matrix unavailable", logger.Error(err))
			matrix = nil
		}
	}
	return pool, matrix, nil
}

package inactivity

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/matchday/engine/internal/domain/model"
	"github.com/matchday/engine/pkg/logger"
	"github.com/matchday/engine/pkg/metrics"
)

// SigmaEpsilon is the smallest sigma change worth persisting.
const SigmaEpsilon = 0.001

// PlayerSource is the storage surface the batch sweep needs.
type PlayerSource interface {
	// AllPlayers returns every registered player's rating state.
	AllPlayers(ctx context.Context) ([]model.PlayerRating, error)
	// Apply commits a write batch atomically.
	Apply(ctx context.Context, batch model.WriteBatch) error
}

// SweepResult summarizes one batch inflation pass.
type SweepResult struct {
	Scanned  int
	Inflated int
}

// Sweeper applies idle inflation to every eligible player in one atomic
// batch, pairing each changed sigma with an idle rating event.
type Sweeper struct {
	model *Model
	repo  PlayerSource
	log   logger.Logger
}

// SweeperOption applies a configuration option to the Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperLogger sets a custom logger for the sweeper.
func WithSweeperLogger(log logger.Logger) SweeperOption {
	return func(s *Sweeper) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSweeper creates a Sweeper over the given model and player source.
func NewSweeper(m *Model, repo PlayerSource, opts ...SweeperOption) *Sweeper {
	s := &Sweeper{model: m, repo: repo}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run scans all players with at least one game and persists those whose
// sigma inflated by more than SigmaEpsilon.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (SweepResult, error) {
	players, err := s.repo.AllPlayers(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	var batch model.WriteBatch
	res := SweepResult{Scanned: len(players)}
	for _, p := range players {
		if p.GamesPlayed < 1 {
			continue
		}
		newSigma := s.model.InflatedSigma(p, now)
		if math.Abs(newSigma-p.Sigma) <= SigmaEpsilon {
			continue
		}

		before := p
		p.Sigma = newSigma
		batch.Players = append(batch.Players, p)
		batch.Events = append(batch.Events, model.RatingEvent{
			EventID:     uuid.NewString(),
			PlayerID:    p.ID,
			MuBefore:    before.Mu,
			MuAfter:     p.Mu,
			SigmaBefore: before.Sigma,
			SigmaAfter:  p.Sigma,
			Reason:      model.ReasonIdle,
			Meta: map[string]any{
				"weeksInactive": s.model.Weeks(before, now),
				"lambda":        s.model.Lambda(),
			},
			CreatedAt: now,
		})
		res.Inflated++
	}

	if batch.Empty() {
		return res, nil
	}
	if err := s.repo.Apply(ctx, batch); err != nil {
		return SweepResult{}, err
	}
	metrics.RecordIdleInflations(res.Inflated)
	if s.log != nil {
		s.log.Info(ctx, "idle sweep applied",
			logger.Int("scanned", res.Scanned),
			logger.Int("inflated", res.Inflated),
		)
	}
	return res, nil
}

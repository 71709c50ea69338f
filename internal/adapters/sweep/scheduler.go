// Package sweep schedules the periodic idle-inflation pass on a cron spec.
package sweep

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/matchday/engine/internal/domain/inactivity"
	"github.com/matchday/engine/pkg/logger"
	"github.com/matchday/engine/pkg/metrics"
)

// Scheduler runs the idle sweeper on a cron schedule with seconds precision.
type Scheduler struct {
	cron    *cron.Cron
	sweeper *inactivity.Sweeper
	spec    string
	log     logger.Logger
	now     func() time.Time
}

// Option applies a configuration option to the Scheduler.
type Option func(*Scheduler)

// WithLogger sets a custom logger for the scheduler.
func WithLogger(log logger.Logger) Option {
	return func(s *Scheduler) {
		if log != nil {
			s.log = log
		}
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Scheduler that will run the sweeper on the given cron spec,
// e.g. "0 0 6 * * MON".
func New(sweeper *inactivity.Sweeper, spec string, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:    cron.New(cron.WithSeconds()),
		sweeper: sweeper,
		spec:    spec,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the sweep job and starts the cron loop. The provided
// context bounds every sweep run.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	if s.log != nil {
		s.log.Info(ctx, "idle sweep scheduled", logger.String("spec", s.spec))
	}
	return nil
}

// Stop halts the cron loop and waits for an in-flight sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow triggers one sweep outside the schedule, e.g. from an admin command.
func (s *Scheduler) RunNow(ctx context.Context) (inactivity.SweepResult, error) {
	return s.run(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if _, err := s.run(ctx); err != nil && s.log != nil {
		s.log.Error(ctx, "idle sweep failed", logger.Error(err))
	}
}

func (s *Scheduler) run(ctx context.Context) (inactivity.SweepResult, error) {
	start := s.now()
	res, err := s.sweeper.Run(ctx, start)
	metrics.ObserveSweepDuration(float64(s.now().Sub(start).Milliseconds()))
	return res, err
}

package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SweepFunc is invoked on every interval tick.
type SweepFunc func(ctx context.Context, tick time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	StartupDelay time.Duration
}

// Scheduler drives fixed-cadence execution of the alert sweep. There is no
// catch-up for missed intervals: a restart simply resumes on the cadence.
type Scheduler struct {
	opts   Options
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{opts: opts, logger: logger.With().Str("component", "scheduler").Logger()}
}

// Run blocks, invoking the sweep function on each tick until ctx is
// cancelled. A sweep error is logged and never stops the loop.
func (s *Scheduler) Run(ctx context.Context, sweep SweepFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.opts.Interval).Msg("sweep loop started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("sweep loop stopped")
			return ctx.Err()
		case tick := <-ticker.C:
			tick = tick.UTC()
			s.logger.Debug().Time("tick", tick).Msg("executing scheduled sweep")

			if err := sweep(ctx, tick); err != nil {
				s.logger.Error().Err(err).Time("tick", tick).Msg("sweep execution failed")
			}
		}
	}
}

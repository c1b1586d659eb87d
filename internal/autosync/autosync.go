// Package autosync runs source sync periodically while the server is up.
package autosync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// ErrInvalidInterval is returned for a non-positive interval.
var ErrInvalidInterval = errors.New("autosync: interval must be positive")

// Job is the work run on every tick.
type Job func(ctx context.Context) error

// Scheduler runs a Job every interval. Runs never overlap: a tick that
// arrives while the previous run is still going is skipped.
type Scheduler struct {
	scheduler *gocron.Scheduler
	interval  time.Duration
	job       Job
	logger    *slog.Logger
	cancel    context.CancelFunc
}

// New creates a scheduler. Nothing runs until Start.
func New(interval time.Duration, job Job, logger *slog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInterval, interval)
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		interval:  interval,
		job:       job,
		logger:    logger,
	}, nil
}

// Start runs the job once straight away and then every interval, in the
// background. The context passed to the job is cancelled by Stop or when
// ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.scheduler.Every(s.interval).Do(func() {
		started := time.Now()
		if err := s.job(ctx); err != nil {
			s.logger.Error("scheduled sync failed", "error", err)
			return
		}
		s.logger.Debug("scheduled sync finished", "took", time.Since(started))
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.logger.Info("auto sync enabled", "interval", s.interval)
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates the schedule and waits for a running job to return.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.scheduler.Stop()
}

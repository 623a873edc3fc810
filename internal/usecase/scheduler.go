package usecase

import (
	"context"
	"log/slog"
	"time"

	"StoryPress/internal/ports"
)

// Scheduler wires the tick driver with the reconciler use case.
type Scheduler struct {
	driver     ports.TickDriver
	reconciler *Reconciler
	logger     *slog.Logger
}

// NewScheduler returns a helper to start/stop the recurring reconciliation.
func NewScheduler(driver ports.TickDriver, reconciler *Reconciler, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, reconciler: reconciler, logger: logger}
}

// Start registers the reconciler with the provided driver.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.reconciler == nil {
		return nil
	}

	job := func(tick time.Time) {
		if err := s.reconciler.Tick(ctx, tick); err != nil && s.logger != nil {
			s.logger.Error("reconciler tick failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

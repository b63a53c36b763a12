package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// SessionReaper deletes expired claim sessions.
type SessionReaper interface {
	ReapExpired(ctx context.Context) (int64, error)
}

// TokenPruner deletes tokens that were deactivated long enough ago.
type TokenPruner interface {
	PruneInactive(ctx context.Context) (int64, error)
}

// SchedulerIntervals sets how often each housekeeping task runs.
type SchedulerIntervals struct {
	Reap  time.Duration
	Prune time.Duration
}

// Scheduler runs the background housekeeping tasks.
type Scheduler struct {
	reaper    SessionReaper
	pruner    TokenPruner
	intervals SchedulerIntervals
	logger    *zap.Logger
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

func NewScheduler(reaper SessionReaper, pruner TokenPruner, intervals SchedulerIntervals, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		reaper:    reaper,
		pruner:    pruner,
		intervals: intervals,
		logger:    logger,
		stopChan:  make(chan struct{}),
	}
}

// Start launches the tasks and returns immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler",
		zap.Duration("reap_interval", s.intervals.Reap),
		zap.Duration("prune_interval", s.intervals.Prune),
	)

	s.wg.Add(2)
	go s.runTask(ctx, "Session reap", s.intervals.Reap, s.reap)
	go s.runTask(ctx, "Token prune", s.intervals.Prune, s.prune)
}

// Stop signals the tasks and waits for them to exit.
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping background scheduler")
	close(s.stopChan)
	s.wg.Wait()
}

// runTask runs fn once at start and then on every tick.
func (s *Scheduler) runTask(ctx context.Context, name string, interval time.Duration, fn func(context.Context)) {
	defer s.wg.Done()

	fn(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fn(ctx)
		case <-s.stopChan:
			s.logger.Info(name + " task stopped")
			return
		case <-ctx.Done():
			s.logger.Info(name + " task cancelled")
			return
		}
	}
}

// reap removes expired claim sessions so the table does not grow without
// bound.
func (s *Scheduler) reap(ctx context.Context) {
	deleted, err := s.reaper.ReapExpired(ctx)
	if err != nil {
		s.logger.Error("Failed to reap claim sessions", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Debug("Reaped expired claim sessions", zap.Int64("deleted", deleted))
	}
}

// prune removes rotated and closed tokens past their retention. Lecture
// rotation leaves a row behind every few seconds.
func (s *Scheduler) prune(ctx context.Context) {
	deleted, err := s.pruner.PruneInactive(ctx)
	if err != nil {
		s.logger.Error("Failed to prune attendance tokens", zap.Error(err))
		return
	}

	if deleted > 0 {
		s.logger.Info("Pruned inactive attendance tokens", zap.Int64("deleted", deleted))
	}
}

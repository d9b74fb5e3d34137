package worker

import (
	"context"
	"log/slog"
	"time"
)

// ExpiredLotCloser is the job the scheduler drives.
type ExpiredLotCloser interface {
	CloseExpiredLots(ctx context.Context) error
}

// Scheduler runs the closing job on a fixed period. Runs never overlap: the
// next tick waits until the previous sweep returned.
type Scheduler struct {
	closer   ExpiredLotCloser
	interval time.Duration
	logger   *slog.Logger
}

func NewScheduler(closer ExpiredLotCloser, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		closer:   closer,
		interval: interval,
		logger:   logger,
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("lot expiration scheduler started", "interval", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.run(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("lot expiration scheduler stopping")
			return
		case <-ticker.C:
			s.run(ctx)
		}
	}
}

func (s *Scheduler) run(ctx context.Context) {
	if err := s.closer.CloseExpiredLots(ctx); err != nil {
		s.logger.Error("expired lot sweep failed", "error", err)
	}
}

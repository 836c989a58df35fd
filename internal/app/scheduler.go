package app

import (
	"context"
	"time"

	appservice "github.com/turtacn/crn/internal/application/service"
	"github.com/turtacn/crn/pkg/logger"
)

// StreakScheduler runs the clean streak recompute on a fixed interval. The job is
// idempotent, so several server instances may run it concurrently.
type StreakScheduler struct {
	maintenance appservice.MaintenanceAppService
	interval    time.Duration
	batchSize   int
	logger      logger.Logger
}

// NewStreakScheduler creates a scheduler. An interval <= 0 makes Run return at once.
func NewStreakScheduler(maintenance appservice.MaintenanceAppService, interval time.Duration, batchSize int, log logger.Logger) *StreakScheduler {
	return &StreakScheduler{
		maintenance: maintenance,
		interval:    interval,
		batchSize:   batchSize,
		logger:      log.WithComponent("streak_scheduler"),
	}
}

// Run blocks until ctx is done, running the job once per interval.
func (s *StreakScheduler) Run(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Info(ctx, "clean streak schedule disabled")
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "clean streak schedule started", logger.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *StreakScheduler) runOnce(ctx context.Context) {
	start := time.Now()
	res, err := s.maintenance.RunCleanStreakJob(ctx, s.batchSize)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error(ctx, "clean streak job failed", err)
		}
		return
	}
	s.logger.Info(ctx, "clean streak job finished",
		logger.Int("scanned", res.Scanned),
		logger.Int("updated", res.Updated),
		logger.Duration("duration", time.Since(start)),
	)
}

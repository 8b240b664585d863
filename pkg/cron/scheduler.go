// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	importservice "github.com/mapleledger/mapleledger/internal/domain/import/service"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron          *cron.Cron
	importService *importservice.ImportService
	staleMaxAge   time.Duration
	logger        *slog.Logger
}

// NewScheduler creates a new job scheduler.
func NewScheduler(importService *importservice.ImportService, staleMaxAge time.Duration, logger *slog.Logger) *Scheduler {
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:          c,
		importService: importService,
		staleMaxAge:   staleMaxAge,
		logger:        logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Stale upload cleanup: runs hourly at minute 10
	_, err := s.cron.AddFunc("10 * * * *", s.cleanupStaleUploads)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the stale upload cleanup (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.cleanupStaleUploads()
}

// cleanupStaleUploads removes upload jobs that never finished, such as
// imports interrupted by a restart mid-parse.
func (s *Scheduler) cleanupStaleUploads() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := s.importService.CleanupStaleUploads(ctx, s.staleMaxAge)
	if err != nil {
		s.logger.Error("stale upload cleanup failed", slog.Any("error", err))
		return
	}

	if removed > 0 {
		s.logger.Info("stale upload cleanup completed",
			slog.Int64("removed", removed),
		)
	}
}

package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"investledger-backend/internal/config"
	"investledger-backend/internal/logger"
)

// Jobs is the set of cron entry points the scheduler drives
type Jobs interface {
	Config() *config.Config
	ScheduledROIPayout()
	ScheduledMatureInvestments()
}

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs Jobs
}

// NewScheduler creates a new scheduler with the provided job runner
func NewScheduler(jobs Jobs) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobs,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ROIPayout, s.jobs.ScheduledROIPayout); err != nil {
		return fmt.Errorf("failed to register ROIPayout job: %w", err)
	}

	if _, err := s.cron.AddFunc(cfg.MatureInvestments, s.jobs.ScheduledMatureInvestments); err != nil {
		return fmt.Errorf("failed to register MatureInvestments job: %w", err)
	}

	logger.Info("All cron jobs registered successfully", "roi_payout", cfg.ROIPayout, "mature_investments", cfg.MatureInvestments)
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started successfully")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}

// IsRunning returns true if the scheduler has jobs registered
func (s *Scheduler) IsRunning() bool {
	return len(s.cron.Entries()) > 0
}

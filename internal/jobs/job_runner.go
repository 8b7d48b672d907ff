package jobs

import (
	"context"
	"time"

	"investledger-backend/internal/config"
	"investledger-backend/internal/lock"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
	"investledger-backend/internal/service"
)

// JobRunner coordinates all scheduled jobs
type JobRunner struct {
	investments repository.InvestmentRepository
	services    *Services
	locker      lock.Locker
	config      *config.Config
	now         func() time.Time
}

// Services holds all service dependencies needed by jobs
type Services struct {
	Payout     service.PayoutService
	Investment service.InvestmentService
}

// NewJobRunner creates a new job runner with all dependencies
func NewJobRunner(investments repository.InvestmentRepository, services *Services, locker lock.Locker, cfg *config.Config) *JobRunner {
	return &JobRunner{
		investments: investments,
		services:    services,
		locker:      locker,
		config:      cfg,
		now:         time.Now,
	}
}

// Config returns the configuration the runner was built with
func (jr *JobRunner) Config() *config.Config {
	return jr.config
}

// runWithRecovery wraps job execution with panic recovery
func (jr *JobRunner) runWithRecovery(jobName string, jobFunc func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Job panicked", "job", jobName, "panic", r)
		}
	}()

	logger.Info("Starting job", "job", jobName)
	jobFunc(context.Background())
	logger.Info("Job completed", "job", jobName)
}

// ScheduledROIPayout is the cron entry point for RunROIPayout
func (jr *JobRunner) ScheduledROIPayout() {
	jr.runWithRecovery("ROIPayout", func(ctx context.Context) {
		if _, err := jr.RunROIPayout(ctx); err != nil {
			logger.Error("ROI payout run failed", "error", err)
		}
	})
}

// ScheduledMatureInvestments is the cron entry point for MatureInvestments
func (jr *JobRunner) ScheduledMatureInvestments() {
	jr.runWithRecovery("MatureInvestments", func(ctx context.Context) {
		if _, err := jr.MatureInvestments(ctx); err != nil {
			logger.Error("Maturity run failed", "error", err)
		}
	})
}

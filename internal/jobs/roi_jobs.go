package jobs

import (
	"context"
	"fmt"
	"time"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
)

// PayoutRunSummary describes one ROI run. Acquired is false when another
// process held the payout lock and nothing was done.
type PayoutRunSummary struct {
	Acquired    bool      `json:"acquired"`
	Scanned     int       `json:"scanned"`
	PeriodsPaid int       `json:"periods_paid"`
	Matured     int       `json:"matured"`
	Failures    int       `json:"failures"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
}

// RunROIPayout pays every elapsed, unpaid period of every ACTIVE investment
// and then completes the investments that have matured. Only one run may be
// in progress across all processes; a run that cannot take the lock returns
// immediately with Acquired false. A failing investment is logged and
// counted and does not stop the others.
func (jr *JobRunner) RunROIPayout(ctx context.Context) (*PayoutRunSummary, error) {
	now := jr.now().UTC()
	summary := &PayoutRunSummary{StartedAt: now}
	name, ttl := jr.config.Lock.Name, jr.config.Lock.TTL

	acquired, err := jr.locker.Acquire(ctx, name, ttl)
	if err != nil {
		return summary, fmt.Errorf("failed to acquire %s: %w", name, err)
	}
	if !acquired {
		logger.Info("ROI payout skipped", "lock", name, "reason", domain.ErrLockContention)
		summary.FinishedAt = jr.now().UTC()
		return summary, nil
	}
	summary.Acquired = true
	defer func() {
		if err := jr.locker.Release(context.WithoutCancel(ctx), name); err != nil {
			logger.Error("Failed to release payout lock", "lock", name, "error", err)
		}
	}()

	active, err := jr.investments.ListByStatus(ctx, domain.InvestmentStatusActive)
	if err != nil {
		return summary, fmt.Errorf("failed to list active investments: %w", err)
	}
	summary.Scanned = len(active)

	for i := range active {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		inv := &active[i]
		paid, err := jr.services.Payout.ProcessInvestment(ctx, inv, now)
		summary.PeriodsPaid += paid
		if err != nil {
			summary.Failures++
			logger.Error("ROI payout failed for investment",
				"investment_id", inv.ID, "last_period_paid", inv.LastROIPeriodPaid, "error", err)
			continue
		}
		if paid > 0 {
			logger.Debug("ROI periods paid", "investment_id", inv.ID, "periods", paid)
		}
	}

	matured, failures := jr.matureDue(ctx, now)
	summary.Matured = matured
	summary.Failures += failures
	summary.FinishedAt = jr.now().UTC()

	logger.Info("ROI payout run finished",
		"scanned", summary.Scanned,
		"periods_paid", summary.PeriodsPaid,
		"matured", summary.Matured,
		"failures", summary.Failures,
		"duration", summary.FinishedAt.Sub(summary.StartedAt))
	return summary, nil
}

// MatureInvestments completes every ACTIVE investment past its end date
// whose final period is paid. It returns the number completed.
func (jr *JobRunner) MatureInvestments(ctx context.Context) (int, error) {
	matured, failures := jr.matureDue(ctx, jr.now().UTC())
	if failures > 0 {
		return matured, fmt.Errorf("%d investments failed to mature", failures)
	}
	return matured, nil
}

func (jr *JobRunner) matureDue(ctx context.Context, now time.Time) (matured, failures int) {
	active, err := jr.investments.ListByStatus(ctx, domain.InvestmentStatusActive)
	if err != nil {
		logger.Error("Failed to list investments for maturity", "error", err)
		return 0, 1
	}

	for _, inv := range active {
		if inv.EndDate == nil || now.Before(*inv.EndDate) {
			continue
		}
		ok, err := jr.services.Investment.Mature(ctx, inv.ID, now)
		if err != nil {
			failures++
			logger.Error("Failed to mature investment", "investment_id", inv.ID, "error", err)
			continue
		}
		if ok {
			matured++
		}
	}
	return matured, failures
}

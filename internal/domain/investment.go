package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/utils"
)

type InvestmentStatus string

const (
	InvestmentStatusPendingPayment InvestmentStatus = "PENDING_PAYMENT"
	InvestmentStatusActive         InvestmentStatus = "ACTIVE"
	InvestmentStatusPaused         InvestmentStatus = "PAUSED"
	InvestmentStatusCompleted      InvestmentStatus = "COMPLETED"
	InvestmentStatusCancelled      InvestmentStatus = "CANCELLED"
	InvestmentStatusRejected       InvestmentStatus = "REJECTED"
)

var investmentTransitions = map[InvestmentStatus][]InvestmentStatus{
	InvestmentStatusPendingPayment: {InvestmentStatusActive, InvestmentStatusCancelled, InvestmentStatusRejected},
	InvestmentStatusActive:         {InvestmentStatusPaused, InvestmentStatusCompleted, InvestmentStatusCancelled, InvestmentStatusRejected},
	InvestmentStatusPaused:         {InvestmentStatusActive, InvestmentStatusCompleted},
}

// CanTransition reports whether the lifecycle allows from -> to.
func CanTransition(from, to InvestmentStatus) bool {
	for _, s := range investmentTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

func (s InvestmentStatus) Valid() bool {
	switch s {
	case InvestmentStatusPendingPayment, InvestmentStatusActive, InvestmentStatusPaused,
		InvestmentStatusCompleted, InvestmentStatusCancelled, InvestmentStatusRejected:
		return true
	}
	return false
}

// IsTerminal is true for statuses with no outgoing transitions.
func (s InvestmentStatus) IsTerminal() bool {
	return len(investmentTransitions[s]) == 0
}

// IsFunded is true while principal is locked in the ledger.
func (s InvestmentStatus) IsFunded() bool {
	return s == InvestmentStatusActive || s == InvestmentStatusPaused
}

// Investment is one user's commitment to a category. Rate and duration are
// snapshotted from the category at creation and never re-read.
type Investment struct {
	ID                int64            `json:"id"`
	UserID            int64            `json:"user_id"`
	CategoryID        int64            `json:"category_id"`
	PrincipalAmount   decimal.Decimal  `json:"principal_amount"`
	ROIRateSnapshot   decimal.Decimal  `json:"roi_rate_snapshot"` // percent per month
	DurationMonths    int              `json:"duration_months"`
	Status            InvestmentStatus `json:"status"`
	StartDate         *time.Time       `json:"start_date,omitempty"`
	EndDate           *time.Time       `json:"end_date,omitempty"`
	LastROIPeriodPaid int              `json:"last_roi_period_paid"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// NewInvestment builds a PENDING_PAYMENT investment against cat.
func NewInvestment(userID int64, cat *InvestmentCategory, principal decimal.Decimal) *Investment {
	return &Investment{
		UserID:          userID,
		CategoryID:      cat.ID,
		PrincipalAmount: principal,
		ROIRateSnapshot: cat.ROIRatePercent(),
		DurationMonths:  cat.DurationMonths,
		Status:          InvestmentStatusPendingPayment,
	}
}

// ActivationWindow returns the start and end dates set on activation.
func (i *Investment) ActivationWindow(now time.Time) (time.Time, time.Time) {
	start := now.UTC()
	return start, utils.AddMonths(start, i.DurationMonths)
}

// DuePeriod is the highest payout period that has fully elapsed at now,
// capped at the investment duration.
func (i *Investment) DuePeriod(now time.Time) int {
	if i.StartDate == nil {
		return 0
	}
	p := utils.ElapsedPeriods(*i.StartDate, now)
	if p > i.DurationMonths {
		p = i.DurationMonths
	}
	return p
}

// IsMatured is true once the end date has passed and every period is paid.
func (i *Investment) IsMatured(now time.Time) bool {
	if i.EndDate == nil || now.Before(*i.EndDate) {
		return false
	}
	return i.LastROIPeriodPaid >= i.DurationMonths
}

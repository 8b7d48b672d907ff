package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to InvestmentStatus
		allowed  bool
	}{
		{InvestmentStatusPendingPayment, InvestmentStatusActive, true},
		{InvestmentStatusPendingPayment, InvestmentStatusCancelled, true},
		{InvestmentStatusPendingPayment, InvestmentStatusRejected, true},
		{InvestmentStatusPendingPayment, InvestmentStatusPaused, false},
		{InvestmentStatusActive, InvestmentStatusPaused, true},
		{InvestmentStatusActive, InvestmentStatusCompleted, true},
		{InvestmentStatusActive, InvestmentStatusActive, false},
		{InvestmentStatusPaused, InvestmentStatusActive, true},
		{InvestmentStatusPaused, InvestmentStatusCancelled, false},
		{InvestmentStatusCompleted, InvestmentStatusActive, false},
		{InvestmentStatusCancelled, InvestmentStatusActive, false},
		{InvestmentStatusRejected, InvestmentStatusPendingPayment, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestInvestmentStatus_IsTerminal(t *testing.T) {
	assert.True(t, InvestmentStatusCompleted.IsTerminal())
	assert.True(t, InvestmentStatusCancelled.IsTerminal())
	assert.True(t, InvestmentStatusRejected.IsTerminal())
	assert.False(t, InvestmentStatusActive.IsTerminal())
	assert.False(t, InvestmentStatus("BOGUS").Valid())
}

func TestNewInvestment_SnapshotsCategory(t *testing.T) {
	cat := &InvestmentCategory{ID: 3, MonthlyROIRate: d("0.05"), DurationMonths: 6}
	inv := NewInvestment(9, cat, d("1000000"))

	assert.Equal(t, InvestmentStatusPendingPayment, inv.Status)
	assert.True(t, d("5").Equal(inv.ROIRateSnapshot))
	assert.Equal(t, 6, inv.DurationMonths)
	assert.Equal(t, 0, inv.LastROIPeriodPaid)

	cat.MonthlyROIRate = d("0.10")
	assert.True(t, d("5").Equal(inv.ROIRateSnapshot))
}

func TestInvestment_DuePeriodAndMaturity(t *testing.T) {
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	inv := &Investment{DurationMonths: 3, Status: InvestmentStatusActive}
	s, e := inv.ActivationWindow(start)
	inv.StartDate, inv.EndDate = &s, &e

	assert.Equal(t, time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC), e)
	assert.Equal(t, 1, inv.DuePeriod(time.Date(2024, time.February, 2, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 3, inv.DuePeriod(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)))

	after := time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC)
	assert.False(t, inv.IsMatured(after))
	inv.LastROIPeriodPaid = 3
	assert.True(t, inv.IsMatured(after))
	assert.False(t, inv.IsMatured(start))

	pending := &Investment{DurationMonths: 3}
	assert.Equal(t, 0, pending.DuePeriod(after))
}

func TestInvestment_DuePeriodIgnoresApprovalTime(t *testing.T) {
	approvedAt := time.Date(2024, time.January, 1, 15, 0, 0, 0, time.UTC)
	inv := &Investment{DurationMonths: 6, Status: InvestmentStatusActive}
	s, e := inv.ActivationWindow(approvedAt)
	inv.StartDate, inv.EndDate = &s, &e

	cronRun := time.Date(2024, time.February, 1, 1, 0, 0, 0, time.UTC)
	assert.Equal(t, 1, inv.DuePeriod(cronRun))
	assert.Equal(t, 0, inv.DuePeriod(cronRun.Add(-2*time.Hour)))
}

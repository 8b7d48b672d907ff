package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentCategory is an investment plan tier. Categories are disabled
// through IsActive and never hard deleted.
type InvestmentCategory struct {
	ID             int64           `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	MinAmount      decimal.Decimal `json:"min_amount"`
	MaxAmount      decimal.Decimal `json:"max_amount"`
	MonthlyROIRate decimal.Decimal `json:"monthly_roi_rate"` // fraction, 0.05 = 5%
	DurationMonths int             `json:"duration_months"`
	Priority       int             `json:"priority"`
	IsActive       bool            `json:"is_active"`
	// Per-tier override of the platform early-withdrawal penalty rate (fraction).
	EarlyWithdrawalPenaltyRate decimal.NullDecimal `json:"early_withdrawal_penalty_rate"`
	CreatedAt                  time.Time           `json:"created_at"`
	UpdatedAt                  time.Time           `json:"updated_at"`
}

// Validate checks the category definition itself.
func (c *InvestmentCategory) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return NewValidationError("code", "is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return NewValidationError("name", "is required")
	}
	if !c.MinAmount.IsPositive() {
		return NewValidationError("min_amount", "must be greater than zero")
	}
	if c.MaxAmount.LessThan(c.MinAmount) {
		return NewValidationError("max_amount", "must not be below min_amount")
	}
	if c.MonthlyROIRate.IsNegative() || c.MonthlyROIRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return NewValidationError("monthly_roi_rate", "must be a fraction in [0, 1)")
	}
	if c.DurationMonths <= 0 {
		return NewValidationError("duration_months", "must be positive")
	}
	if c.EarlyWithdrawalPenaltyRate.Valid {
		r := c.EarlyWithdrawalPenaltyRate.Decimal
		if r.IsNegative() || r.GreaterThan(decimal.NewFromInt(1)) {
			return NewValidationError("early_withdrawal_penalty_rate", "must be a fraction in [0, 1]")
		}
	}
	return nil
}

// CheckAmount enforces minAmount <= amount <= maxAmount.
func (c *InvestmentCategory) CheckAmount(amount decimal.Decimal) error {
	if amount.LessThan(c.MinAmount) {
		return NewValidationError("amount", "must be at least %s for %s", c.MinAmount.StringFixed(2), c.Code)
	}
	if amount.GreaterThan(c.MaxAmount) {
		return NewValidationError("amount", "must not exceed %s for %s", c.MaxAmount.StringFixed(2), c.Code)
	}
	return nil
}

// ROIRatePercent is the snapshot value stored on new investments.
func (c *InvestmentCategory) ROIRatePercent() decimal.Decimal {
	return c.MonthlyROIRate.Mul(decimal.NewFromInt(100))
}

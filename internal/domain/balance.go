package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InvestorBalance is the per-investment ledger. All mutations go through the
// methods below so that the non-negativity invariants hold after each one.
type InvestorBalance struct {
	InvestmentID     int64           `json:"investment_id"`
	PrincipalLocked  decimal.Decimal `json:"principal_locked"`
	TotalDeposited   decimal.Decimal `json:"total_deposited"`
	TotalWithdrawn   decimal.Decimal `json:"total_withdrawn"`
	ROIAccrued       decimal.Decimal `json:"roi_accrued"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	LastComputedAt   time.Time       `json:"last_computed_at"`
}

// WithdrawalSplit says where a withdrawn amount came from.
type WithdrawalSplit struct {
	FromPrincipal decimal.Decimal `json:"from_principal"`
	FromAvailable decimal.Decimal `json:"from_available"`
}

func NewInvestorBalance(investmentID int64) *InvestorBalance {
	return &InvestorBalance{
		InvestmentID:     investmentID,
		PrincipalLocked:  decimal.Zero,
		TotalDeposited:   decimal.Zero,
		TotalWithdrawn:   decimal.Zero,
		ROIAccrued:       decimal.Zero,
		AvailableBalance: decimal.Zero,
	}
}

func requirePositive(field string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return NewValidationError(field, "must be greater than zero")
	}
	return nil
}

// CreditDeposit locks an approved deposit as principal.
func (b *InvestorBalance) CreditDeposit(amount decimal.Decimal) error {
	if err := requirePositive("amount", amount); err != nil {
		return err
	}
	b.PrincipalLocked = b.PrincipalLocked.Add(amount)
	b.TotalDeposited = b.TotalDeposited.Add(amount)
	return b.Check()
}

// CreditROI adds one period's interest to the withdrawable balance.
func (b *InvestorBalance) CreditROI(amount decimal.Decimal) error {
	if err := requirePositive("amount", amount); err != nil {
		return err
	}
	b.AvailableBalance = b.AvailableBalance.Add(amount)
	b.ROIAccrued = b.ROIAccrued.Add(amount)
	return b.Check()
}

// WithdrawalCeiling is the most that can leave the ledger in one request.
func (b *InvestorBalance) WithdrawalCeiling(early bool) decimal.Decimal {
	if early {
		return b.AvailableBalance.Add(b.PrincipalLocked)
	}
	return b.AvailableBalance
}

// SplitWithdrawal computes where amount would be drawn from without mutating.
// Early withdrawals consume principal first.
func (b *InvestorBalance) SplitWithdrawal(amount decimal.Decimal, early bool) (WithdrawalSplit, error) {
	if err := requirePositive("amount", amount); err != nil {
		return WithdrawalSplit{}, err
	}
	if amount.GreaterThan(b.WithdrawalCeiling(early)) {
		return WithdrawalSplit{}, fmt.Errorf("%w: requested %s, ceiling %s",
			ErrInsufficientBalance, amount.StringFixed(2), b.WithdrawalCeiling(early).StringFixed(2))
	}
	if !early {
		return WithdrawalSplit{FromPrincipal: decimal.Zero, FromAvailable: amount}, nil
	}
	fromPrincipal := decimal.Min(amount, b.PrincipalLocked)
	return WithdrawalSplit{FromPrincipal: fromPrincipal, FromAvailable: amount.Sub(fromPrincipal)}, nil
}

// Debit removes a withdrawal from the ledger.
func (b *InvestorBalance) Debit(amount decimal.Decimal, early bool) (WithdrawalSplit, error) {
	split, err := b.SplitWithdrawal(amount, early)
	if err != nil {
		return split, err
	}
	b.PrincipalLocked = b.PrincipalLocked.Sub(split.FromPrincipal)
	b.AvailableBalance = b.AvailableBalance.Sub(split.FromAvailable)
	b.TotalWithdrawn = b.TotalWithdrawn.Add(amount)
	return split, b.Check()
}

// ReleasePrincipal moves locked principal into the available balance, on
// maturity or cancellation. It returns the released amount.
func (b *InvestorBalance) ReleasePrincipal() decimal.Decimal {
	released := b.PrincipalLocked
	b.AvailableBalance = b.AvailableBalance.Add(released)
	b.PrincipalLocked = decimal.Zero
	return released
}

// Check verifies the ledger invariants.
func (b *InvestorBalance) Check() error {
	if b.AvailableBalance.IsNegative() {
		return fmt.Errorf("%w: available balance %s below zero", ErrIntegrity, b.AvailableBalance.StringFixed(2))
	}
	if b.PrincipalLocked.IsNegative() {
		return fmt.Errorf("%w: locked principal %s below zero", ErrIntegrity, b.PrincipalLocked.StringFixed(2))
	}
	return nil
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
)

type ledgerService struct {
	tx          repository.Transactor
	balanceRepo repository.BalanceRepository
	now         func() time.Time
}

func NewLedgerService(tx repository.Transactor, balanceRepo repository.BalanceRepository) LedgerService {
	return &ledgerService{tx: tx, balanceRepo: balanceRepo, now: time.Now}
}

// mutate locks the balance row, applies fn and persists the result. An error
// from fn leaves the row untouched.
func (s *ledgerService) mutate(ctx context.Context, investmentID int64, op string, fn func(b *domain.InvestorBalance) error) (*domain.InvestorBalance, error) {
	var out *domain.InvestorBalance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.balanceRepo.GetForUpdate(ctx, investmentID)
		if err != nil {
			return err
		}
		if err := fn(b); err != nil {
			return err
		}
		b.LastComputedAt = s.now().UTC()
		if err := s.balanceRepo.Update(ctx, b); err != nil {
			return err
		}
		out = b
		return nil
	})
	if err != nil {
		logger.Debug("Ledger mutation failed", "op", op, "investment_id", investmentID, "error", err)
		return nil, err
	}
	return out, nil
}

func (s *ledgerService) ApplyDeposit(ctx context.Context, investmentID int64, amount decimal.Decimal) (*domain.InvestorBalance, error) {
	return s.mutate(ctx, investmentID, "deposit", func(b *domain.InvestorBalance) error {
		return b.CreditDeposit(amount)
	})
}

func (s *ledgerService) ApplyROIPayout(ctx context.Context, investmentID int64, amount decimal.Decimal) (*domain.InvestorBalance, error) {
	return s.mutate(ctx, investmentID, "roi", func(b *domain.InvestorBalance) error {
		return b.CreditROI(amount)
	})
}

func (s *ledgerService) ApplyWithdrawal(ctx context.Context, investmentID int64, amount decimal.Decimal, fromPrincipal bool) (domain.WithdrawalSplit, error) {
	var split domain.WithdrawalSplit
	_, err := s.mutate(ctx, investmentID, "withdrawal", func(b *domain.InvestorBalance) error {
		var err error
		split, err = b.Debit(amount, fromPrincipal)
		return err
	})
	return split, err
}

func (s *ledgerService) ReleasePrincipal(ctx context.Context, investmentID int64) (decimal.Decimal, error) {
	released := decimal.Zero
	_, err := s.mutate(ctx, investmentID, "release", func(b *domain.InvestorBalance) error {
		released = b.ReleasePrincipal()
		return b.Check()
	})
	return released, err
}

func (s *ledgerService) Snapshot(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error) {
	return s.balanceRepo.GetByInvestmentID(ctx, investmentID)
}

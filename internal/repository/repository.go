package repository

import (
	"context"
	"time"

	"investledger-backend/internal/domain"
)

// Transactor runs fn inside one store transaction. Repositories called with
// the ctx passed to fn join that transaction; a nested WithinTx joins the
// outer one.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type CategoryRepository interface {
	Create(ctx context.Context, cat *domain.InvestmentCategory) error
	GetByID(ctx context.Context, id int64) (*domain.InvestmentCategory, error)
	GetByCode(ctx context.Context, code string) (*domain.InvestmentCategory, error)
	Update(ctx context.Context, cat *domain.InvestmentCategory) error
	SetActive(ctx context.Context, id int64, active bool) error
	List(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error)
}

type InvestmentRepository interface {
	Create(ctx context.Context, inv *domain.Investment) error
	GetByID(ctx context.Context, id int64) (*domain.Investment, error)
	// GetByIDForUpdate row-locks the investment for the current transaction.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Investment, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Investment, error)
	ListByStatus(ctx context.Context, status domain.InvestmentStatus) ([]domain.Investment, error)
	// UpdateStatus moves from -> to. It fails with ErrInvalidTransition if the
	// row is no longer in from.
	UpdateStatus(ctx context.Context, id int64, from, to domain.InvestmentStatus) error
	// Activate moves PENDING_PAYMENT -> ACTIVE and sets the dates once.
	Activate(ctx context.Context, id int64, start, end time.Time) error
	// AdvanceROIPeriod sets last_roi_period_paid = period only when it is
	// currently period-1. Any other state is ErrIntegrity.
	AdvanceROIPeriod(ctx context.Context, id int64, period int) error
}

type BalanceRepository interface {
	Create(ctx context.Context, bal *domain.InvestorBalance) error
	GetByInvestmentID(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error)
	GetForUpdate(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error)
	Update(ctx context.Context, bal *domain.InvestorBalance) error
}

type TransactionRepository interface {
	Create(ctx context.Context, tx *domain.Transaction) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Transaction, error)
	GetByReference(ctx context.Context, reference string) (*domain.Transaction, error)
	// UpdateStatus moves from -> to and stamps the processing admin and time.
	UpdateStatus(ctx context.Context, id int64, from, to domain.TransactionStatus, processedBy *int64, processedAt time.Time) error
	SetProofURL(ctx context.Context, id int64, proofURL string) error
	List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
	// FindPendingDeposit returns the PENDING deposit that funds an investment.
	FindPendingDeposit(ctx context.Context, investmentID int64) (*domain.Transaction, error)

	CreateWithdrawalDetail(ctx context.Context, detail *domain.WithdrawalDetail) error
	GetWithdrawalDetail(ctx context.Context, transactionID int64) (*domain.WithdrawalDetail, error)
	CreatePenalty(ctx context.Context, penalty *domain.WithdrawalPenalty) error
	GetPenalty(ctx context.Context, transactionID int64) (*domain.WithdrawalPenalty, error)
}

package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"investledger-backend/internal/domain"
)

type CategoryService interface {
	CreateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) error
	UpdateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) (*domain.InvestmentCategory, error)
	SetCategoryActive(ctx context.Context, actor domain.Actor, id int64, active bool) error
	ListCategories(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error)
}

// LedgerService owns every mutation of an InvestorBalance. Mutators join the
// store transaction carried by ctx and row-lock the balance first.
type LedgerService interface {
	ApplyDeposit(ctx context.Context, investmentID int64, amount decimal.Decimal) (*domain.InvestorBalance, error)
	ApplyROIPayout(ctx context.Context, investmentID int64, amount decimal.Decimal) (*domain.InvestorBalance, error)
	ApplyWithdrawal(ctx context.Context, investmentID int64, amount decimal.Decimal, fromPrincipal bool) (domain.WithdrawalSplit, error)
	ReleasePrincipal(ctx context.Context, investmentID int64) (decimal.Decimal, error)
	Snapshot(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error)
}

type InvestmentService interface {
	GetInvestment(ctx context.Context, actor domain.Actor, id int64) (*InvestmentView, error)
	ListMyInvestments(ctx context.Context, actor domain.Actor) ([]domain.Investment, error)
	// Activate moves a PENDING_PAYMENT investment to ACTIVE and sets its
	// dates. Any other status is ErrInvalidTransition.
	Activate(ctx context.Context, id int64, now time.Time) (*domain.Investment, error)
	Pause(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)
	Resume(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)
	Complete(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)
	Cancel(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)
	Reject(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error)
	// Mature completes an investment whose term has ended and whose last
	// period is paid. It reports false when the investment is not yet due.
	Mature(ctx context.Context, id int64, now time.Time) (bool, error)
}

type DepositService interface {
	CreateDeposit(ctx context.Context, actor domain.Actor, req DepositRequest) (*DepositReceipt, error)
	ProofUploadURL(ctx context.Context, actor domain.Actor, transactionID int64, contentType string) (*ProofUpload, error)
	AttachProof(ctx context.Context, actor domain.Actor, transactionID int64, key string) (*domain.Transaction, error)
	ProofDownloadURL(ctx context.Context, actor domain.Actor, transactionID int64) (string, error)
	ApproveDeposit(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)
	RejectDeposit(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)
}

type WithdrawalService interface {
	QuoteWithdrawal(ctx context.Context, actor domain.Actor, investmentID int64, amount decimal.Decimal, early bool) (*WithdrawalQuote, error)
	RequestWithdrawal(ctx context.Context, actor domain.Actor, req WithdrawalRequest) (*WithdrawalReceipt, error)
	ApproveWithdrawal(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)
	RejectWithdrawal(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)
	MarkWithdrawalPaid(ctx context.Context, actor domain.Actor, transactionID int64) (*domain.Transaction, error)
}

// TransactionService is the admin review surface. Approve and Reject dispatch
// on the transaction type.
type TransactionService interface {
	Approve(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error)
	Reject(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error)
	MarkPaid(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error)
	GetTransaction(ctx context.Context, actor domain.Actor, id int64) (*TransactionView, error)
	ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, int, error)
}

// PayoutService pays ROI periods. Each PayPeriod call is one store
// transaction.
type PayoutService interface {
	PayPeriod(ctx context.Context, investmentID int64, period int, now time.Time) (*PeriodPayout, error)
	ProcessInvestment(ctx context.Context, inv *domain.Investment, now time.Time) (int, error)
}

type DepositRequest struct {
	CategoryCode string
	Amount       decimal.Decimal
	Description  string
}

type DepositReceipt struct {
	Transaction *domain.Transaction `json:"transaction"`
	Investment  *domain.Investment  `json:"investment"`
	BankDetails domain.BankDetails  `json:"bank_details"`
}

type ProofUpload struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"upload_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type WithdrawalRequest struct {
	InvestmentID      int64
	BankName          string
	AccountHolderName string
	AccountNumber     string
	Amount            decimal.Decimal
	EarlyWithdrawal   bool
}

type WithdrawalReceipt struct {
	Transaction *domain.Transaction       `json:"transaction"`
	Detail      *domain.WithdrawalDetail  `json:"detail"`
	Penalty     *domain.WithdrawalPenalty `json:"penalty,omitempty"`
	Quote       *WithdrawalQuote          `json:"quote"`
}

type InvestmentView struct {
	Investment *domain.Investment      `json:"investment"`
	Balance    *domain.InvestorBalance `json:"balance"`
}

type TransactionView struct {
	Transaction *domain.Transaction       `json:"transaction"`
	Detail      *domain.WithdrawalDetail  `json:"withdrawal_detail,omitempty"`
	Penalty     *domain.WithdrawalPenalty `json:"penalty,omitempty"`
}

// PeriodPayout is the outcome of one PayPeriod call. Advanced is false when
// the period had already been paid or the investment is not ACTIVE.
type PeriodPayout struct {
	InvestmentID int64
	Period       int
	Amount       decimal.Decimal
	Advanced     bool
	Transaction  *domain.Transaction
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return domain.ErrUnauthorized
	}
	return nil
}

// requireOwner allows the resource owner and admins.
func requireOwner(actor domain.Actor, ownerID int64) error {
	if actor.IsAdmin() || (actor.UserID != 0 && actor.UserID == ownerID) {
		return nil
	}
	return domain.ErrUnauthorized
}

// processedBy is nil for the system actor.
func processedBy(actor domain.Actor) *int64 {
	if actor.System || actor.UserID == 0 {
		return nil
	}
	id := actor.UserID
	return &id
}

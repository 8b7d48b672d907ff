package domain

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
	TransactionTypeInterest   TransactionType = "INTEREST"
)

type TransactionStatus string

const (
	TransactionStatusPending  TransactionStatus = "PENDING"
	TransactionStatusApproved TransactionStatus = "APPROVED"
	TransactionStatusRejected TransactionStatus = "REJECTED"
	TransactionStatusPaid     TransactionStatus = "PAID"
)

// Transaction is an append-only record of money movement. Only Status,
// ProofURL and the processing fields change after insert.
type Transaction struct {
	ID              int64             `json:"id"`
	Reference       string            `json:"reference"`
	UserID          int64             `json:"user_id"`
	InvestmentID    *int64            `json:"investment_id,omitempty"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	Amount          decimal.Decimal   `json:"amount"`
	ProofURL        *string           `json:"proof_url,omitempty"`
	Description     string            `json:"description"`
	EarlyWithdrawal bool              `json:"early_withdrawal"`
	ROIPeriod       *int              `json:"roi_period,omitempty"`
	ProcessedBy     *int64            `json:"processed_by,omitempty"`
	ProcessedAt     *time.Time        `json:"processed_at,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// WithdrawalDetail is the payout destination of a WITHDRAWAL transaction.
type WithdrawalDetail struct {
	TransactionID     int64  `json:"transaction_id"`
	BankName          string `json:"bank_name"`
	AccountHolderName string `json:"account_holder_name"`
	AccountNumber     string `json:"account_number"`
}

// WithdrawalPenalty records the early-withdrawal fee. Percentage is in
// percent (5 = 5%).
type WithdrawalPenalty struct {
	TransactionID int64           `json:"transaction_id"`
	Percentage    decimal.Decimal `json:"percentage"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransactionFilter narrows transaction listings. Zero values match all.
type TransactionFilter struct {
	UserID       int64
	InvestmentID int64
	Type         TransactionType
	Status       TransactionStatus
	From         *time.Time
	To           *time.Time
	Page         int
	PageSize     int
}

// Normalize applies paging defaults.
func (f *TransactionFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusPending:  {TransactionStatusApproved, TransactionStatusRejected},
	TransactionStatusApproved: {TransactionStatusPaid},
}

// CanTransitionTransaction reports whether a transaction may move from -> to.
func CanTransitionTransaction(from, to TransactionStatus) bool {
	for _, s := range transactionTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

var accountNumberPattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidateAccountNumber requires exactly ten digits.
func ValidateAccountNumber(accountNumber string) error {
	if !accountNumberPattern.MatchString(accountNumber) {
		return NewValidationError("account_number", "must be exactly 10 digits")
	}
	return nil
}

// Validate checks the payout destination fields.
func (d *WithdrawalDetail) Validate() error {
	if strings.TrimSpace(d.BankName) == "" {
		return NewValidationError("bank_name", "is required")
	}
	if strings.TrimSpace(d.AccountHolderName) == "" {
		return NewValidationError("account_holder_name", "is required")
	}
	return ValidateAccountNumber(d.AccountNumber)
}

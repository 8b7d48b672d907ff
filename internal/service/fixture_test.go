package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/storage"
)

type fixture struct {
	store       *memStore
	pub         *recordingPublisher
	files       *storage.MockStorageService
	ledger      *ledgerService
	investments *investmentService
	payouts     *payoutService
	deposits    *depositService
	withdrawals *withdrawalService
	categories  CategoryService
	txs         TransactionService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	s := newMemStore()
	pub := &recordingPublisher{}

	files, err := storage.NewMockStorageService("http://localhost:8080", t.TempDir())
	require.NoError(t, err)

	ledger := NewLedgerService(s, s.balances()).(*ledgerService)
	ledger.now = fixedClock(now)

	investments := NewInvestmentService(s, s.investments(), s.balances(), ledger, pub).(*investmentService)
	investments.now = fixedClock(now)

	payouts := NewPayoutService(s, s.investments(), s.balances(), s.transactions(), ledger, pub).(*payoutService)

	deposits := NewDepositService(s, s.categories(), s.investments(), s.balances(), s.transactions(),
		ledger, investments, files,
		ProofPolicy{AllowedTypes: []string{"image/jpeg", "image/png", "application/pdf"}, URLExpiry: 15 * time.Minute},
		domain.BankDetails{BankName: "Zenith Bank", AccountName: "InvestLedger Ltd", AccountNumber: "1010101010"},
		pub).(*depositService)
	deposits.now = fixedClock(now)

	withdrawals := NewWithdrawalService(s, s.categories(), s.investments(), s.balances(), s.transactions(),
		ledger, NewPenaltyCalculator(d("0.05")), pub).(*withdrawalService)
	withdrawals.now = fixedClock(now)

	return &fixture{
		store:       s,
		pub:         pub,
		files:       files,
		ledger:      ledger,
		investments: investments,
		payouts:     payouts,
		deposits:    deposits,
		withdrawals: withdrawals,
		categories:  NewCategoryService(s.categories()),
		txs:         NewTransactionService(s.transactions(), deposits, withdrawals),
	}
}

// silverCategory is a 6 month tier paying 5% a month on 100k..5M.
func silverCategory() *domain.InvestmentCategory {
	return &domain.InvestmentCategory{
		Code:           "SILVER",
		Name:           "Silver Plan",
		MinAmount:      d("100000"),
		MaxAmount:      d("5000000"),
		MonthlyROIRate: d("0.05"),
		DurationMonths: 6,
		IsActive:       true,
	}
}

func jan1() time.Time {
	return time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
}

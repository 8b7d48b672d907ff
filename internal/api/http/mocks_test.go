package http

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"investledger-backend/internal/config"
	"investledger-backend/internal/domain"
	"investledger-backend/internal/jobs"
	"investledger-backend/internal/security"
	"investledger-backend/internal/service"
)

const (
	testSecret  = "test-secret"
	testCronKey = "cron-key"
)

type MockCategoryService struct {
	mock.Mock
}

func (m *MockCategoryService) CreateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) error {
	args := m.Called(ctx, actor, cat)
	return args.Error(0)
}

func (m *MockCategoryService) UpdateCategory(ctx context.Context, actor domain.Actor, cat *domain.InvestmentCategory) (*domain.InvestmentCategory, error) {
	args := m.Called(ctx, actor, cat)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvestmentCategory), args.Error(1)
}

func (m *MockCategoryService) SetCategoryActive(ctx context.Context, actor domain.Actor, id int64, active bool) error {
	args := m.Called(ctx, actor, id, active)
	return args.Error(0)
}

func (m *MockCategoryService) ListCategories(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.InvestmentCategory), args.Error(1)
}

type MockInvestmentService struct {
	mock.Mock
	service.InvestmentService
}

func (m *MockInvestmentService) GetInvestment(ctx context.Context, actor domain.Actor, id int64) (*service.InvestmentView, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.InvestmentView), args.Error(1)
}

func (m *MockInvestmentService) Pause(ctx context.Context, actor domain.Actor, id int64) (*domain.Investment, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Investment), args.Error(1)
}

type MockDepositService struct {
	mock.Mock
	service.DepositService
}

func (m *MockDepositService) CreateDeposit(ctx context.Context, actor domain.Actor, req service.DepositRequest) (*service.DepositReceipt, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DepositReceipt), args.Error(1)
}

func (m *MockDepositService) ProofUploadURL(ctx context.Context, actor domain.Actor, transactionID int64, contentType string) (*service.ProofUpload, error) {
	args := m.Called(ctx, actor, transactionID, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ProofUpload), args.Error(1)
}

type MockWithdrawalService struct {
	mock.Mock
	service.WithdrawalService
}

func (m *MockWithdrawalService) RequestWithdrawal(ctx context.Context, actor domain.Actor, req service.WithdrawalRequest) (*service.WithdrawalReceipt, error) {
	args := m.Called(ctx, actor, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WithdrawalReceipt), args.Error(1)
}

func (m *MockWithdrawalService) QuoteWithdrawal(ctx context.Context, actor domain.Actor, investmentID int64, amount decimal.Decimal, early bool) (*service.WithdrawalQuote, error) {
	args := m.Called(ctx, actor, investmentID, amount, early)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.WithdrawalQuote), args.Error(1)
}

type MockTransactionService struct {
	mock.Mock
	service.TransactionService
}

func (m *MockTransactionService) Approve(ctx context.Context, actor domain.Actor, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockTransactionService) ListTransactions(ctx context.Context, actor domain.Actor, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	args := m.Called(ctx, actor, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Transaction), args.Int(1), args.Error(2)
}

type MockPayoutTrigger struct {
	mock.Mock
}

func (m *MockPayoutTrigger) RunROIPayout(ctx context.Context) (*jobs.PayoutRunSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jobs.PayoutRunSummary), args.Error(1)
}

type testServer struct {
	categories   *MockCategoryService
	investments  *MockInvestmentService
	deposits     *MockDepositService
	withdrawals  *MockWithdrawalService
	transactions *MockTransactionService
	payouts      *MockPayoutTrigger
	tokens       security.TokenManager
	router       http.Handler
}

func newTestServer(t *testing.T, proofs *ProofStorageHandler) *testServer {
	t.Helper()
	s := &testServer{
		categories:   new(MockCategoryService),
		investments:  new(MockInvestmentService),
		deposits:     new(MockDepositService),
		withdrawals:  new(MockWithdrawalService),
		transactions: new(MockTransactionService),
		payouts:      new(MockPayoutTrigger),
		tokens:       security.NewTokenManager(testSecret, ""),
	}
	h := NewHandler(&Services{
		Categories:   s.categories,
		Investments:  s.investments,
		Deposits:     s.deposits,
		Withdrawals:  s.withdrawals,
		Transactions: s.transactions,
		Payouts:      s.payouts,
	})
	s.router = NewRouter(h, NewAuthMiddleware(s.tokens, testCronKey), RouterOptions{
		Server: config.ServerConfig{MaxBodyBytes: 1 << 20},
		Proofs: proofs,
	})
	return s
}

func (s *testServer) token(t *testing.T, userID int64, roles ...string) string {
	t.Helper()
	tok, err := s.tokens.GenerateAccessToken(userID, "", roles, time.Hour)
	require.NoError(t, err)
	return tok
}

func actorWithID(id int64) interface{} {
	return mock.MatchedBy(func(a domain.Actor) bool { return a.UserID == id })
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investledger-backend/internal/domain"
)

var transactionCols = []string{"id", "reference", "user_id", "investment_id", "type", "status", "amount", "proof_url", "description", "early_withdrawal", "roi_period", "processed_by", "processed_at", "created_at", "updated_at"}

func TestTransactionRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)
	now := time.Now()
	invID := int64(11)
	period := 1

	tx := &domain.Transaction{
		Reference:    "9f1c1f0e-8a4b-4c47-9a0e-0c1c6b7c2d11",
		UserID:       7,
		InvestmentID: &invID,
		Type:         domain.TransactionTypeInterest,
		Status:       domain.TransactionStatusPaid,
		Amount:       decimal.NewFromInt(50000),
		Description:  "ROI payout for period 1",
		ROIPeriod:    &period,
		ProcessedAt:  &now,
	}

	mock.ExpectQuery("INSERT INTO transactions").
		WithArgs(tx.Reference, int64(7), int64(11), "INTEREST", "PAID", sqlmock.AnyArg(), nil,
			"ROI payout for period 1", false, int64(1), nil, now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(100, now, now))

	err := repo.Create(context.Background(), tx)
	assert.NoError(t, err)
	assert.Equal(t, int64(100), tx.ID)
}

func TestTransactionRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE id = \\$1").
		WithArgs(int64(100)).
		WillReturnRows(sqlmock.NewRows(transactionCols).
			AddRow(100, "ref", 7, 11, "WITHDRAWAL", "PENDING", "1020000.00", nil, "Early withdrawal", true, nil, nil, nil, now, now))

	tx, err := repo.GetByID(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionTypeWithdrawal, tx.Type)
	assert.True(t, tx.EarlyWithdrawal)
	require.NotNil(t, tx.InvestmentID)
	assert.Equal(t, int64(11), *tx.InvestmentID)
	assert.Nil(t, tx.ROIPeriod)
	assert.Nil(t, tx.ProcessedAt)
	assert.True(t, decimal.NewFromInt(1020000).Equal(tx.Amount))
}

func TestTransactionRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	now := time.Now()
	admin := int64(1)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions SET status = \\$1").
			WithArgs("APPROVED", int64(1), now, int64(100), "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(ctx, 100, domain.TransactionStatusPending, domain.TransactionStatusApproved, &admin, now)
		assert.NoError(t, err)
	})

	t.Run("Already processed", func(t *testing.T) {
		mock.ExpectExec("UPDATE transactions SET status = \\$1").
			WithArgs("APPROVED", int64(1), now, int64(100), "PENDING").
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(ctx, 100, domain.TransactionStatusPending, domain.TransactionStatusApproved, &admin, now)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})
}

func TestTransactionRepository_List(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM transactions WHERE user_id = \\$1 AND type = \\$2").
		WithArgs(int64(7), "INTEREST").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT (.+) FROM transactions WHERE user_id = \\$1 AND type = \\$2 ORDER BY created_at DESC, id DESC LIMIT \\$3 OFFSET \\$4").
		WithArgs(int64(7), "INTEREST", 2, 2).
		WillReturnRows(sqlmock.NewRows(transactionCols).
			AddRow(103, "ref-3", 7, 11, "INTEREST", "PAID", "50000.00", nil, "ROI payout for period 3", false, 3, nil, now, now, now))

	txs, total, err := repo.List(context.Background(), domain.TransactionFilter{
		UserID:   7,
		Type:     domain.TransactionTypeInterest,
		Page:     2,
		PageSize: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, txs, 1)
	require.NotNil(t, txs[0].ROIPeriod)
	assert.Equal(t, 3, *txs[0].ROIPeriod)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepository_WithdrawalDetailAndPenalty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO withdrawal_details").
		WithArgs(int64(100), "GTBank", "Ada Obi", "1234567890").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO withdrawal_penalties").
		WithArgs(int64(100), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.CreateWithdrawalDetail(ctx, &domain.WithdrawalDetail{
		TransactionID: 100, BankName: "GTBank", AccountHolderName: "Ada Obi", AccountNumber: "1234567890",
	}))
	require.NoError(t, repo.CreatePenalty(ctx, &domain.WithdrawalPenalty{
		TransactionID: 100, Percentage: decimal.NewFromInt(5), Amount: decimal.NewFromInt(50000),
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

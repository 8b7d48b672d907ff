package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
)

func depositFixture(t *testing.T) (*fixture, context.Context) {
	t.Helper()
	f := newFixture(t, jan1())
	ctx := context.Background()
	require.NoError(t, f.categories.CreateCategory(ctx, admin, silverCategory()))
	return f, ctx
}

func TestDepositService_CreateDeposit(t *testing.T) {
	f, ctx := depositFixture(t)

	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "silver", Amount: d("1000000")})
	require.NoError(t, err)

	assert.Equal(t, domain.TransactionTypeDeposit, receipt.Transaction.Type)
	assert.Equal(t, domain.TransactionStatusPending, receipt.Transaction.Status)
	assert.True(t, receipt.Transaction.Amount.Equal(d("1000000")))
	assert.NotEmpty(t, receipt.Transaction.Reference)
	assert.Equal(t, "Deposit into Silver Plan", receipt.Transaction.Description)
	assert.Equal(t, "Zenith Bank", receipt.BankDetails.BankName)

	inv := f.store.investment(receipt.Investment.ID)
	assert.Equal(t, domain.InvestmentStatusPendingPayment, inv.Status)
	assert.True(t, inv.ROIRateSnapshot.Equal(d("5")))
	assert.Equal(t, 6, inv.DurationMonths)
	assert.Nil(t, inv.StartDate)

	bal := f.store.balance(inv.ID)
	assert.True(t, bal.PrincipalLocked.IsZero())
	assert.Equal(t, []events.Type{events.DepositCreated}, f.pub.types())
}

func TestDepositService_CreateDepositValidation(t *testing.T) {
	f, ctx := depositFixture(t)

	tests := []struct {
		name  string
		actor domain.Actor
		req   DepositRequest
		check func(t *testing.T, err error)
	}{
		{"below band", investor, DepositRequest{CategoryCode: "SILVER", Amount: d("99999.99")}, validationOn("amount")},
		{"above band", investor, DepositRequest{CategoryCode: "SILVER", Amount: d("5000000.01")}, validationOn("amount")},
		{"sub-kobo amount", investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000.001")}, validationOn("amount")},
		{"unknown category", investor, DepositRequest{CategoryCode: "GOLD", Amount: d("100000")}, validationOn("investment_category_code")},
		{"missing category", investor, DepositRequest{Amount: d("100000")}, validationOn("investment_category_code")},
		{"anonymous", domain.Actor{}, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")}, func(t *testing.T, err error) {
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.deposits.CreateDeposit(ctx, tt.actor, tt.req)
			tt.check(t, err)
		})
	}

	invs, bals, txs := f.store.count()
	assert.Zero(t, invs)
	assert.Zero(t, bals)
	assert.Zero(t, txs)
}

func TestDepositService_InactiveCategory(t *testing.T) {
	f, ctx := depositFixture(t)
	cat, err := f.store.categories().GetByCode(ctx, "SILVER")
	require.NoError(t, err)
	require.NoError(t, f.categories.SetCategoryActive(ctx, admin, cat.ID, false))

	_, err = f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")})
	validationOn("investment_category_code")(t, err)
}

func TestDepositService_ApproveActivates(t *testing.T) {
	f, ctx := depositFixture(t)
	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("1000000")})
	require.NoError(t, err)
	txID := receipt.Transaction.ID
	invID := receipt.Investment.ID

	t.Run("investors cannot approve", func(t *testing.T) {
		_, err := f.deposits.ApproveDeposit(ctx, investor, txID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	tx, err := f.deposits.ApproveDeposit(ctx, admin, txID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusApproved, tx.Status)
	require.NotNil(t, tx.ProcessedBy)
	assert.Equal(t, admin.UserID, *tx.ProcessedBy)

	inv := f.store.investment(invID)
	assert.Equal(t, domain.InvestmentStatusActive, inv.Status)
	require.NotNil(t, inv.StartDate)
	assert.Equal(t, jan1(), *inv.StartDate)
	assert.Equal(t, time.Date(2024, time.July, 1, 0, 0, 0, 0, time.UTC), *inv.EndDate)

	bal := f.store.balance(invID)
	assert.True(t, bal.PrincipalLocked.Equal(d("1000000")))
	assert.True(t, bal.TotalDeposited.Equal(d("1000000")))
	assert.True(t, bal.AvailableBalance.IsZero())

	t.Run("second approval is refused", func(t *testing.T) {
		_, err := f.deposits.ApproveDeposit(ctx, admin, txID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		assert.True(t, f.store.balance(invID).PrincipalLocked.Equal(d("1000000")))
	})

	assert.Contains(t, f.pub.types(), events.DepositApproved)
}

func TestDepositService_ApproveRefusesNonPendingInvestment(t *testing.T) {
	f, ctx := depositFixture(t)
	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")})
	require.NoError(t, err)

	_, err = f.investments.Cancel(ctx, admin, receipt.Investment.ID)
	require.NoError(t, err)

	_, err = f.deposits.ApproveDeposit(ctx, admin, receipt.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// Nothing from the failed approval sticks.
	assert.Equal(t, domain.TransactionStatusPending, f.store.transaction(receipt.Transaction.ID).Status)
	assert.True(t, f.store.balance(receipt.Investment.ID).PrincipalLocked.IsZero())
}

func TestDepositService_Reject(t *testing.T) {
	f, ctx := depositFixture(t)
	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")})
	require.NoError(t, err)

	tx, err := f.deposits.RejectDeposit(ctx, admin, receipt.Transaction.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransactionStatusRejected, tx.Status)
	assert.Equal(t, domain.InvestmentStatusRejected, f.store.investment(receipt.Investment.ID).Status)

	_, err = f.deposits.ApproveDeposit(ctx, admin, receipt.Transaction.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestDepositService_ProofFlow(t *testing.T) {
	f, ctx := depositFixture(t)
	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")})
	require.NoError(t, err)
	txID := receipt.Transaction.ID

	t.Run("unsupported type", func(t *testing.T) {
		_, err := f.deposits.ProofUploadURL(ctx, investor, txID, "text/html")
		validationOn("content_type")(t, err)
	})

	t.Run("other users", func(t *testing.T) {
		_, err := f.deposits.ProofUploadURL(ctx, stranger, txID, "image/png")
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	upload, err := f.deposits.ProofUploadURL(ctx, investor, txID, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(upload.Key, ".png"))
	assert.Contains(t, upload.UploadURL, "/api/v1/upload/")
	assert.Equal(t, jan1().Add(15*time.Minute), upload.ExpiresAt)

	t.Run("attach before upload", func(t *testing.T) {
		_, err := f.deposits.AttachProof(ctx, investor, txID, upload.Key)
		validationOn("key")(t, err)
	})

	t.Run("foreign key", func(t *testing.T) {
		_, err := f.deposits.AttachProof(ctx, investor, txID, "proofs/99/1/x.png")
		validationOn("key")(t, err)
	})

	require.NoError(t, f.files.SaveFile(upload.Key, strings.NewReader("png-bytes")))
	tx, err := f.deposits.AttachProof(ctx, investor, txID, upload.Key)
	require.NoError(t, err)
	require.NotNil(t, tx.ProofURL)
	assert.Equal(t, upload.Key, *tx.ProofURL)

	url, err := f.deposits.ProofDownloadURL(ctx, admin, txID)
	require.NoError(t, err)
	assert.Contains(t, url, "/api/v1/download/")

	_, err = f.deposits.ProofDownloadURL(ctx, stranger, txID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func validationOn(field string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var ve *domain.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, field, ve.Field)
	}
}

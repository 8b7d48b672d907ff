package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/events"
)

func TestInvestmentService_Transitions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jan1())
	id := f.store.seedActive(investor.UserID, d("500000"), d("5"), 6, jan1())

	_, err := f.investments.Pause(ctx, investor, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	inv, err := f.investments.Pause(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusPaused, inv.Status)

	_, err = f.investments.Pause(ctx, admin, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.investments.Cancel(ctx, admin, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	inv, err = f.investments.Resume(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusActive, inv.Status)
	assert.True(t, f.store.balance(id).PrincipalLocked.Equal(d("500000")))

	inv, err = f.investments.Cancel(ctx, admin, id)
	require.NoError(t, err)
	assert.Equal(t, domain.InvestmentStatusCancelled, inv.Status)

	bal := f.store.balance(id)
	assert.True(t, bal.PrincipalLocked.IsZero())
	assert.True(t, bal.AvailableBalance.Equal(d("500000")))

	_, err = f.investments.Resume(ctx, admin, id)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	assert.Equal(t, 3, len(f.pub.types()))
	for _, typ := range f.pub.types() {
		assert.Equal(t, events.InvestmentStatusChanged, typ)
	}
}

func TestInvestmentService_ResumeDoesNotActivatePending(t *testing.T) {
	f, ctx := depositFixture(t)
	receipt, err := f.deposits.CreateDeposit(ctx, investor, DepositRequest{CategoryCode: "SILVER", Amount: d("100000")})
	require.NoError(t, err)

	_, err = f.investments.Resume(ctx, admin, receipt.Investment.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestInvestmentService_ActivateOnlyOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jan1())
	id := f.store.seedActive(investor.UserID, d("500000"), d("5"), 6, jan1())

	_, err := f.investments.Activate(ctx, id, jan1().AddDate(0, 2, 0))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, jan1(), *f.store.investment(id).StartDate)
}

func TestInvestmentService_Mature(t *testing.T) {
	ctx := context.Background()
	end := time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC)
	f := newFixture(t, end)
	id := f.store.seedActive(investor.UserID, d("100000"), d("5"), 3, jan1())

	matured, err := f.investments.Mature(ctx, id, end)
	require.NoError(t, err)
	assert.False(t, matured, "unpaid periods block maturity")

	inv := f.store.investment(id)
	_, err = f.payouts.ProcessInvestment(ctx, &inv, end)
	require.NoError(t, err)

	matured, err = f.investments.Mature(ctx, id, end)
	require.NoError(t, err)
	assert.True(t, matured)
	assert.Equal(t, domain.InvestmentStatusCompleted, f.store.investment(id).Status)

	bal := f.store.balance(id)
	assert.True(t, bal.PrincipalLocked.IsZero())
	assert.True(t, bal.AvailableBalance.Equal(d("115000")))

	matured, err = f.investments.Mature(ctx, id, end)
	require.NoError(t, err)
	assert.False(t, matured)
}

func TestInvestmentService_Views(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, jan1())
	id := f.store.seedActive(investor.UserID, d("500000"), d("5"), 6, jan1())

	view, err := f.investments.GetInvestment(ctx, investor, id)
	require.NoError(t, err)
	assert.Equal(t, id, view.Investment.ID)
	assert.True(t, view.Balance.PrincipalLocked.Equal(d("500000")))

	_, err = f.investments.GetInvestment(ctx, stranger, id)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.investments.GetInvestment(ctx, admin, id)
	assert.NoError(t, err)

	mine, err := f.investments.ListMyInvestments(ctx, investor)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	theirs, err := f.investments.ListMyInvestments(ctx, stranger)
	require.NoError(t, err)
	assert.Empty(t, theirs)
}

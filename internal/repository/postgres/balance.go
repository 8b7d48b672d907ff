package postgres

import (
	"context"
	"database/sql"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/repository"
)

type balanceRepository struct {
	db *sql.DB
}

func NewBalanceRepository(db *sql.DB) repository.BalanceRepository {
	return &balanceRepository{db: db}
}

const balanceColumns = `investment_id, principal_locked, total_deposited, total_withdrawn, roi_accrued, available_balance, last_computed_at`

func scanBalance(row scanner) (*domain.InvestorBalance, error) {
	var b domain.InvestorBalance
	err := row.Scan(&b.InvestmentID, &b.PrincipalLocked, &b.TotalDeposited, &b.TotalWithdrawn,
		&b.ROIAccrued, &b.AvailableBalance, &b.LastComputedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *balanceRepository) Create(ctx context.Context, bal *domain.InvestorBalance) error {
	query := `INSERT INTO investor_balances (investment_id, principal_locked, total_deposited, total_withdrawn, roi_accrued, available_balance)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING last_computed_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		bal.InvestmentID, bal.PrincipalLocked, bal.TotalDeposited, bal.TotalWithdrawn, bal.ROIAccrued, bal.AvailableBalance,
	).Scan(&bal.LastComputedAt)
	return mapError(err)
}

func (r *balanceRepository) GetByInvestmentID(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM investor_balances WHERE investment_id = $1`
	return scanBalance(conn(ctx, r.db).QueryRowContext(ctx, query, investmentID))
}

func (r *balanceRepository) GetForUpdate(ctx context.Context, investmentID int64) (*domain.InvestorBalance, error) {
	query := `SELECT ` + balanceColumns + ` FROM investor_balances WHERE investment_id = $1 FOR UPDATE`
	return scanBalance(conn(ctx, r.db).QueryRowContext(ctx, query, investmentID))
}

func (r *balanceRepository) Update(ctx context.Context, bal *domain.InvestorBalance) error {
	query := `UPDATE investor_balances
	          SET principal_locked = $1, total_deposited = $2, total_withdrawn = $3, roi_accrued = $4,
	              available_balance = $5, last_computed_at = $6
	          WHERE investment_id = $7`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		bal.PrincipalLocked, bal.TotalDeposited, bal.TotalWithdrawn, bal.ROIAccrued,
		bal.AvailableBalance, bal.LastComputedAt, bal.InvestmentID)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

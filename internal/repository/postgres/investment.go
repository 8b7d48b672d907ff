package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
)

type investmentRepository struct {
	db *sql.DB
}

func NewInvestmentRepository(db *sql.DB) repository.InvestmentRepository {
	return &investmentRepository{db: db}
}

const investmentColumns = `id, user_id, category_id, principal_amount, roi_rate_snapshot, duration_months, status, start_date, end_date, last_roi_period_paid, created_at, updated_at`

func scanInvestment(row scanner) (*domain.Investment, error) {
	var inv domain.Investment
	var start, end sql.NullTime
	err := row.Scan(&inv.ID, &inv.UserID, &inv.CategoryID, &inv.PrincipalAmount, &inv.ROIRateSnapshot,
		&inv.DurationMonths, &inv.Status, &start, &end, &inv.LastROIPeriodPaid, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if start.Valid {
		t := start.Time.UTC()
		inv.StartDate = &t
	}
	if end.Valid {
		t := end.Time.UTC()
		inv.EndDate = &t
	}
	return &inv, nil
}

func (r *investmentRepository) Create(ctx context.Context, inv *domain.Investment) error {
	query := `INSERT INTO investments (user_id, category_id, principal_amount, roi_rate_snapshot, duration_months, status, last_roi_period_paid)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		inv.UserID, inv.CategoryID, inv.PrincipalAmount, inv.ROIRateSnapshot, inv.DurationMonths, inv.Status, inv.LastROIPeriodPaid,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	return mapError(err)
}

func (r *investmentRepository) GetByID(ctx context.Context, id int64) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1`
	return scanInvestment(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *investmentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1 FOR UPDATE`
	return scanInvestment(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *investmentRepository) list(ctx context.Context, query string, arg any) ([]domain.Investment, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, arg)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var invs []domain.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		invs = append(invs, *inv)
	}
	return invs, mapError(rows.Err())
}

func (r *investmentRepository) ListByUser(ctx context.Context, userID int64) ([]domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *investmentRepository) ListByStatus(ctx context.Context, status domain.InvestmentStatus) ([]domain.Investment, error) {
	query := `SELECT ` + investmentColumns + ` FROM investments WHERE status = $1 ORDER BY id ASC`
	return r.list(ctx, query, status)
}

func (r *investmentRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.InvestmentStatus) error {
	query := `UPDATE investments SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: investment %d is not %s", domain.ErrInvalidTransition, id, from)
	}
	return nil
}

func (r *investmentRepository) Activate(ctx context.Context, id int64, start, end time.Time) error {
	query := `UPDATE investments SET status = $1, start_date = $2, end_date = $3, updated_at = NOW()
	          WHERE id = $4 AND status = $5 AND start_date IS NULL`
	res, err := conn(ctx, r.db).ExecContext(ctx, query,
		domain.InvestmentStatusActive, start, end, id, domain.InvestmentStatusPendingPayment)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: investment %d is not awaiting payment", domain.ErrInvalidTransition, id)
	}
	return nil
}

func (r *investmentRepository) AdvanceROIPeriod(ctx context.Context, id int64, period int) error {
	query := `UPDATE investments SET last_roi_period_paid = $1, updated_at = NOW()
	          WHERE id = $2 AND last_roi_period_paid = $3`
	logger.DatabaseCall("AdvanceROIPeriod", query, "investment_id", id, "period", period)
	res, err := conn(ctx, r.db).ExecContext(ctx, query, period, id, period-1)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	logger.DatabaseResult("AdvanceROIPeriod", n, err)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: investment %d counter is not at period %d", domain.ErrIntegrity, id, period-1)
	}
	return nil
}

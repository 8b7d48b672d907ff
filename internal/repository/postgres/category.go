package postgres

import (
	"context"
	"database/sql"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/repository"
)

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `id, code, name, min_amount, max_amount, monthly_roi_rate, duration_months, priority, is_active, early_withdrawal_penalty_rate, created_at, updated_at`

func scanCategory(row scanner) (*domain.InvestmentCategory, error) {
	var c domain.InvestmentCategory
	err := row.Scan(&c.ID, &c.Code, &c.Name, &c.MinAmount, &c.MaxAmount, &c.MonthlyROIRate,
		&c.DurationMonths, &c.Priority, &c.IsActive, &c.EarlyWithdrawalPenaltyRate, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &c, nil
}

func (r *categoryRepository) Create(ctx context.Context, cat *domain.InvestmentCategory) error {
	query := `INSERT INTO investment_categories (code, name, min_amount, max_amount, monthly_roi_rate, duration_months, priority, is_active, early_withdrawal_penalty_rate)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		cat.Code, cat.Name, cat.MinAmount, cat.MaxAmount, cat.MonthlyROIRate,
		cat.DurationMonths, cat.Priority, cat.IsActive, cat.EarlyWithdrawalPenaltyRate,
	).Scan(&cat.ID, &cat.CreatedAt, &cat.UpdatedAt)
	return mapError(err)
}

func (r *categoryRepository) GetByID(ctx context.Context, id int64) (*domain.InvestmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM investment_categories WHERE id = $1`
	return scanCategory(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *categoryRepository) GetByCode(ctx context.Context, code string) (*domain.InvestmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM investment_categories WHERE code = $1`
	return scanCategory(conn(ctx, r.db).QueryRowContext(ctx, query, code))
}

func (r *categoryRepository) Update(ctx context.Context, cat *domain.InvestmentCategory) error {
	query := `UPDATE investment_categories
	          SET name = $1, min_amount = $2, max_amount = $3, monthly_roi_rate = $4, duration_months = $5,
	              priority = $6, early_withdrawal_penalty_rate = $7, updated_at = NOW()
	          WHERE id = $8 RETURNING updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		cat.Name, cat.MinAmount, cat.MaxAmount, cat.MonthlyROIRate, cat.DurationMonths,
		cat.Priority, cat.EarlyWithdrawalPenaltyRate, cat.ID,
	).Scan(&cat.UpdatedAt)
	return mapError(err)
}

func (r *categoryRepository) SetActive(ctx context.Context, id int64, active bool) error {
	query := `UPDATE investment_categories SET is_active = $1, updated_at = NOW() WHERE id = $2`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, active, id)
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

func (r *categoryRepository) List(ctx context.Context, activeOnly bool) ([]domain.InvestmentCategory, error) {
	query := `SELECT ` + categoryColumns + ` FROM investment_categories`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY priority ASC, min_amount ASC`

	rows, err := conn(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var cats []domain.InvestmentCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		cats = append(cats, *c)
	}
	return cats, mapError(rows.Err())
}

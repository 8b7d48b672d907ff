package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/repository"
)

type transactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

const transactionColumns = `id, reference, user_id, investment_id, type, status, amount, proof_url, description, early_withdrawal, roi_period, processed_by, processed_at, created_at, updated_at`

func scanTransaction(row scanner) (*domain.Transaction, error) {
	var t domain.Transaction
	var investmentID, processedBy sql.NullInt64
	var proofURL sql.NullString
	var roiPeriod sql.NullInt32
	var processedAt sql.NullTime
	err := row.Scan(&t.ID, &t.Reference, &t.UserID, &investmentID, &t.Type, &t.Status, &t.Amount, &proofURL,
		&t.Description, &t.EarlyWithdrawal, &roiPeriod, &processedBy, &processedAt, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	if investmentID.Valid {
		t.InvestmentID = &investmentID.Int64
	}
	if proofURL.Valid {
		t.ProofURL = &proofURL.String
	}
	if roiPeriod.Valid {
		p := int(roiPeriod.Int32)
		t.ROIPeriod = &p
	}
	if processedBy.Valid {
		t.ProcessedBy = &processedBy.Int64
	}
	if processedAt.Valid {
		t.ProcessedAt = &processedAt.Time
	}
	return &t, nil
}

func (r *transactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	var roiPeriod sql.NullInt32
	if tx.ROIPeriod != nil {
		roiPeriod = sql.NullInt32{Int32: int32(*tx.ROIPeriod), Valid: true}
	}
	var proofURL sql.NullString
	if tx.ProofURL != nil {
		proofURL = sql.NullString{String: *tx.ProofURL, Valid: true}
	}
	var processedAt sql.NullTime
	if tx.ProcessedAt != nil {
		processedAt = sql.NullTime{Time: *tx.ProcessedAt, Valid: true}
	}

	query := `INSERT INTO transactions (reference, user_id, investment_id, type, status, amount, proof_url, description, early_withdrawal, roi_period, processed_by, processed_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id, created_at, updated_at`
	err := conn(ctx, r.db).QueryRowContext(ctx, query,
		tx.Reference, tx.UserID, nullInt64(tx.InvestmentID), tx.Type, tx.Status, tx.Amount, proofURL,
		tx.Description, tx.EarlyWithdrawal, roiPeriod, nullInt64(tx.ProcessedBy), processedAt,
	).Scan(&tx.ID, &tx.CreatedAt, &tx.UpdatedAt)
	return mapError(err)
}

func (r *transactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *transactionRepository) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE`
	return scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query, id))
}

func (r *transactionRepository) GetByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE reference = $1`
	return scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query, reference))
}

func (r *transactionRepository) FindPendingDeposit(ctx context.Context, investmentID int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions
	          WHERE investment_id = $1 AND type = $2 AND status = $3
	          ORDER BY id DESC LIMIT 1`
	return scanTransaction(conn(ctx, r.db).QueryRowContext(ctx, query,
		investmentID, domain.TransactionTypeDeposit, domain.TransactionStatusPending))
}

func (r *transactionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.TransactionStatus, processedBy *int64, processedAt time.Time) error {
	query := `UPDATE transactions SET status = $1, processed_by = $2, processed_at = $3, updated_at = NOW()
	          WHERE id = $4 AND status = $5`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, to, nullInt64(processedBy), processedAt, id, from)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return fmt.Errorf("%w: transaction %d is not %s", domain.ErrInvalidTransition, id, from)
	}
	return nil
}

func (r *transactionRepository) SetProofURL(ctx context.Context, id int64, proofURL string) error {
	query := `UPDATE transactions SET proof_url = $1, updated_at = NOW() WHERE id = $2`
	res, err := conn(ctx, r.db).ExecContext(ctx, query, proofURL, id)
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

func (r *transactionRepository) List(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, int, error) {
	filter.Normalize()

	var where []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if filter.UserID != 0 {
		add("user_id = $%d", filter.UserID)
	}
	if filter.InvestmentID != 0 {
		add("investment_id = $%d", filter.InvestmentID)
	}
	if filter.Type != "" {
		add("type = $%d", filter.Type)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}

	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	countQuery := `SELECT count(*) FROM transactions` + clause
	if err := conn(ctx, r.db).QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, mapError(err)
	}

	offset := (filter.Page - 1) * filter.PageSize
	query := fmt.Sprintf(`SELECT %s FROM transactions%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		transactionColumns, clause, len(args)+1, len(args)+2)
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, append(args, filter.PageSize, offset)...)
	if err != nil {
		return nil, 0, mapError(err)
	}
	defer rows.Close()

	var txs []domain.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, err
		}
		txs = append(txs, *t)
	}
	return txs, total, mapError(rows.Err())
}

func (r *transactionRepository) CreateWithdrawalDetail(ctx context.Context, detail *domain.WithdrawalDetail) error {
	query := `INSERT INTO withdrawal_details (transaction_id, bank_name, account_holder_name, account_number) VALUES ($1, $2, $3, $4)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, detail.TransactionID, detail.BankName, detail.AccountHolderName, detail.AccountNumber)
	return mapError(err)
}

func (r *transactionRepository) GetWithdrawalDetail(ctx context.Context, transactionID int64) (*domain.WithdrawalDetail, error) {
	var d domain.WithdrawalDetail
	query := `SELECT transaction_id, bank_name, account_holder_name, account_number FROM withdrawal_details WHERE transaction_id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, transactionID).Scan(&d.TransactionID, &d.BankName, &d.AccountHolderName, &d.AccountNumber)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

func (r *transactionRepository) CreatePenalty(ctx context.Context, penalty *domain.WithdrawalPenalty) error {
	query := `INSERT INTO withdrawal_penalties (transaction_id, percentage, amount) VALUES ($1, $2, $3)`
	_, err := conn(ctx, r.db).ExecContext(ctx, query, penalty.TransactionID, penalty.Percentage, penalty.Amount)
	return mapError(err)
}

func (r *transactionRepository) GetPenalty(ctx context.Context, transactionID int64) (*domain.WithdrawalPenalty, error) {
	var p domain.WithdrawalPenalty
	query := `SELECT transaction_id, percentage, amount FROM withdrawal_penalties WHERE transaction_id = $1`
	err := conn(ctx, r.db).QueryRowContext(ctx, query, transactionID).Scan(&p.TransactionID, &p.Percentage, &p.Amount)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
	"investledger-backend/internal/repository"
)

type Store struct {
	db *sql.DB
	repository.CategoryRepository
	repository.InvestmentRepository
	repository.BalanceRepository
	repository.TransactionRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                    db,
		CategoryRepository:    NewCategoryRepository(db),
		InvestmentRepository:  NewInvestmentRepository(db),
		BalanceRepository:     NewBalanceRepository(db),
		TransactionRepository: NewTransactionRepository(db),
	}
}

// DB exposes the underlying pool for jobs and the lock.
func (s *Store) DB() *sql.DB {
	return s.db
}

type txKey struct{}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn returns the transaction carried by ctx, or db.
func conn(ctx context.Context, db *sql.DB) querier {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// WithinTx implements repository.Transactor.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return fn(ctx)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return mapError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("Failed to roll back transaction", "error", rbErr, "cause", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStore, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Constraint == "investment_categories_code_key":
			return domain.NewValidationError("code", "already exists")
		case pqErr.Code.Class() == "08", // connection exception
			pqErr.Code.Class() == "40", // serialization failure, deadlock
			pqErr.Code.Class() == "53", // insufficient resources
			pqErr.Code.Class() == "57": // operator intervention
			return fmt.Errorf("%w: %s", domain.ErrTransientStore, pqErr.Message)
		case pqErr.Code.Class() == "23": // integrity constraint violation
			return fmt.Errorf("%w: %s", domain.ErrIntegrity, pqErr.Message)
		}
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

package lock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"investledger-backend/internal/domain"
	"investledger-backend/internal/logger"
)

// PostgresLocker keeps leases as rows in cron_locks. A row whose locked_at is
// older than the ttl is stale and is taken over by the next Acquire.
type PostgresLocker struct {
	db    *sql.DB
	owner string
}

func NewPostgresLocker(db *sql.DB) *PostgresLocker {
	return &PostgresLocker{db: db, owner: uuid.NewString()}
}

// Owner identifies this process in cron_locks.owner.
func (l *PostgresLocker) Owner() string {
	return l.owner
}

func (l *PostgresLocker) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	query := `INSERT INTO cron_locks (name, locked_at, owner) VALUES ($1, NOW(), $2)
	          ON CONFLICT (name) DO UPDATE SET locked_at = NOW(), owner = EXCLUDED.owner
	          WHERE cron_locks.locked_at < NOW() - $3::interval
	          RETURNING name`

	logger.DatabaseCall("AcquireLock", query, "name", name, "owner", l.owner, "ttl", ttl)
	var got string
	err := l.db.QueryRowContext(ctx, query, name, l.owner, interval(ttl)).Scan(&got)
	if errors.Is(err, sql.ErrNoRows) {
		logger.Info("Lock held elsewhere", "name", name)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: acquire %s: %v", domain.ErrTransientStore, name, err)
	}
	return true, nil
}

func (l *PostgresLocker) Release(ctx context.Context, name string) error {
	query := `DELETE FROM cron_locks WHERE name = $1 AND owner = $2`
	res, err := l.db.ExecContext(ctx, query, name, l.owner)
	if err != nil {
		return fmt.Errorf("%w: release %s: %v", domain.ErrTransientStore, name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		logger.Warn("Lock was not held on release", "name", name, "owner", l.owner)
	}
	return nil
}

// Inspect returns the current lease row for name.
func (l *PostgresLocker) Inspect(ctx context.Context, name string) (*domain.CronLock, error) {
	var cl domain.CronLock
	query := `SELECT name, locked_at, owner FROM cron_locks WHERE name = $1`
	err := l.db.QueryRowContext(ctx, query, name).Scan(&cl.Name, &cl.LockedAt, &cl.Owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cl, nil
}

func interval(ttl time.Duration) string {
	return fmt.Sprintf("%d milliseconds", ttl.Milliseconds())
}

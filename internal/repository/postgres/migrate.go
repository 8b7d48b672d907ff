package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"investledger-backend/internal/logger"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Safe to run on every start.
func Migrate(ctx context.Context, db *sql.DB) error {
	logger.DatabaseCall("Migrate", "schema.sql")
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		logger.DatabaseResult("Migrate", 0, err)
		return fmt.Errorf("failed to apply schema: %w", mapError(err))
	}
	logger.Info("Database schema is up to date")
	return nil
}

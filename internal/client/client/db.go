package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/avolkovs/pennywise/internal/client/migrations"
	"github.com/avolkovs/pennywise/internal/client/repositories/expenses"
	"github.com/avolkovs/pennywise/internal/client/repositories/metadata"
	"github.com/avolkovs/pennywise/internal/client/repositories/subcategories"
	"github.com/avolkovs/pennywise/internal/common"
)

// Repositories bundles the local-store access layer built on a single SQLite
// handle.
type Repositories struct {
	DB            *sql.DB
	Expenses      expenses.Repository
	Subcategories subcategories.Repository
	Metadata      metadata.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the local store and applies migrations. Any failure is
// wrapped in common.ErrStorageUnavailable so callers can degrade to a
// disabled mode instead of crashing.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", common.ErrStorageUnavailable, err)
	}

	return &Repositories{
		DB:            db,
		Expenses:      expenses.NewSQLiteRepository(db),
		Subcategories: subcategories.NewSQLiteRepository(db),
		Metadata:      metadata.NewSQLiteRepository(db),
	}, nil
}

package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"

	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/migrations"
	"github.com/avolkovs/pennywise/internal/server/repositories/expenses"
	"github.com/avolkovs/pennywise/internal/server/repositories/refreshtokens"
	"github.com/avolkovs/pennywise/internal/server/repositories/subcategories"
	"github.com/avolkovs/pennywise/internal/server/repositories/users"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Expenses(db dbx.DBTX) expenses.Repository {
	return expenses.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Subcategories(db dbx.DBTX) subcategories.Repository {
	return subcategories.NewPostgresRepository(db)
}

// OpenDB connects to postgres, waiting out transient startup failures (the
// database container may come up after the server), and applies migrations.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxRetries(5, retry.NewExponential(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return db, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Package expenses provides the PostgreSQL-backed repository for server-side
// expense persistence and sync queries.
package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const expenseColumns = `id, user_id, amount, category, subcategory, date, note, receipt_key, updated_at`

func (r *PostgresRepository) GetByID(ctx context.Context, userID, id string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 AND id = $2`
	row := r.db.QueryRowContext(ctx, query, userID, id)

	var e models.Expense
	err := row.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Subcategory,
		&e.Date, &e.Note, &e.ReceiptKey, &e.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return &e, nil
}

// Insert stores a new expense under the client-supplied id. A conflicting id
// owned by the same user is treated as an update (the client decided on
// create from a stale existence check); an id owned by another user is a
// uniqueness violation.
func (r *PostgresRepository) Insert(ctx context.Context, e *models.Expense) error {
	query := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			category = EXCLUDED.category,
			subcategory = EXCLUDED.subcategory,
			date = EXCLUDED.date,
			note = EXCLUDED.note,
			receipt_key = EXCLUDED.receipt_key,
			updated_at = EXCLUDED.updated_at
		WHERE expenses.user_id = EXCLUDED.user_id
	`
	res, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Amount, e.Category, e.Subcategory, e.Date, e.Note, e.ReceiptKey, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrAlreadyExists
	}
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *models.Expense) error {
	query := `
		UPDATE expenses SET
			amount = $3, category = $4, subcategory = $5, date = $6,
			note = $7, receipt_key = $8, updated_at = $9
		WHERE user_id = $1 AND id = $2
	`
	res, err := r.db.ExecContext(ctx, query,
		e.UserID, e.ID, e.Amount, e.Category, e.Subcategory, e.Date, e.Note, e.ReceiptKey, e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// Delete is idempotent: removing an absent id succeeds.
func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SelectAll(ctx context.Context, userID string) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1`
	return r.selectExpenses(ctx, query, userID)
}

func (r *PostgresRepository) SelectUpdatedSince(ctx context.Context, userID string, sinceMillis int64) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE user_id = $1 AND updated_at > $2`
	return r.selectExpenses(ctx, query, userID, sinceMillis)
}

func (r *PostgresRepository) selectExpenses(ctx context.Context, query string, args ...any) ([]*models.Expense, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.Category, &e.Subcategory,
			&e.Date, &e.Note, &e.ReceiptKey, &e.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

package expenses

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
)

// DateLayout is how expense dates are stored; day granularity is enough for
// the domain and keeps ordering lexicographic.
const DateLayout = "2006-01-02"

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const expenseColumns = `id, amount, category, subcategory, date, note, receipt_key, updated_at, status, has_remote`

func scanExpense(scan func(dest ...any) error) (*models.Expense, error) {
	var (
		e         models.Expense
		amount    string
		date      string
		hasRemote int
	)
	if err := scan(&e.ID, &amount, &e.Category, &e.Subcategory, &date, &e.Note,
		&e.ReceiptKey, &e.UpdatedAt, &e.Status, &hasRemote); err != nil {
		return nil, err
	}
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", amount, err)
	}
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		return nil, fmt.Errorf("bad date %q: %w", date, err)
	}
	e.Amount = a
	e.Date = d
	e.HasRemote = hasRemote != 0
	return &e, nil
}

// GetByID returns the row for id regardless of status, or common.ErrNotFound.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)

	e, err := scanExpense(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}
	return e, nil
}

// Upsert inserts or overwrites a row by id, sync metadata included.
func (r *SQLiteRepository) Upsert(ctx context.Context, e *models.Expense) error {
	query := `INSERT INTO expenses (` + expenseColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			amount = excluded.amount,
			category = excluded.category,
			subcategory = excluded.subcategory,
			date = excluded.date,
			note = excluded.note,
			receipt_key = excluded.receipt_key,
			updated_at = excluded.updated_at,
			status = excluded.status,
			has_remote = excluded.has_remote
	`
	hasRemote := 0
	if e.HasRemote {
		hasRemote = 1
	}
	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.Amount.String(), e.Category, e.Subcategory, e.Date.Format(DateLayout),
		e.Note, e.ReceiptKey, e.UpdatedAt, string(e.Status), hasRemote)
	if err != nil {
		return fmt.Errorf("failed to upsert expense: %w", err)
	}
	return nil
}

// DeleteByID physically removes a row. Deleting an absent id is not an error.
func (r *SQLiteRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return nil
}

// GetByStatus lists all rows in the given sync status.
func (r *SQLiteRepository) GetByStatus(ctx context.Context, status models.SyncStatus) ([]*models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE status = ?`
	rows, err := r.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []*models.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListVisible is the primary read path: everything except soft-deleted rows,
// ordered by domain date descending, most recently touched first within a day.
func (r *SQLiteRepository) ListVisible(ctx context.Context) ([]models.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses
		WHERE status != ? ORDER BY date DESC, updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query, string(models.StatusDeleted))
	if err != nil {
		return nil, fmt.Errorf("failed to select expenses: %w", err)
	}
	defer rows.Close()

	var result []models.Expense
	for rows.Next() {
		e, err := scanExpense(rows.Scan)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByStatus counts rows in any of the given statuses; it backs the
// "pending changes" indicator.
func (r *SQLiteRepository) CountByStatus(ctx context.Context, statuses ...models.SyncStatus) (int, error) {
	if len(statuses) == 0 {
		return 0, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, 0, len(statuses))
	for _, s := range statuses {
		args = append(args, string(s))
	}
	query := `SELECT COUNT(*) FROM expenses WHERE status IN (` + placeholders + `)`

	var count int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return count, nil
}

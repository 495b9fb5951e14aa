package subcategories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/dbx"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Subcategory, error) {
	query := `SELECT id, category, name FROM subcategories ORDER BY category, name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select subcategories: %w", err)
	}
	defer rows.Close()

	var result []models.Subcategory
	for rows.Next() {
		var item models.Subcategory
		if err := rows.Scan(&item.ID, &item.Category, &item.Name); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ReplaceAll swaps the whole cache for the given items in one transaction, so
// a failed refresh leaves the previous copy intact.
func (r *SQLiteRepository) ReplaceAll(ctx context.Context, items []models.Subcategory) error {
	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM subcategories`); err != nil {
			return fmt.Errorf("failed to clear subcategories: %w", err)
		}
		for _, item := range items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO subcategories (id, category, name) VALUES (?, ?, ?)`,
				item.ID, item.Category, item.Name)
			if err != nil {
				return fmt.Errorf("failed to insert subcategory: %w", err)
			}
		}
		return nil
	})
}

package subcategories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/models"
)

// uniqueViolation is the postgres SQLSTATE for unique constraint failures.
const uniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) SelectAll(ctx context.Context, userID string) ([]*models.Subcategory, error) {
	query := `SELECT id, user_id, category, name FROM subcategories
		WHERE user_id = $1 ORDER BY category, name`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to select subcategories: %w", err)
	}
	defer rows.Close()

	var result []*models.Subcategory
	for rows.Next() {
		var item models.Subcategory
		if err := rows.Scan(&item.ID, &item.UserID, &item.Category, &item.Name); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) Insert(ctx context.Context, s *models.Subcategory) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO subcategories (id, user_id, category, name) VALUES ($1, $2, $3, $4)`,
		s.ID, s.UserID, s.Category, s.Name)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, t *models.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token, user_id, expires) VALUES ($1, $2, $3)`,
		t.Token, t.UserID, t.Expires)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.RefreshToken, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT token, user_id, expires FROM refresh_tokens WHERE token = $1`, token)

	var t models.RefreshToken
	err := row.Scan(&t.Token, &t.UserID, &t.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}
	return &t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE token = $1`, token)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

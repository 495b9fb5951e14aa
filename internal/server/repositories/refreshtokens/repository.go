package refreshtokens

import (
	"context"

	"github.com/avolkovs/pennywise/internal/server/models"
)

type Repository interface {
	Add(ctx context.Context, t *models.RefreshToken) error
	Find(ctx context.Context, token string) (*models.RefreshToken, error)
	Delete(ctx context.Context, token string) error
}

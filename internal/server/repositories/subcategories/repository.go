package subcategories

import (
	"context"

	"github.com/avolkovs/pennywise/internal/server/models"
)

type Repository interface {
	SelectAll(ctx context.Context, userID string) ([]*models.Subcategory, error)
	// Insert returns common.ErrAlreadyExists when (category, name) already
	// exists for the user.
	Insert(ctx context.Context, s *models.Subcategory) error
}

package expenses

import (
	"context"

	"github.com/avolkovs/pennywise/internal/server/models"
)

// Repository is the server-side expense store. All queries are scoped to the
// owning user.
type Repository interface {
	GetByID(ctx context.Context, userID, id string) (*models.Expense, error)
	Insert(ctx context.Context, e *models.Expense) error
	Update(ctx context.Context, e *models.Expense) error
	Delete(ctx context.Context, userID, id string) error
	SelectAll(ctx context.Context, userID string) ([]*models.Expense, error)
	// SelectUpdatedSince returns expenses with updated_at strictly greater
	// than sinceMillis.
	SelectUpdatedSince(ctx context.Context, userID string, sinceMillis int64) ([]*models.Expense, error)
}

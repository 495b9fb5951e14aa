package expenses

import (
	"context"

	"github.com/avolkovs/pennywise/internal/client/models"
)

// Repository is the local durable store for expense records. It is the only
// place sync status is persisted; callers above the sync engine never touch
// it directly.
type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Expense, error)
	Upsert(ctx context.Context, e *models.Expense) error
	// DeleteByID physically removes a row. Soft deletes are an Upsert with
	// StatusDeleted.
	DeleteByID(ctx context.Context, id string) error
	GetByStatus(ctx context.Context, status models.SyncStatus) ([]*models.Expense, error)
	// ListVisible returns all rows except soft-deleted ones, newest date
	// first.
	ListVisible(ctx context.Context) ([]models.Expense, error)
	CountByStatus(ctx context.Context, statuses ...models.SyncStatus) (int, error)
}

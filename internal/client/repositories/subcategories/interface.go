package subcategories

import (
	"context"

	"github.com/avolkovs/pennywise/internal/client/models"
)

// Repository caches the externally managed subcategory list. The cache is
// read-only between syncs; ReplaceAll swaps in the authoritative remote copy.
type Repository interface {
	List(ctx context.Context) ([]models.Subcategory, error)
	ReplaceAll(ctx context.Context, items []models.Subcategory) error
}

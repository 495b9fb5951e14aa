package client

import (
	"context"

	"github.com/avolkovs/pennywise/internal/client/models"
)

// Client is the remote record service contract. The sync engine depends on
// this interface only; concrete implementations (the bundled HTTP server, a
// hosted backend, test doubles) are injected at startup.
type Client interface {
	Close() error

	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) error
	Ping(ctx context.Context) error

	ListExpenses(ctx context.Context) ([]models.Expense, error)
	// ListExpensesSince returns expenses changed after the given unix-ms
	// timestamp, bounding transfer size on incremental pulls.
	ListExpensesSince(ctx context.Context, sinceMillis int64) ([]models.Expense, error)
	// GetExpense returns common.ErrNotFound (wrapped) when the id is absent.
	GetExpense(ctx context.Context, id string) (*models.Expense, error)
	// CreateExpense accepts the client-supplied id, preserving identity
	// symmetry between the local and remote copies.
	CreateExpense(ctx context.Context, e *models.Expense) error
	UpdateExpense(ctx context.Context, e *models.Expense) error
	// DeleteExpense is idempotent: deleting an absent id is not an error.
	DeleteExpense(ctx context.Context, id string) error

	ListSubcategories(ctx context.Context) ([]models.Subcategory, error)
	// CreateSubcategory returns common.ErrAlreadyExists on a uniqueness
	// violation.
	CreateSubcategory(ctx context.Context, s models.Subcategory) error

	ReceiptUploadURL(ctx context.Context, expenseID string) (key string, url string, err error)
	ReceiptDownloadURL(ctx context.Context, expenseID string) (string, error)
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/server/models"
	"github.com/avolkovs/pennywise/internal/server/repositories/repomanager"
	"github.com/avolkovs/pennywise/internal/server/storage"
)

// ExpenseService implements the record-service operations the sync engine
// depends on: CRUD with changed-since listing, reference data, and receipt
// URL presigning. Every operation is scoped to the authenticated user.
type ExpenseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	receipts    *storage.ReceiptStorage
}

func NewExpenseService(db *sql.DB, m repomanager.RepositoryManager, receipts *storage.ReceiptStorage) *ExpenseService {
	return &ExpenseService{db: db, repomanager: m, receipts: receipts}
}

// List returns the user's expenses; with since set, only those changed after
// the given unix-ms stamp.
func (s *ExpenseService) List(ctx context.Context, userID string, since *int64) ([]*models.Expense, error) {
	repo := s.repomanager.Expenses(s.db)
	if since != nil {
		return repo.SelectUpdatedSince(ctx, userID, *since)
	}
	return repo.SelectAll(ctx, userID)
}

func (s *ExpenseService) Get(ctx context.Context, userID, id string) (*models.Expense, error) {
	return s.repomanager.Expenses(s.db).GetByID(ctx, userID, id)
}

// Create stores a record under the client-supplied id and stamps it with the
// server-side change time.
func (s *ExpenseService) Create(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = time.Now().UnixMilli()
	return s.repomanager.Expenses(s.db).Insert(ctx, e)
}

func (s *ExpenseService) Update(ctx context.Context, e *models.Expense) error {
	e.UpdatedAt = time.Now().UnixMilli()
	return s.repomanager.Expenses(s.db).Update(ctx, e)
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Expenses(s.db).Delete(ctx, userID, id)
}

func (s *ExpenseService) Subcategories(ctx context.Context, userID string) ([]*models.Subcategory, error) {
	return s.repomanager.Subcategories(s.db).SelectAll(ctx, userID)
}

func (s *ExpenseService) CreateSubcategory(ctx context.Context, sub *models.Subcategory) error {
	return s.repomanager.Subcategories(s.db).Insert(ctx, sub)
}

// ReceiptUploadURL allocates an object key for the expense's receipt and
// presigns a PUT. The key reaches the expense row when the client pushes the
// updated record.
func (s *ExpenseService) ReceiptUploadURL(ctx context.Context, userID, expenseID string) (string, string, error) {
	if _, err := s.Get(ctx, userID, expenseID); err != nil {
		return "", "", err
	}

	key := storage.RandomReceiptKey(userID)
	url, err := s.receipts.PresignPut(ctx, key)
	if err != nil {
		return "", "", fmt.Errorf("presign error: %w", err)
	}
	return key, url, nil
}

func (s *ExpenseService) ReceiptDownloadURL(ctx context.Context, userID, expenseID string) (string, error) {
	e, err := s.Get(ctx, userID, expenseID)
	if err != nil {
		return "", err
	}
	if e.ReceiptKey == "" {
		return "", common.ErrNotFound
	}

	url, err := s.receipts.PresignGet(ctx, e.ReceiptKey)
	if err != nil {
		return "", fmt.Errorf("presign error: %w", err)
	}
	return url, nil
}

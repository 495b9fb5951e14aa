// Package services holds the client-side business logic: the expense service
// with its synchronization engine, and the auth service.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/avolkovs/pennywise/internal/client/client"
	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/client/repositories/expenses"
	"github.com/avolkovs/pennywise/internal/client/repositories/metadata"
	"github.com/avolkovs/pennywise/internal/client/repositories/subcategories"
	"github.com/avolkovs/pennywise/internal/common"
	"github.com/avolkovs/pennywise/internal/logging"
	"github.com/avolkovs/pennywise/internal/netx"
)

// ExpenseUpdate carries the fields of a partial edit; nil means "leave as is".
type ExpenseUpdate struct {
	Amount      *decimal.Decimal
	Category    *string
	Subcategory *string
	Date        *time.Time
	Note        *string
}

// ExpenseService is the application's single entry point to expense data.
// All reads and writes go to the local store first; Sync reconciles with the
// remote record service.
type ExpenseService interface {
	Add(ctx context.Context, amount decimal.Decimal, category, subcategory string, date time.Time, note string) (*models.Expense, error)
	Update(ctx context.Context, id string, upd ExpenseUpdate) (*models.Expense, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Expense, error)
	List(ctx context.Context) ([]models.Expense, error)
	PendingCount(ctx context.Context) (int, error)

	Subcategories(ctx context.Context) ([]models.Subcategory, error)
	AddSubcategory(ctx context.Context, category, name string) error

	AttachReceipt(ctx context.Context, id string, data []byte) error

	Sync(ctx context.Context) *SyncResult
	OnMutation(fn func())
}

type expenseService struct {
	client      client.Client
	checker     ReachabilityChecker
	expenseRepo expenses.Repository
	subcatRepo  subcategories.Repository
	metaRepo    metadata.Repository
	logger      logging.Logger

	onMutation func()
	now        func() time.Time
}

func NewExpenseService(c client.Client, checker ReachabilityChecker, repos *client.Repositories, logger logging.Logger) ExpenseService {
	return &expenseService{
		client:      c,
		checker:     checker,
		expenseRepo: repos.Expenses,
		subcatRepo:  repos.Subcategories,
		metaRepo:    repos.Metadata,
		logger:      logger,
		now:         time.Now,
	}
}

// OnMutation registers a callback fired after every committed local write.
// The orchestrator uses it to arm the debounced sync.
func (s *expenseService) OnMutation(fn func()) {
	s.onMutation = fn
}

func (s *expenseService) notifyMutation() {
	if s.onMutation != nil {
		s.onMutation()
	}
}

func (s *expenseService) Add(ctx context.Context, amount decimal.Decimal, category, subcategory string, date time.Time, note string) (*models.Expense, error) {
	e := &models.Expense{
		ID:          uuid.NewString(),
		Amount:      amount,
		Category:    category,
		Subcategory: subcategory,
		Date:        date,
		Note:        note,
		UpdatedAt:   s.now().UnixMilli(),
		Status:      models.StatusPending,
	}
	if err := s.expenseRepo.Upsert(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	s.notifyMutation()
	return e, nil
}

func (s *expenseService) Update(ctx context.Context, id string, upd ExpenseUpdate) (*models.Expense, error) {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving expense: %w", err)
	}
	if e.Status == models.StatusDeleted {
		return nil, common.ErrNotFound
	}

	if upd.Amount != nil {
		e.Amount = *upd.Amount
	}
	if upd.Category != nil {
		e.Category = *upd.Category
	}
	if upd.Subcategory != nil {
		e.Subcategory = *upd.Subcategory
	}
	if upd.Date != nil {
		e.Date = *upd.Date
	}
	if upd.Note != nil {
		e.Note = *upd.Note
	}

	// Any edit reverts the row to pending, whatever its prior status.
	e.Status = models.StatusPending
	e.UpdatedAt = s.now().UnixMilli()

	if err := s.expenseRepo.Upsert(ctx, e); err != nil {
		return nil, fmt.Errorf("saving error: %w", err)
	}
	s.notifyMutation()
	return e, nil
}

// Delete purges rows that never reached the remote; everything else becomes a
// tombstone that stays until the delete is push-confirmed.
func (s *expenseService) Delete(ctx context.Context, id string) error {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrieving expense: %w", err)
	}

	if !e.HasRemote {
		if err := s.expenseRepo.DeleteByID(ctx, id); err != nil {
			return fmt.Errorf("error deleting expense: %w", err)
		}
		s.notifyMutation()
		return nil
	}

	e.Status = models.StatusDeleted
	e.UpdatedAt = s.now().UnixMilli()
	if err := s.expenseRepo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("error deleting expense: %w", err)
	}
	s.notifyMutation()
	return nil
}

func (s *expenseService) Get(ctx context.Context, id string) (*models.Expense, error) {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.Status == models.StatusDeleted {
		return nil, common.ErrNotFound
	}
	return e, nil
}

func (s *expenseService) List(ctx context.Context) ([]models.Expense, error) {
	return s.expenseRepo.ListVisible(ctx)
}

// PendingCount counts rows with unsynced local intent (pending or deleted).
func (s *expenseService) PendingCount(ctx context.Context) (int, error) {
	return s.expenseRepo.CountByStatus(ctx, models.StatusPending, models.StatusDeleted)
}

func (s *expenseService) Subcategories(ctx context.Context) ([]models.Subcategory, error) {
	return s.subcatRepo.List(ctx)
}

// AddSubcategory creates a reference-data entry on the remote (online only)
// and mirrors it into the local cache. A uniqueness violation surfaces as
// common.ErrAlreadyExists.
func (s *expenseService) AddSubcategory(ctx context.Context, category, name string) error {
	sub := models.Subcategory{ID: uuid.NewString(), Category: category, Name: name}
	if err := s.client.CreateSubcategory(ctx, sub); err != nil {
		return err
	}

	existing, err := s.subcatRepo.List(ctx)
	if err != nil {
		return err
	}
	return s.subcatRepo.ReplaceAll(ctx, append(existing, sub))
}

// AttachReceipt uploads the image to object storage via a presigned URL and
// records the key on the expense, which re-enters the pending state.
func (s *expenseService) AttachReceipt(ctx context.Context, id string, data []byte) error {
	e, err := s.expenseRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrieving expense: %w", err)
	}

	key, url, err := s.client.ReceiptUploadURL(ctx, id)
	if err != nil {
		return err
	}
	if err := netx.UploadToPresignedURL(ctx, url, data); err != nil {
		return fmt.Errorf("receipt upload error: %w", err)
	}

	e.ReceiptKey = key
	e.Status = models.StatusPending
	e.UpdatedAt = s.now().UnixMilli()
	if err := s.expenseRepo.Upsert(ctx, e); err != nil {
		return fmt.Errorf("saving error: %w", err)
	}
	s.notifyMutation()
	return nil
}

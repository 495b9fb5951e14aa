package expenses

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/avolkovs/pennywise/internal/client/models"
	"github.com/avolkovs/pennywise/internal/common"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:exprepo?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS expenses (
  id          TEXT PRIMARY KEY,
  amount      TEXT NOT NULL,
  category    TEXT NOT NULL,
  subcategory TEXT NOT NULL DEFAULT '',
  date        TEXT NOT NULL,
  note        TEXT NOT NULL DEFAULT '',
  receipt_key TEXT NOT NULL DEFAULT '',
  updated_at  INTEGER NOT NULL,
  status      TEXT NOT NULL,
  has_remote  INTEGER NOT NULL DEFAULT 0
);
`)
	require.NoError(t, err)
	return db
}

func sample(id string, status models.SyncStatus) *models.Expense {
	return &models.Expense{
		ID:        id,
		Amount:    decimal.RequireFromString("12.34"),
		Category:  "food",
		Date:      time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		Note:      "lunch",
		UpdatedAt: 1000,
		Status:    status,
	}
}

func TestUpsert_RoundTripsAllFields(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	in := sample("e1", models.StatusPending)
	in.Subcategory = "groceries"
	in.ReceiptKey = "receipts/u/k"
	in.HasRemote = true
	require.NoError(t, repo.Upsert(ctx, in))

	out, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	require.True(t, out.Amount.Equal(in.Amount))
	require.Equal(t, in.Category, out.Category)
	require.Equal(t, in.Subcategory, out.Subcategory)
	require.True(t, out.Date.Equal(in.Date))
	require.Equal(t, in.Note, out.Note)
	require.Equal(t, in.ReceiptKey, out.ReceiptKey)
	require.Equal(t, in.UpdatedAt, out.UpdatedAt)
	require.Equal(t, in.Status, out.Status)
	require.True(t, out.HasRemote)
}

func TestUpsert_OverwritesExistingRow(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	e := sample("e1", models.StatusPending)
	require.NoError(t, repo.Upsert(ctx, e))

	e.Amount = decimal.RequireFromString("99")
	e.Status = models.StatusSynced
	require.NoError(t, repo.Upsert(ctx, e))

	out, err := repo.GetByID(ctx, "e1")
	require.NoError(t, err)
	require.True(t, out.Amount.Equal(decimal.RequireFromString("99")))
	require.Equal(t, models.StatusSynced, out.Status)
}

func TestGetByID_MissingRowIsNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))

	_, err := repo.GetByID(context.Background(), "nope")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestDeleteByID_IsIdempotent(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sample("e1", models.StatusSynced)))
	require.NoError(t, repo.DeleteByID(ctx, "e1"))
	require.NoError(t, repo.DeleteByID(ctx, "e1"))

	_, err := repo.GetByID(ctx, "e1")
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestGetByStatus_FiltersBySyncStatus(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sample("p1", models.StatusPending)))
	require.NoError(t, repo.Upsert(ctx, sample("p2", models.StatusPending)))
	require.NoError(t, repo.Upsert(ctx, sample("s1", models.StatusSynced)))
	require.NoError(t, repo.Upsert(ctx, sample("d1", models.StatusDeleted)))

	pending, err := repo.GetByStatus(ctx, models.StatusPending)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	deleted, err := repo.GetByStatus(ctx, models.StatusDeleted)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.Equal(t, "d1", deleted[0].ID)
}

func TestListVisible_HidesTombstonesAndOrdersByDate(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	older := sample("old", models.StatusSynced)
	older.Date = time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	newer := sample("new", models.StatusPending)
	newer.Date = time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	gone := sample("gone", models.StatusDeleted)

	require.NoError(t, repo.Upsert(ctx, older))
	require.NoError(t, repo.Upsert(ctx, newer))
	require.NoError(t, repo.Upsert(ctx, gone))

	items, err := repo.ListVisible(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "new", items[0].ID)
	require.Equal(t, "old", items[1].ID)
}

func TestCountByStatus_SumsAcrossStatuses(t *testing.T) {
	repo := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, sample("p1", models.StatusPending)))
	require.NoError(t, repo.Upsert(ctx, sample("d1", models.StatusDeleted)))
	require.NoError(t, repo.Upsert(ctx, sample("s1", models.StatusSynced)))

	count, err := repo.CountByStatus(ctx, models.StatusPending, models.StatusDeleted)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	none, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	require.Zero(t, none)
}

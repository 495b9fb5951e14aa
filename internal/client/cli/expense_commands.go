package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/avolkovs/pennywise/internal/api"
	"github.com/avolkovs/pennywise/internal/client/services"
	"github.com/avolkovs/pennywise/internal/common"
)

func (a *App) requireLocalData() error {
	if a.expenseService == nil || a.orch.Status().StorageBlocked {
		printlnFn("Local storage is unavailable.")
		return common.ErrStorageUnavailable
	}
	return nil
}

// Add records a new expense. The write is local and optimistic; sync happens
// in the background.
func (a *App) Add(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	amount, err := a.readAmount("Amount: ")
	if err != nil {
		printlnFn(err)
		return err
	}
	category, err := a.readString("Category: ")
	if err != nil {
		return err
	}
	subcategory, err := a.readString("Subcategory (optional): ")
	if err != nil {
		return err
	}
	date, err := a.readDate("Date (YYYY-MM-DD, empty = today): ")
	if err != nil {
		printlnFn(err)
		return err
	}
	note, err := a.readString("Note (optional): ")
	if err != nil {
		return err
	}

	e, err := a.expenseService.Add(ctx, amount, category, subcategory, date, note)
	if err != nil {
		printlnFn("Failed to save expense:", err)
		return err
	}
	printlnFn("Saved", e.ID)
	return nil
}

func (a *App) List(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	items, err := a.expenseService.List(ctx)
	if err != nil {
		printlnFn("Failed to list expenses:", err)
		return err
	}
	if len(items) == 0 {
		printlnFn("No expenses yet.")
		return nil
	}

	total := decimal.Zero
	for _, e := range items {
		marker := ""
		if e.Status != "synced" {
			marker = " *"
		}
		printlnFn(fmt.Sprintf("%s  %s  %-12s %10s%s",
			e.ID[:8], e.Date.Format(api.DateLayout), e.Category, e.Amount.StringFixed(2), marker))
		total = total.Add(e.Amount)
	}
	printlnFn("Total:", total.StringFixed(2))
	return nil
}

func (a *App) Show(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	id, err := a.readString("Expense ID: ")
	if err != nil {
		return err
	}
	e, err := a.expenseService.Get(ctx, id)
	if err != nil {
		printlnFn("Not found:", id)
		return err
	}

	printlnFn("ID:         ", e.ID)
	printlnFn("Amount:     ", e.Amount.StringFixed(2))
	printlnFn("Category:   ", e.Category)
	printlnFn("Subcategory:", e.Subcategory)
	printlnFn("Date:       ", e.Date.Format(api.DateLayout))
	printlnFn("Note:       ", e.Note)
	printlnFn("Status:     ", string(e.Status))
	if e.ReceiptKey != "" {
		printlnFn("Receipt:    ", e.ReceiptKey)
	}
	return nil
}

func (a *App) Edit(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	id, err := a.readString("Expense ID: ")
	if err != nil {
		return err
	}

	var upd services.ExpenseUpdate
	if s, err := a.readString("New amount (empty = keep): "); err != nil {
		return err
	} else if s != "" {
		amount, err := decimal.NewFromString(s)
		if err != nil {
			printlnFn("Invalid amount:", s)
			return err
		}
		upd.Amount = &amount
	}
	if s, err := a.readString("New category (empty = keep): "); err != nil {
		return err
	} else if s != "" {
		upd.Category = &s
	}
	if s, err := a.readString("New note (empty = keep): "); err != nil {
		return err
	} else if s != "" {
		upd.Note = &s
	}
	if s, err := a.readString("New date (empty = keep): "); err != nil {
		return err
	} else if s != "" {
		d, err := time.Parse(api.DateLayout, s)
		if err != nil {
			printlnFn("Invalid date:", s)
			return err
		}
		upd.Date = &d
	}

	if _, err := a.expenseService.Update(ctx, id, upd); err != nil {
		printlnFn("Failed to update expense:", err)
		return err
	}
	printlnFn("Updated", id)
	return nil
}

func (a *App) Delete(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	id, err := a.readString("Expense ID: ")
	if err != nil {
		return err
	}
	if err := a.expenseService.Delete(ctx, id); err != nil {
		printlnFn("Failed to delete expense:", err)
		return err
	}
	printlnFn("Deleted", id)
	return nil
}

// Sync is the explicit "sync now" trigger.
func (a *App) Sync(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}
	a.orch.SyncNow(ctx)
	return a.Status(ctx)
}

func (a *App) Status(ctx context.Context) error {
	if a.orch == nil {
		printlnFn("Status: storage blocked")
		return nil
	}
	st := a.orch.Status()
	online := "offline"
	if st.Online {
		online = "online"
	}
	printlnFn(fmt.Sprintf("Status: %s, %d pending change(s)", online, st.PendingCount))
	if st.LastSyncTime != nil {
		printlnFn("Last sync:", st.LastSyncTime.Format(time.RFC3339))
	}
	if st.LastResult != nil && !st.LastResult.Success {
		printlnFn("Last sync failed:", st.LastResult.Message)
	}
	return nil
}

func (a *App) AddSubcategory(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	category, err := a.readString("Category: ")
	if err != nil {
		return err
	}
	name, err := a.readString("Subcategory name: ")
	if err != nil {
		return err
	}

	err = a.expenseService.AddSubcategory(ctx, category, name)
	if errors.Is(err, common.ErrAlreadyExists) {
		printlnFn("Subcategory already exists.")
		return err
	}
	if err != nil {
		printlnFn("Failed to add subcategory:", err)
		return err
	}
	printlnFn("Added subcategory", name)
	return nil
}

// Attach uploads a receipt image for an expense via a presigned URL.
func (a *App) Attach(ctx context.Context) error {
	if err := a.requireLocalData(); err != nil {
		return err
	}

	id, err := a.readString("Expense ID: ")
	if err != nil {
		return err
	}
	path, err := a.readString("Receipt file path: ")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		printlnFn("Failed to read file:", err)
		return err
	}

	if err := a.expenseService.AttachReceipt(ctx, id, data); err != nil {
		printlnFn("Failed to attach receipt:", err)
		return err
	}
	printlnFn("Receipt attached.")
	return nil
}

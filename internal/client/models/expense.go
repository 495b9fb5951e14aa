// Package models defines the client-side expense record, its sync status,
// and cached reference data.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus tracks a record's relationship to the remote service.
type SyncStatus string

const (
	// StatusSynced means the local copy matches the last known remote state.
	StatusSynced SyncStatus = "synced"
	// StatusPending means the record carries an unsynced local create or
	// update.
	StatusPending SyncStatus = "pending"
	// StatusDeleted is a soft delete awaiting remote confirmation. Rows in
	// this state are hidden from all read paths.
	StatusDeleted SyncStatus = "deleted"
)

// Expense is the synchronizable unit. IDs are generated on the client so
// creation works offline; the local id becomes the permanent remote id on the
// first successful push.
type Expense struct {
	ID          string
	Amount      decimal.Decimal
	Category    string
	Subcategory string
	Date        time.Time
	Note        string
	ReceiptKey  string

	// UpdatedAt is unix milliseconds of the last local mutation. Local
	// bookkeeping only, never compared against remote clocks.
	UpdatedAt int64
	Status    SyncStatus
	// HasRemote is set once the record has been confirmed on the remote at
	// least once. A delete of a record without a remote counterpart purges
	// the row instead of leaving a tombstone.
	HasRemote bool
}

// PayloadEquals compares the domain fields only, ignoring sync metadata.
// Exact-value comparison: payloads are small and compared rarely.
func (e *Expense) PayloadEquals(o *Expense) bool {
	return e.Amount.Equal(o.Amount) &&
		e.Category == o.Category &&
		e.Subcategory == o.Subcategory &&
		e.Date.Equal(o.Date) &&
		e.Note == o.Note &&
		e.ReceiptKey == o.ReceiptKey
}

// Subcategory is externally managed reference data, cached locally and fully
// replaced on every sync.
type Subcategory struct {
	ID       string
	Category string
	Name     string
}

// Package models defines the server-side database rows.
package models

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Expense is the authoritative remote copy of a record. The id is supplied
// by the client that created it; UpdatedAt is the server-side change stamp
// (unix ms) driving changed-since queries.
type Expense struct {
	ID          string
	UserID      string
	Amount      string
	Category    string
	Subcategory string
	Date        time.Time
	Note        string
	ReceiptKey  string
	UpdatedAt   int64
}

type Subcategory struct {
	ID       string
	UserID   string
	Category string
	Name     string
}

type RefreshToken struct {
	Token   string
	UserID  string
	Expires time.Time
}

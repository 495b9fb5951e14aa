// Package repomanager wires concrete repositories to a database handle.
// Services ask the manager for repositories bound either to the shared
// *sql.DB or to a transaction.
package repomanager

import (
	"github.com/avolkovs/pennywise/internal/dbx"
	"github.com/avolkovs/pennywise/internal/server/repositories/expenses"
	"github.com/avolkovs/pennywise/internal/server/repositories/refreshtokens"
	"github.com/avolkovs/pennywise/internal/server/repositories/subcategories"
	"github.com/avolkovs/pennywise/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Expenses(db dbx.DBTX) expenses.Repository
	Subcategories(db dbx.DBTX) subcategories.Repository
}

// Package ledger defines the storage port every backend implements.
// The aggregation engine and the HTTP layer only ever see this
// interface; swapping the in-memory store for SQLite (or anything
// else) is a wiring decision in main.
package ledger

import (
	"context"
	"errors"
	"time"

	"tally/internal/core"
)

// ErrNotFound is returned by lookups for ids that do not exist.
// Referential gaps are normal here: deleting an account or category
// leaves historical transactions pointing at the dead id on purpose.
var ErrNotFound = errors.New("ledger: not found")

// TransactionFilter narrows a transaction listing. Zero values mean
// "no constraint"; set fields combine with AND. StartDate and EndDate
// are inclusive calendar dates — time of day is ignored on both sides.
// AccountID matches the source account, and for transfers also the
// destination, so an account filter surfaces transfers touching the
// account from either side.
type TransactionFilter struct {
	StartDate  time.Time
	EndDate    time.Time
	CategoryID int64
	AccountID  int64
	Type       core.TransactionType
}

// Store is the single capability interface over the ledger. Reads are
// scoped to a user; accounts and categories additionally include the
// system defaults owned by user 0. Transaction listings are ordered by
// date descending with stable id-ascending tie-break.
type Store interface {
	Accounts(ctx context.Context, userID int64) ([]core.Account, error)
	Account(ctx context.Context, id int64) (core.Account, error)
	CreateAccount(ctx context.Context, a core.Account) (core.Account, error)
	UpdateAccount(ctx context.Context, a core.Account) (core.Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	Categories(ctx context.Context, userID int64) ([]core.Category, error)
	Category(ctx context.Context, id int64) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	Transactions(ctx context.Context, userID int64, f TransactionFilter) ([]core.Transaction, error)
	Transaction(ctx context.Context, id int64) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error

	// Budgets lists budget records; month and year narrow the listing
	// when non-zero.
	Budgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error)
	Budget(ctx context.Context, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error

	Close() error
}

// Matches reports whether t satisfies the filter. Backends that filter
// in Go (the memory store) share this; SQL backends express the same
// predicate in their queries.
func (f TransactionFilter) Matches(t core.Transaction) bool {
	if !f.StartDate.IsZero() && dateOnly(t.Date).Before(dateOnly(f.StartDate)) {
		return false
	}
	if !f.EndDate.IsZero() && dateOnly(t.Date).After(dateOnly(f.EndDate)) {
		return false
	}
	if f.CategoryID != 0 && t.CategoryID != f.CategoryID {
		return false
	}
	if f.AccountID != 0 {
		if t.AccountID != f.AccountID && !(t.Type == core.Transfer && t.ToAccountID == f.AccountID) {
			return false
		}
	}
	if f.Type != "" && t.Type != f.Type {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

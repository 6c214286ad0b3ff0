// Package memory provides the in-memory ledger.Store used by tests and
// the default demo backend. It mirrors the SQLite repository's
// behavior, including the system-default accounts and categories owned
// by user 0.
package memory

import (
	"context"
	"sort"
	"sync"

	"tally/internal/core"
	"tally/internal/ledger"
)

var defaultCategories = []string{
	"Food", "Household", "Rent", "Electricity", "LPG Bill",
	"Mobile Recharge", "Apparel", "Education", "Health",
	"Beauty", "Transportation", "Social Life", "Self-development",
	"Entertainment",
}

var defaultAccounts = []string{"Cash", "Card", "Bank"}

type Store struct {
	mu sync.RWMutex

	accounts     map[int64]core.Account
	categories   map[int64]core.Category
	transactions map[int64]core.Transaction
	budgets      map[int64]core.Budget

	nextAccountID     int64
	nextCategoryID    int64
	nextTransactionID int64
	nextBudgetID      int64
}

func New() *Store {
	s := &Store{
		accounts:          make(map[int64]core.Account),
		categories:        make(map[int64]core.Category),
		transactions:      make(map[int64]core.Transaction),
		budgets:           make(map[int64]core.Budget),
		nextAccountID:     1,
		nextCategoryID:    1,
		nextTransactionID: 1,
		nextBudgetID:      1,
	}
	s.seedDefaults()
	return s
}

// seedDefaults installs the shared accounts and categories owned by
// user 0, visible to every user.
func (s *Store) seedDefaults() {
	for _, name := range defaultCategories {
		s.categories[s.nextCategoryID] = core.Category{
			ID:        s.nextCategoryID,
			Name:      name,
			UserID:    0,
			IsDefault: true,
		}
		s.nextCategoryID++
	}
	for _, name := range defaultAccounts {
		s.accounts[s.nextAccountID] = core.Account{
			ID:     s.nextAccountID,
			Name:   name,
			UserID: 0,
		}
		s.nextAccountID++
	}
}

// Accounts returns the user's accounts plus the system defaults,
// ordered by id.
func (s *Store) Accounts(_ context.Context, userID int64) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Account
	for _, a := range s.accounts {
		if a.UserID == userID || a.UserID == 0 {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Account(_ context.Context, id int64) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[id]
	if !ok {
		return core.Account{}, ledger.ErrNotFound
	}
	return a, nil
}

func (s *Store) CreateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = s.nextAccountID
	s.nextAccountID++
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAccount(_ context.Context, a core.Account) (core.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return core.Account{}, ledger.ErrNotFound
	}
	s.accounts[a.ID] = a
	return a, nil
}

// DeleteAccount removes the account only. Transactions referencing it
// keep their dangling ids; history is never cascaded.
func (s *Store) DeleteAccount(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *Store) Categories(_ context.Context, userID int64) ([]core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Category
	for _, c := range s.categories {
		if c.UserID == userID || c.UserID == 0 {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Category(_ context.Context, id int64) (core.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, ledger.ErrNotFound
	}
	return c, nil
}

func (s *Store) CreateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.nextCategoryID
	s.nextCategoryID++
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) UpdateCategory(_ context.Context, c core.Category) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[c.ID]; !ok {
		return core.Category{}, ledger.ErrNotFound
	}
	s.categories[c.ID] = c
	return c, nil
}

func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.categories[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// Transactions lists the user's transactions matching the filter,
// newest first. Equal dates keep insertion order (ascending id).
func (s *Store) Transactions(_ context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Transaction
	for _, t := range s.transactions {
		if t.UserID == userID && f.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

func (s *Store) Transaction(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.transactions[id]
	if !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextTransactionID
	s.nextTransactionID++
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[t.ID]; !ok {
		return core.Transaction{}, ledger.ErrNotFound
	}
	s.transactions[t.ID] = t
	return t, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.transactions[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) Budgets(_ context.Context, userID int64, month, year int) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		if month != 0 && b.Month != month {
			continue
		}
		if year != 0 && b.Year != year {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Budget(_ context.Context, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok {
		return core.Budget{}, ledger.ErrNotFound
	}
	return b, nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextBudgetID
	s.nextBudgetID++
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[b.ID]; !ok {
		return core.Budget{}, ledger.ErrNotFound
	}
	s.budgets[b.ID] = b
	return b, nil
}

func (s *Store) DeleteBudget(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.budgets[id]; !ok {
		return ledger.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) Close() error { return nil }

var _ ledger.Store = (*Store)(nil)

// Package storage is the SQLite implementation of the ledger.Store
// port, plus the sync bookkeeping used by the export worker. Dates are
// stored as RFC 3339 UTC text and compared with SQLite's date functions
// so calendar filters match the in-memory backend exactly.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tally/internal/core"
	"tally/internal/ledger"
)

// Sync states for the export pipeline. New transactions start pending;
// the worker moves them to synced or error.
const (
	SyncPending = "pending"
	SyncSynced  = "synced"
	SyncError   = "error"
)

type Repository struct {
	db *sql.DB
}

// Open runs migrations and returns a ready repository. SQLite allows a
// single writer, so the pool is capped at one connection.
func Open(dbPath string) (*Repository, error) {
	if err := RunMigrations(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error { return r.db.Close() }

func (r *Repository) Accounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, user_id FROM accounts WHERE user_id IN (?, 0) ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var out []core.Account
	for rows.Next() {
		var a core.Account
		if err := rows.Scan(&a.ID, &a.Name, &a.UserID); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) Account(ctx context.Context, id int64) (core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, user_id FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (name, user_id) VALUES (?, ?)`,
		a.Name, a.UserID)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	a.ID, err = res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account id: %w", err)
	}
	return a, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = ?, user_id = ? WHERE id = ?`,
		a.Name, a.UserID, a.ID)
	if err != nil {
		return core.Account{}, fmt.Errorf("update account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Account{}, ledger.ErrNotFound
	}
	return a, nil
}

func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *Repository) Categories(ctx context.Context, userID int64) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, user_id, is_default FROM categories WHERE user_id IN (?, 0) ORDER BY id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.UserID, &c.IsDefault); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) Category(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, user_id, is_default FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.UserID, &c.IsDefault)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, user_id, is_default) VALUES (?, ?, ?)`,
		c.Name, c.UserID, c.IsDefault)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	c.ID, err = res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category id: %w", err)
	}
	return c, nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, user_id = ?, is_default = ? WHERE id = ?`,
		c.Name, c.UserID, c.IsDefault, c.ID)
	if err != nil {
		return core.Category{}, fmt.Errorf("update category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Category{}, ledger.ErrNotFound
	}
	return c, nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

const txColumns = `id, date, type, amount_cents, description, category_id, account_id, to_account_id, invoice_name, user_id`

func scanTransaction(scan func(dest ...any) error) (core.Transaction, error) {
	var (
		t           core.Transaction
		dateStr     string
		categoryID  sql.NullInt64
		toAccountID sql.NullInt64
	)
	err := scan(&t.ID, &dateStr, &t.Type, &t.Amount.Cents, &t.Description,
		&categoryID, &t.AccountID, &toAccountID, &t.InvoiceName, &t.UserID)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Date, err = time.Parse(time.RFC3339, dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse date %q: %w", dateStr, err)
	}
	t.CategoryID = categoryID.Int64
	t.ToAccountID = toAccountID.Int64
	return t, nil
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// Transactions lists the user's transactions matching the filter,
// newest first with id as tie-break. The date bounds compare at day
// granularity like the in-memory store.
func (r *Repository) Transactions(ctx context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	var (
		conds = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if !f.StartDate.IsZero() {
		conds = append(conds, "date(date) >= date(?)")
		args = append(args, f.StartDate.UTC().Format(time.RFC3339))
	}
	if !f.EndDate.IsZero() {
		conds = append(conds, "date(date) <= date(?)")
		args = append(args, f.EndDate.UTC().Format(time.RFC3339))
	}
	if f.CategoryID != 0 {
		conds = append(conds, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.AccountID != 0 {
		conds = append(conds, "(account_id = ? OR (type = 'transfer' AND to_account_id = ?))")
		args = append(args, f.AccountID, f.AccountID)
	}
	if f.Type != "" {
		conds = append(conds, "type = ?")
		args = append(args, string(f.Type))
	}

	query := `SELECT ` + txColumns + ` FROM transactions WHERE ` +
		strings.Join(conds, " AND ") +
		` ORDER BY datetime(date) DESC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) Transaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE id = ?`, id)
	t, err := scanTransaction(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (date, type, amount_cents, description, category_id, account_id, to_account_id, invoice_name, user_id, sync_status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Date.UTC().Format(time.RFC3339), string(t.Type), t.Amount.Cents, t.Description,
		nullID(t.CategoryID), t.AccountID, nullID(t.ToAccountID), t.InvoiceName, t.UserID,
		SyncPending)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	t.ID, err = res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction id: %w", err)
	}
	return t, nil
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions
		 SET date = ?, type = ?, amount_cents = ?, description = ?, category_id = ?,
		     account_id = ?, to_account_id = ?, invoice_name = ?, user_id = ?, sync_status = ?
		 WHERE id = ?`,
		t.Date.UTC().Format(time.RFC3339), string(t.Type), t.Amount.Cents, t.Description,
		nullID(t.CategoryID), t.AccountID, nullID(t.ToAccountID), t.InvoiceName, t.UserID,
		SyncPending, t.ID)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Transaction{}, ledger.ErrNotFound
	}
	return t, nil
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

func (r *Repository) Budgets(ctx context.Context, userID int64, month, year int) ([]core.Budget, error) {
	var (
		conds = []string{"user_id = ?"}
		args  = []any{userID}
	)
	if month != 0 {
		conds = append(conds, "month = ?")
		args = append(args, month)
	}
	if year != 0 {
		conds = append(conds, "year = ?")
		args = append(args, year)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, month, year, amount_cents, category_id, user_id FROM budgets WHERE `+
			strings.Join(conds, " AND ")+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		var (
			b          core.Budget
			categoryID sql.NullInt64
		)
		if err := rows.Scan(&b.ID, &b.Month, &b.Year, &b.Amount.Cents, &categoryID, &b.UserID); err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		b.CategoryID = categoryID.Int64
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) Budget(ctx context.Context, id int64) (core.Budget, error) {
	var (
		b          core.Budget
		categoryID sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, month, year, amount_cents, category_id, user_id FROM budgets WHERE id = ?`, id).
		Scan(&b.ID, &b.Month, &b.Year, &b.Amount.Cents, &categoryID, &b.UserID)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, ledger.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	b.CategoryID = categoryID.Int64
	return b, nil
}

func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO budgets (month, year, amount_cents, category_id, user_id) VALUES (?, ?, ?, ?, ?)`,
		b.Month, b.Year, b.Amount.Cents, nullID(b.CategoryID), b.UserID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	b.ID, err = res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("budget id: %w", err)
	}
	return b, nil
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET month = ?, year = ?, amount_cents = ?, category_id = ?, user_id = ? WHERE id = ?`,
		b.Month, b.Year, b.Amount.Cents, nullID(b.CategoryID), b.UserID, b.ID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.Budget{}, ledger.ErrNotFound
	}
	return b, nil
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

// PendingTransactions returns up to limit transactions awaiting export,
// oldest first so the reconciler drains in order.
func (r *Repository) PendingTransactions(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+txColumns+` FROM transactions WHERE sync_status = ? ORDER BY id LIMIT ?`,
		SyncPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) MarkSynced(ctx context.Context, id int64) error {
	return r.setSyncStatus(ctx, id, SyncSynced, "")
}

func (r *Repository) MarkSyncError(ctx context.Context, id int64, msg string) error {
	return r.setSyncStatus(ctx, id, SyncError, msg)
}

func (r *Repository) setSyncStatus(ctx context.Context, id int64, status, msg string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET sync_status = ?, sync_error = ? WHERE id = ?`,
		status, msg, id)
	if err != nil {
		return fmt.Errorf("set sync status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}

var _ ledger.Store = (*Repository)(nil)

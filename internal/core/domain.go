package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Expense  TransactionType = "expense"
	Income   TransactionType = "income"
	Transfer TransactionType = "transfer"
)

type (
	TransactionType string

	// Transaction is a single ledger entry. Amount is always positive;
	// direction is implied by Type. CategoryID and ToAccountID use zero
	// as "not set" (transfers carry no category, only transfers carry a
	// destination account).
	Transaction struct {
		ID          int64           `json:"id"`
		Date        time.Time       `json:"date"`
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Description string          `json:"description,omitempty"`
		CategoryID  int64           `json:"categoryId,omitempty"`
		AccountID   int64           `json:"accountId"`
		ToAccountID int64           `json:"toAccountId,omitempty"`
		InvoiceName string          `json:"invoiceName,omitempty"`
		UserID      int64           `json:"userId"`
	}

	Account struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		UserID int64  `json:"userId"`
	}

	Category struct {
		ID        int64  `json:"id"`
		Name      string `json:"name"`
		UserID    int64  `json:"userId"`
		IsDefault bool   `json:"isDefault"`
	}

	// Budget caps spending for one month. CategoryID zero means the
	// overall (whole-month) budget.
	Budget struct {
		ID         int64 `json:"id"`
		Month      int   `json:"month"`
		Year       int   `json:"year"`
		Amount     Money `json:"amount"`
		CategoryID int64 `json:"categoryId,omitempty"`
		UserID     int64 `json:"userId"`
	}
)

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidType        = errors.New("invalid transaction type")
	ErrZeroDate           = errors.New("date cannot be zero")
	ErrMissingAccount     = errors.New("account is required")
	ErrMissingDestination = errors.New("transfer requires a destination account")
	ErrSameAccount        = errors.New("transfer source and destination must differ")
	ErrTransferCategory   = errors.New("transfer cannot carry a category")
	ErrEmptyName          = errors.New("name is required")
	ErrLongDescription    = errors.New("description too long (max 200 characters)")
	ErrInvalidMonth       = errors.New("month must be between 1 and 12")
	ErrInvalidYear        = errors.New("year out of range")
)

func (t TransactionType) Valid() bool {
	switch t {
	case Expense, Income, Transfer:
		return true
	default:
		return false
	}
}

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.AccountID == 0 {
		return ErrMissingAccount
	}
	if len(t.Description) > 200 {
		return ErrLongDescription
	}
	if t.Type == Transfer {
		if t.ToAccountID == 0 {
			return ErrMissingDestination
		}
		if t.ToAccountID == t.AccountID {
			return ErrSameAccount
		}
		if t.CategoryID != 0 {
			return ErrTransferCategory
		}
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (b Budget) Validate() error {
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Year < 2000 || b.Year > 2100 {
		return ErrInvalidYear
	}
	return b.Amount.Validate()
}

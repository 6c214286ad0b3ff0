package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func baseTransaction() Transaction {
	return Transaction{
		Date:       time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		Type:       Expense,
		Amount:     Money{Cents: 4550},
		CategoryID: 1,
		AccountID:  1,
		UserID:     1,
	}
}

func TestTransactionValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Transaction)
		wantErr error
	}{
		{"valid expense", func(tx *Transaction) {}, nil},
		{"valid income", func(tx *Transaction) { tx.Type = Income; tx.CategoryID = 0 }, nil},
		{"valid transfer", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = 0
			tx.ToAccountID = 2
		}, nil},
		{"zero date", func(tx *Transaction) { tx.Date = time.Time{} }, ErrZeroDate},
		{"bad type", func(tx *Transaction) { tx.Type = "loan" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(tx *Transaction) { tx.Amount = Money{Cents: -100} }, ErrInvalidAmount},
		{"missing account", func(tx *Transaction) { tx.AccountID = 0 }, ErrMissingAccount},
		{"long description", func(tx *Transaction) { tx.Description = strings.Repeat("x", 201) }, ErrLongDescription},
		{"transfer without destination", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = 0
		}, ErrMissingDestination},
		{"transfer to itself", func(tx *Transaction) {
			tx.Type = Transfer
			tx.CategoryID = 0
			tx.ToAccountID = 1
		}, ErrSameAccount},
		{"transfer with category", func(tx *Transaction) {
			tx.Type = Transfer
			tx.ToAccountID = 2
		}, ErrTransferCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := baseTransaction()
			tt.mutate(&tx)
			err := tx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAccountAndCategoryValidate(t *testing.T) {
	if err := (Account{Name: "Cash"}).Validate(); err != nil {
		t.Errorf("valid account: %v", err)
	}
	if err := (Account{Name: "   "}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("blank account name: %v", err)
	}
	if err := (Category{Name: "Food"}).Validate(); err != nil {
		t.Errorf("valid category: %v", err)
	}
	if err := (Category{}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty category name: %v", err)
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{Month: 3, Year: 2024, Amount: Money{Cents: 100000}}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid budget: %v", err)
	}

	tests := []struct {
		name    string
		budget  Budget
		wantErr error
	}{
		{"month zero", Budget{Month: 0, Year: 2024, Amount: Money{Cents: 1}}, ErrInvalidMonth},
		{"month thirteen", Budget{Month: 13, Year: 2024, Amount: Money{Cents: 1}}, ErrInvalidMonth},
		{"ancient year", Budget{Month: 1, Year: 1990, Amount: Money{Cents: 1}}, ErrInvalidYear},
		{"zero amount", Budget{Month: 1, Year: 2024, Amount: Money{}}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.budget.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

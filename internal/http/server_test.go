package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tally/internal/config"
	"tally/internal/core"
	"tally/internal/ledger/memory"
	"tally/internal/services"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Port:               "8081",
		DefaultUserID:      1,
		RateLimitPerMinute: 10000,
		ReportCacheTTL:     time.Minute,
	}
	store := memory.New()
	s := NewServer(cfg, store, services.NewTransactionService(store, nil))
	t.Cleanup(func() { s.limiter.Stop(); close(s.stopCacheCleanup) })
	return s
}

func do(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createTransaction(t *testing.T, s *Server, body map[string]any) core.Transaction {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create transaction: %d %s", rec.Code, rec.Body.String())
	}
	return decode[core.Transaction](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := do(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got %d", path, rec.Code)
		}
	}
}

func TestListAccountsSeedsDefaults(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	accounts := decode[[]core.Account](t, rec)
	if len(accounts) != 3 {
		t.Fatalf("expected 3 default accounts, got %d", len(accounts))
	}
}

func TestAccountCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/accounts", map[string]any{"name": "Savings"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Account](t, rec)
	if created.Name != "Savings" || created.UserID != 1 {
		t.Errorf("created = %+v", created)
	}

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/accounts/%d", created.ID), map[string]any{"name": "Emergency Fund"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Account](t, rec); got.Name != "Emergency Fund" {
		t.Errorf("updated name = %q", got.Name)
	}

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/accounts/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/accounts/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d, want 404", rec.Code)
	}
}

func TestCreateAccountRejectsEmptyName(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodPost, "/api/accounts", map[string]any{"name": "  "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("got %d, want 400", rec.Code)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := createTransaction(t, s, map[string]any{
		"date":        "2024-03-10",
		"type":        "expense",
		"amount":      45.50,
		"description": "groceries",
		"categoryId":  1,
		"accountId":   1,
	})
	if created.Amount.Cents != 4550 {
		t.Errorf("amount = %d cents, want 4550", created.Amount.Cents)
	}
	if created.UserID != 1 {
		t.Errorf("userId = %d, want default 1", created.UserID)
	}

	// Partial update: only the amount changes.
	rec := do(t, s, http.MethodPut, fmt.Sprintf("/api/transactions/%d", created.ID), map[string]any{
		"amount": "99.99",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	updated := decode[core.Transaction](t, rec)
	if updated.Amount.Cents != 9999 {
		t.Errorf("amount = %d cents, want 9999", updated.Amount.Cents)
	}
	if updated.Description != "groceries" {
		t.Errorf("partial update clobbered description: %q", updated.Description)
	}

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/transactions/%d", created.ID), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: %d, want 404", rec.Code)
	}
}

func TestCreateTransactionValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{"date": "2024-03-10", "type": "expense", "amount": 0, "accountId": 1}},
		{"negative amount", map[string]any{"date": "2024-03-10", "type": "expense", "amount": -5, "accountId": 1}},
		{"bad type", map[string]any{"date": "2024-03-10", "type": "loan", "amount": 10, "accountId": 1}},
		{"missing account", map[string]any{"date": "2024-03-10", "type": "expense", "amount": 10}},
		{"transfer without destination", map[string]any{"date": "2024-03-10", "type": "transfer", "amount": 10, "accountId": 1}},
		{"transfer to same account", map[string]any{"date": "2024-03-10", "type": "transfer", "amount": 10, "accountId": 1, "toAccountId": 1}},
		{"transfer with category", map[string]any{"date": "2024-03-10", "type": "transfer", "amount": 10, "accountId": 1, "toAccountId": 2, "categoryId": 1}},
		{"bad date", map[string]any{"date": "March 10", "type": "expense", "amount": 10, "accountId": 1}},
		{"unknown field", map[string]any{"date": "2024-03-10", "type": "expense", "amount": 10, "accountId": 1, "color": "red"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/transactions", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("got %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestListTransactionsFiltersAndOrder(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, map[string]any{"date": "2024-03-05", "type": "expense", "amount": 10, "categoryId": 1, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-20", "type": "income", "amount": 500, "accountId": 2})
	createTransaction(t, s, map[string]any{"date": "2024-03-12", "type": "transfer", "amount": 50, "accountId": 1, "toAccountId": 2})
	createTransaction(t, s, map[string]any{"date": "2024-04-01", "type": "expense", "amount": 20, "categoryId": 2, "accountId": 1})

	rec := do(t, s, http.MethodGet, "/api/transactions", nil)
	all := decode[[]core.Transaction](t, rec)
	if len(all) != 4 {
		t.Fatalf("expected 4 transactions, got %d", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Date.Before(all[i].Date) {
			t.Errorf("transactions not in descending date order at %d", i)
		}
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?startDate=2024-03-01&endDate=2024-03-31", nil)
	if got := decode[[]core.Transaction](t, rec); len(got) != 3 {
		t.Errorf("date filter: got %d, want 3", len(got))
	}

	// Account 2 sees its income and the incoming transfer.
	rec = do(t, s, http.MethodGet, "/api/transactions?accountId=2", nil)
	if got := decode[[]core.Transaction](t, rec); len(got) != 2 {
		t.Errorf("account filter: got %d, want 2", len(got))
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?type=expense&categoryId=1", nil)
	if got := decode[[]core.Transaction](t, rec); len(got) != 1 {
		t.Errorf("combined filter: got %d, want 1", len(got))
	}

	rec = do(t, s, http.MethodGet, "/api/transactions?type=loan", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid type filter: got %d, want 400", rec.Code)
	}
}

func TestUserScopingHeader(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewBufferString(
		`{"date":"2024-03-10","type":"expense","amount":10,"categoryId":1,"accountId":1}`))
	req.Header.Set("X-User-ID", "7")
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	if created := decode[core.Transaction](t, rec); created.UserID != 7 {
		t.Errorf("userId = %d, want 7", created.UserID)
	}

	// Default user sees nothing.
	rec = do(t, s, http.MethodGet, "/api/transactions", nil)
	if got := decode[[]core.Transaction](t, rec); len(got) != 0 {
		t.Errorf("default user should see no transactions, got %d", len(got))
	}

	req = httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	req.Header.Set("X-User-ID", "7")
	rec = httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if got := decode[[]core.Transaction](t, rec); len(got) != 1 {
		t.Errorf("user 7 should see one transaction, got %d", len(got))
	}
}

func TestFinancialSummaryEndpoint(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, map[string]any{"date": "2024-03-01", "type": "income", "amount": 2500, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-10", "type": "expense", "amount": 45.50, "categoryId": 1, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-15", "type": "transfer", "amount": 1000, "accountId": 1, "toAccountId": 2})

	rec := do(t, s, http.MethodGet, "/api/financial-summary?month=3&year=2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	sum := decode[core.FinancialSummary](t, rec)
	if sum.TotalIncome.Cents != 250000 {
		t.Errorf("totalIncome = %d cents, want 250000", sum.TotalIncome.Cents)
	}
	if sum.TotalExpenses.Cents != 4550 {
		t.Errorf("totalExpenses = %d cents, want 4550", sum.TotalExpenses.Cents)
	}
	if sum.Balance.Cents != 245450 {
		t.Errorf("balance = %d cents, want 245450", sum.Balance.Cents)
	}

	rec = do(t, s, http.MethodGet, "/api/financial-summary?month=3", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month without year: got %d, want 400", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/financial-summary?month=13&year=2024", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month 13: got %d, want 400", rec.Code)
	}
}

func TestExpensesByCategoryEndpoint(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, map[string]any{"date": "2024-03-05", "type": "expense", "amount": 10, "categoryId": 1, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-06", "type": "expense", "amount": 20, "categoryId": 2, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-07", "type": "expense", "amount": 5, "categoryId": 1, "accountId": 1})

	rec := do(t, s, http.MethodGet, "/api/expenses-by-category?month=3&year=2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d", rec.Code)
	}
	rows := decode[[]core.CategoryExpense](t, rec)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d: %s", len(rows), rec.Body.String())
	}
	if rows[0].CategoryName != "Food" || rows[0].Amount.Cents != 1500 {
		t.Errorf("row 0 = %+v", rows[0])
	}
}

func TestMonthlyOverviewEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/budgets", map[string]any{"month": 3, "year": 2024, "amount": 1000})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create budget: %d %s", rec.Code, rec.Body.String())
	}
	createTransaction(t, s, map[string]any{"date": "2024-03-02", "type": "expense", "amount": 100, "categoryId": 1, "accountId": 1})
	createTransaction(t, s, map[string]any{"date": "2024-03-30", "type": "expense", "amount": 50, "categoryId": 1, "accountId": 1})

	rec = do(t, s, http.MethodGet, "/api/monthly-overview?month=3&year=2024", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("got %d: %s", rec.Code, rec.Body.String())
	}
	ov := decode[core.MonthlyOverview](t, rec)
	if ov.Budget.Cents != 100000 {
		t.Errorf("budget = %d cents, want 100000", ov.Budget.Cents)
	}
	if ov.Spent.Cents != 15000 {
		t.Errorf("spent = %d cents, want 15000", ov.Spent.Cents)
	}
	if len(ov.WeeklySpending) != 5 {
		t.Fatalf("March should have 5 windows, got %d", len(ov.WeeklySpending))
	}
	if ov.WeeklySpending[0].Amount.Cents != 10000 || ov.WeeklySpending[4].Amount.Cents != 5000 {
		t.Errorf("window amounts = %+v", ov.WeeklySpending)
	}

	// No period falls back to the current month.
	rec = do(t, s, http.MethodGet, "/api/monthly-overview", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("no period: got %d, want 200: %s", rec.Code, rec.Body.String())
	}
	now := time.Now().UTC()
	wantWindows := len(core.Period{Month: int(now.Month()), Year: now.Year()}.Windows())
	if got := decode[core.MonthlyOverview](t, rec); len(got.WeeklySpending) != wantWindows {
		t.Errorf("current month should have %d windows, got %d", wantWindows, len(got.WeeklySpending))
	}

	rec = do(t, s, http.MethodGet, "/api/monthly-overview?month=3", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("month without year: got %d, want 400", rec.Code)
	}
}

func TestReportCacheInvalidatedOnWrite(t *testing.T) {
	s := newTestServer(t)

	createTransaction(t, s, map[string]any{"date": "2024-03-01", "type": "income", "amount": 100, "accountId": 1})

	rec := do(t, s, http.MethodGet, "/api/financial-summary?month=3&year=2024", nil)
	first := decode[core.FinancialSummary](t, rec)
	if first.TotalIncome.Cents != 10000 {
		t.Fatalf("totalIncome = %d", first.TotalIncome.Cents)
	}

	// The write must evict the cached summary.
	createTransaction(t, s, map[string]any{"date": "2024-03-02", "type": "income", "amount": 50, "accountId": 1})

	rec = do(t, s, http.MethodGet, "/api/financial-summary?month=3&year=2024", nil)
	second := decode[core.FinancialSummary](t, rec)
	if second.TotalIncome.Cents != 15000 {
		t.Errorf("stale cache: totalIncome = %d cents, want 15000", second.TotalIncome.Cents)
	}
}

func TestBudgetCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/budgets", map[string]any{"month": 3, "year": 2024, "amount": 500, "categoryId": 1})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Budget](t, rec)

	rec = do(t, s, http.MethodPut, fmt.Sprintf("/api/budgets/%d", created.ID), map[string]any{"amount": 750})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Budget](t, rec); got.Amount.Cents != 75000 || got.Month != 3 {
		t.Errorf("updated = %+v", got)
	}

	rec = do(t, s, http.MethodGet, fmt.Sprintf("/api/budgets/%d", created.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: %d %s", rec.Code, rec.Body.String())
	}
	if got := decode[core.Budget](t, rec); got.Amount.Cents != 75000 {
		t.Errorf("get = %+v", got)
	}

	rec = do(t, s, http.MethodGet, "/api/budgets/9999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing budget: got %d, want 404", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/api/budgets?month=3&year=2024", nil)
	if got := decode[[]core.Budget](t, rec); len(got) != 1 {
		t.Errorf("list: got %d budgets, want 1", len(got))
	}

	rec = do(t, s, http.MethodPost, "/api/budgets", map[string]any{"month": 0, "year": 2024, "amount": 10})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid month: got %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodDelete, fmt.Sprintf("/api/budgets/%d", created.ID), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rec.Code)
	}
}

func TestRateLimitOnMutatingRequests(t *testing.T) {
	cfg := &config.Config{
		Port:               "8081",
		DefaultUserID:      1,
		RateLimitPerMinute: 2,
		ReportCacheTTL:     time.Minute,
	}
	store := memory.New()
	s := NewServer(cfg, store, services.NewTransactionService(store, nil))
	t.Cleanup(func() { s.limiter.Stop(); close(s.stopCacheCleanup) })

	body := map[string]any{"name": "Wallet"}
	for i := range 2 {
		rec := do(t, s, http.MethodPost, "/api/accounts", body)
		if rec.Code != http.StatusCreated {
			t.Fatalf("request %d: got %d", i+1, rec.Code)
		}
	}
	rec := do(t, s, http.MethodPost, "/api/accounts", body)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("third write: got %d, want 429", rec.Code)
	}
	// Reads are never rate limited.
	rec = do(t, s, http.MethodGet, "/api/accounts", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read after limit: got %d, want 200", rec.Code)
	}
}

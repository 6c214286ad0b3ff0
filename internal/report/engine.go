// Package report implements the aggregation engine behind the summary
// endpoints. It works purely against the ledger.Store port, so every
// backend gets identical numbers.
package report

import (
	"context"
	"fmt"
	"time"

	"tally/internal/core"
	"tally/internal/ledger"
)

type Engine struct {
	store ledger.Store
	now   func() time.Time
}

func NewEngine(store ledger.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// periodFilter converts an optional month scope into a date-range
// filter understood by every backend.
func periodFilter(p *core.Period) ledger.TransactionFilter {
	if p == nil {
		return ledger.TransactionFilter{}
	}
	return ledger.TransactionFilter{StartDate: p.Start(), EndDate: p.End()}
}

// FinancialSummary totals income and expenses for the user, optionally
// scoped to one month. Transfers move money between the user's own
// accounts and count toward neither side.
func (e *Engine) FinancialSummary(ctx context.Context, userID int64, p *core.Period) (core.FinancialSummary, error) {
	txs, err := e.store.Transactions(ctx, userID, periodFilter(p))
	if err != nil {
		return core.FinancialSummary{}, fmt.Errorf("load transactions: %w", err)
	}

	var income, expenses core.Money
	for _, t := range txs {
		switch t.Type {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return core.FinancialSummary{
		TotalIncome:   income,
		TotalExpenses: expenses,
		Balance:       income.Sub(expenses),
		LastUpdated:   e.now().UTC(),
	}, nil
}

// ExpensesByCategory breaks the user's expenses down per category,
// optionally scoped to one month. Rows appear in order of each
// category's first expense. Expenses whose category no longer exists
// are dropped from the breakdown (they still count in the summary
// totals), as are uncategorized expenses.
func (e *Engine) ExpensesByCategory(ctx context.Context, userID int64, p *core.Period) ([]core.CategoryExpense, error) {
	f := periodFilter(p)
	f.Type = core.Expense
	txs, err := e.store.Transactions(ctx, userID, f)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}

	cats, err := e.store.Categories(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}
	names := make(map[int64]string, len(cats))
	for _, c := range cats {
		names[c.ID] = c.Name
	}

	totals := make(map[int64]core.Money)
	var order []int64
	for _, t := range txs {
		if t.CategoryID == 0 {
			continue
		}
		if _, known := names[t.CategoryID]; !known {
			continue
		}
		if _, seen := totals[t.CategoryID]; !seen {
			order = append(order, t.CategoryID)
		}
		totals[t.CategoryID] = totals[t.CategoryID].Add(t.Amount)
	}

	out := make([]core.CategoryExpense, 0, len(order))
	for _, id := range order {
		out = append(out, core.CategoryExpense{
			CategoryID:   id,
			CategoryName: names[id],
			Amount:       totals[id],
		})
	}
	return out, nil
}

// MonthlyOverview reports budget versus actual spending for one month,
// with the spending split over fixed 7-day windows. Budget is the
// user's overall (category-less) budget record for the month; when
// several exist the oldest wins. Every window is present even when its
// total is zero, and the window totals always sum to Spent.
func (e *Engine) MonthlyOverview(ctx context.Context, userID int64, p core.Period) (core.MonthlyOverview, error) {
	if err := p.Validate(); err != nil {
		return core.MonthlyOverview{}, err
	}

	f := periodFilter(&p)
	f.Type = core.Expense
	txs, err := e.store.Transactions(ctx, userID, f)
	if err != nil {
		return core.MonthlyOverview{}, fmt.Errorf("load transactions: %w", err)
	}

	budgets, err := e.store.Budgets(ctx, userID, p.Month, p.Year)
	if err != nil {
		return core.MonthlyOverview{}, fmt.Errorf("load budgets: %w", err)
	}
	var budget core.Money
	var budgetID int64
	for _, b := range budgets {
		if b.CategoryID != 0 {
			continue
		}
		if budgetID == 0 || b.ID < budgetID {
			budgetID = b.ID
			budget = b.Amount
		}
	}

	windows := p.Windows()
	weekly := make([]core.WeeklySpending, len(windows))
	for i, w := range windows {
		weekly[i] = core.WeeklySpending{Window: w}
	}

	var spent core.Money
	for _, t := range txs {
		spent = spent.Add(t.Amount)
		for i := range weekly {
			if weekly[i].Contains(t.Date) {
				weekly[i].Amount = weekly[i].Amount.Add(t.Amount)
				break
			}
		}
	}

	return core.MonthlyOverview{
		Budget:         budget,
		Spent:          spent,
		WeeklySpending: weekly,
	}, nil
}

// Transactions lists the user's transactions through the engine so the
// HTTP layer has a single read surface. Ordering and filter semantics
// come from the store.
func (e *Engine) Transactions(ctx context.Context, userID int64, f ledger.TransactionFilter) ([]core.Transaction, error) {
	return e.store.Transactions(ctx, userID, f)
}

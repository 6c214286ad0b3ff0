package core

import "time"

// FinancialSummary is the income/expense/balance view for a user,
// optionally narrowed to one month. Transfers never contribute to
// either total. Sums are zero, never absent, when no data matches.
type FinancialSummary struct {
	TotalIncome   Money     `json:"totalIncome"`
	TotalExpenses Money     `json:"totalExpenses"`
	Balance       Money     `json:"balance"`
	LastUpdated   time.Time `json:"lastUpdated"`
}

// CategoryExpense is one row of the per-category expense breakdown,
// annotated with the category's current display name.
type CategoryExpense struct {
	CategoryID   int64  `json:"categoryId"`
	CategoryName string `json:"categoryName"`
	Amount       Money  `json:"amount"`
}

// WeeklySpending is the expense total for one fixed 7-day window.
type WeeklySpending struct {
	Window
	Amount Money `json:"amount"`
}

// MonthlyOverview is the budget-versus-spent view for one month.
// Budget is zero when no overall budget record exists.
type MonthlyOverview struct {
	Budget         Money            `json:"budget"`
	Spent          Money            `json:"spent"`
	WeeklySpending []WeeklySpending `json:"weeklySpending"`
}

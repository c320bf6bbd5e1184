package core

import "github.com/shopspring/decimal"

// FinancialSummary is the monthly snapshot shown on the dashboard.
type FinancialSummary struct {
	TotalIncome      decimal.Decimal
	TotalExpenses    decimal.Decimal
	CashFlow         decimal.Decimal
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
}

// BudgetSummary aggregates a budget's categories.
type BudgetSummary struct {
	TotalBudgeted        decimal.Decimal
	TotalSpent           decimal.Decimal
	Remaining            decimal.Decimal // may be negative when over budget
	ProgressPercentage   float64         // capped at 100
	CategoriesOverBudget int
	CategoriesOnTrack    int
}

// CategoryProgress describes a single budget category.
type CategoryProgress struct {
	Category     BudgetCategory
	Remaining    decimal.Decimal // floored at zero
	Progress     float64
	IsOverBudget bool
}

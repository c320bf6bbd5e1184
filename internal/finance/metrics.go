package finance

import (
	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// percentOf returns num/den*100, or 0 when den is zero.
func percentOf(num, den decimal.Decimal) float64 {
	if den.IsZero() {
		return 0
	}
	return num.Div(den).Mul(hundred).InexactFloat64()
}

func capPercent(p float64) float64 {
	if p > 100 {
		return 100
	}
	return p
}

// TotalAssets sums asset values.
func TotalAssets(assets []core.Asset) decimal.Decimal {
	total := decimal.Zero
	for _, a := range assets {
		total = total.Add(a.Value)
	}
	return total
}

// TotalLiabilities sums outstanding balances.
func TotalLiabilities(liabilities []core.Liability) decimal.Decimal {
	total := decimal.Zero
	for _, l := range liabilities {
		total = total.Add(l.Balance)
	}
	return total
}

// NetWorth is assets minus liabilities and may be negative.
func NetWorth(totalAssets, totalLiabilities decimal.Decimal) decimal.Decimal {
	return totalAssets.Sub(totalLiabilities)
}

// CashFlow is monthly income minus monthly expenses and may be negative.
func CashFlow(monthlyIncome, monthlyExpenses decimal.Decimal) decimal.Decimal {
	return monthlyIncome.Sub(monthlyExpenses)
}

// BudgetProgressPercent is the display progress of a budget line, capped at 100.
// Callers that need the overrun compute spent - allocated themselves.
func BudgetProgressPercent(spent, allocated decimal.Decimal) float64 {
	return capPercent(percentOf(spent, allocated))
}

// RemainingBudget is what is left to spend, floored at zero.
func RemainingBudget(allocated, spent decimal.Decimal) decimal.Decimal {
	return decimal.Max(allocated.Sub(spent), decimal.Zero)
}

// EscapeRatRaceProgress is passive income as a share of monthly expenses, capped at 100.
func EscapeRatRaceProgress(passiveIncome, monthlyExpenses decimal.Decimal) float64 {
	return capPercent(percentOf(passiveIncome, monthlyExpenses))
}

// RightSideQuadrantPercent is the share of total income earned as business
// owner or investor. Not capped.
func RightSideQuadrantPercent(businessIncome, investorIncome, totalIncome decimal.Decimal) float64 {
	return percentOf(businessIncome.Add(investorIncome), totalIncome)
}

// InvestmentReturnPercent is the simple return on an investment. Not capped.
func InvestmentReturnPercent(currentValue, initialValue decimal.Decimal) float64 {
	return percentOf(currentValue.Sub(initialValue), initialValue)
}

// FIProgress is net worth as a share of a financial independence target, capped at 100.
func FIProgress(netWorth, target decimal.Decimal) float64 {
	return capPercent(percentOf(netWorth, target))
}

// DebtToIncomeRatio is monthly debt payments as a percent of monthly income.
func DebtToIncomeRatio(monthlyDebtPayments, monthlyIncome decimal.Decimal) float64 {
	return percentOf(monthlyDebtPayments, monthlyIncome)
}

// SavingsRate is the percent of monthly income left after expenses.
func SavingsRate(monthlyIncome, monthlyExpenses decimal.Decimal) float64 {
	return percentOf(monthlyIncome.Sub(monthlyExpenses), monthlyIncome)
}

// AllocationPercent is a part's share of a whole.
func AllocationPercent(value, total decimal.Decimal) float64 {
	return percentOf(value, total)
}

// EmergencyFundMonths is how many months of expenses the fund covers.
func EmergencyFundMonths(fund, monthlyExpenses decimal.Decimal) float64 {
	if monthlyExpenses.IsZero() {
		return 0
	}
	return fund.Div(monthlyExpenses).InexactFloat64()
}

// MonthlyDebtPayments sums the minimum payments of all liabilities that define one.
func MonthlyDebtPayments(liabilities []core.Liability) decimal.Decimal {
	total := decimal.Zero
	for _, l := range liabilities {
		if l.MinimumPayment.Valid {
			total = total.Add(l.MinimumPayment.Decimal)
		}
	}
	return total
}

// Summary computes the dashboard financial summary from raw records.
func Summary(incomes []core.IncomeEntry, expenses []core.ExpenseEntry, assets []core.Asset, liabilities []core.Liability) core.FinancialSummary {
	income := TotalMonthlyIncome(incomes)
	spend := TotalMonthlyExpenses(expenses)
	totalAssets := TotalAssets(assets)
	totalLiabilities := TotalLiabilities(liabilities)
	return core.FinancialSummary{
		TotalIncome:      income,
		TotalExpenses:    spend,
		CashFlow:         CashFlow(income, spend),
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		NetWorth:         NetWorth(totalAssets, totalLiabilities),
	}
}

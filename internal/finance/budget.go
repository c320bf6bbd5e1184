package finance

import (
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// BudgetSummary aggregates a budget's categories. Remaining is not floored,
// so an overspent budget reports a negative remainder.
func BudgetSummary(b core.Budget) core.BudgetSummary {
	s := core.BudgetSummary{
		TotalBudgeted: decimal.Zero,
		TotalSpent:    decimal.Zero,
	}
	for _, c := range b.Categories {
		s.TotalBudgeted = s.TotalBudgeted.Add(c.AllocatedAmount)
		s.TotalSpent = s.TotalSpent.Add(c.SpentAmount)
		if c.SpentAmount.GreaterThan(c.AllocatedAmount) {
			s.CategoriesOverBudget++
		}
	}
	s.Remaining = s.TotalBudgeted.Sub(s.TotalSpent)
	s.ProgressPercentage = BudgetProgressPercent(s.TotalSpent, s.TotalBudgeted)
	s.CategoriesOnTrack = len(b.Categories) - s.CategoriesOverBudget
	return s
}

// CategoryBreakdown reports progress for every category of a budget.
func CategoryBreakdown(b core.Budget) []core.CategoryProgress {
	rows := make([]core.CategoryProgress, 0, len(b.Categories))
	for _, c := range b.Categories {
		rows = append(rows, core.CategoryProgress{
			Category:     c,
			Remaining:    RemainingBudget(c.AllocatedAmount, c.SpentAmount),
			Progress:     BudgetProgressPercent(c.SpentAmount, c.AllocatedAmount),
			IsOverBudget: c.SpentAmount.GreaterThan(c.AllocatedAmount),
		})
	}
	return rows
}

// CurrentBudget picks the budget whose range contains now. Overlapping
// ranges are resolved in favour of the latest start date, then the most
// recently created budget.
func CurrentBudget(budgets []core.Budget, now time.Time) (core.Budget, bool) {
	var (
		best  core.Budget
		found bool
	)
	for _, b := range budgets {
		if !b.Contains(now) {
			continue
		}
		if !found ||
			b.StartDate.After(best.StartDate) ||
			(b.StartDate.Equal(best.StartDate) && b.CreatedAt.After(best.CreatedAt)) {
			best, found = b, true
		}
	}
	return best, found
}

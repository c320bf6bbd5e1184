// Package goals tracks financial goals and keeps the passive income goal in
// step with the user's actual passive income.
package goals

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const (
	PassiveIncomeGoalName        = "Escape the Rat Race - Passive Income Goal"
	passiveIncomeGoalDescription = "Achieve financial freedom by generating passive income equal to monthly expenses"
)

// passiveIncomeNameKeywords identify passive income goals created before the
// explicit flag existed.
var passiveIncomeNameKeywords = []string{"passive income", "rat race", "financial freedom"}

// IsPassiveIncomeGoal reports whether g is the goal tracking passive income.
func IsPassiveIncomeGoal(g core.FinancialGoal) bool {
	if g.IsPassiveIncomeGoal {
		return true
	}
	name := strings.ToLower(g.Name)
	for _, kw := range passiveIncomeNameKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// Resolution says where a resolved passive income goal came from.
type Resolution int

const (
	// Absent means no goal matched and there were no expenses to size one by.
	Absent Resolution = iota
	// Existing means a stored goal matched.
	Existing
	// Created means a new, unsaved goal was built and must be persisted.
	Created
)

func (r Resolution) String() string {
	switch r {
	case Existing:
		return "existing"
	case Created:
		return "created"
	default:
		return "absent"
	}
}

// ResolvePassiveIncomeGoal finds the passive income goal among existing. A
// goal carrying the explicit flag wins over a name match. When none matches
// and monthly expenses are positive, a new goal targeting those expenses is
// returned with Created; the caller persists it.
func ResolvePassiveIncomeGoal(existing []core.FinancialGoal, monthlyExpenses decimal.Decimal, now time.Time) (core.FinancialGoal, Resolution) {
	for _, g := range existing {
		if g.IsPassiveIncomeGoal {
			return g, Existing
		}
	}
	for _, g := range existing {
		if IsPassiveIncomeGoal(g) {
			return g, Existing
		}
	}
	if !monthlyExpenses.IsPositive() {
		return core.FinancialGoal{}, Absent
	}
	return core.FinancialGoal{
		Name:                PassiveIncomeGoalName,
		Description:         passiveIncomeGoalDescription,
		Type:                core.GoalRetirement,
		TargetAmount:        monthlyExpenses,
		CurrentAmount:       decimal.Zero,
		IsCompleted:         false,
		IsPassiveIncomeGoal: true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, Created
}

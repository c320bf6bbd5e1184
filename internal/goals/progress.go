package goals

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const hoursPerMonth = 30 * 24

// GoalProgress is one row of the progress report.
type GoalProgress struct {
	ID                 string
	Name               string
	Type               core.GoalType
	CurrentAmount      decimal.Decimal
	TargetAmount       decimal.Decimal
	ProgressPercentage float64
	TargetDate         *time.Time
	// MonthsRemaining counts 30-day months until the target date, nil without one.
	MonthsRemaining *int
	OnTrack         bool
}

// Progress reports every incomplete goal. A goal is on track when the share
// of the target already saved is at least the share of the time between
// creation and target date already elapsed. Goals without a target date are
// on track once anything has been saved.
func Progress(goals []core.FinancialGoal, now time.Time) []GoalProgress {
	out := make([]GoalProgress, 0, len(goals))
	for _, g := range goals {
		if g.IsCompleted {
			continue
		}
		raw := rawProgress(g.CurrentAmount, g.TargetAmount)
		p := GoalProgress{
			ID:                 g.ID,
			Name:               g.Name,
			Type:               g.Type,
			CurrentAmount:      g.CurrentAmount,
			TargetAmount:       g.TargetAmount,
			ProgressPercentage: math.Min(raw, 100),
			TargetDate:         g.TargetDate,
		}
		if g.TargetDate == nil {
			p.OnTrack = raw > 0
		} else {
			months := int(math.Ceil(g.TargetDate.Sub(now).Hours() / hoursPerMonth))
			p.MonthsRemaining = &months
			p.OnTrack = raw >= elapsedPercent(g.CreatedAt, *g.TargetDate, now)
		}
		out = append(out, p)
	}
	return out
}

func rawProgress(current, target decimal.Decimal) float64 {
	if !target.IsPositive() {
		return 0
	}
	return current.Div(target).Mul(decimal.NewFromInt(100)).InexactFloat64()
}

// elapsedPercent is how far now is through [start, end], clamped to [0, 100].
func elapsedPercent(start, end, now time.Time) float64 {
	total := end.Sub(start)
	if total <= 0 {
		return 100
	}
	pct := float64(now.Sub(start)) / float64(total) * 100
	return math.Max(0, math.Min(pct, 100))
}

// GoalTotals aggregates all of a user's goals.
type GoalTotals struct {
	TotalCurrent    decimal.Decimal
	TotalTarget     decimal.Decimal
	OverallProgress float64
	Completed       int
	Active          int
	Total           int
}

func Totals(goals []core.FinancialGoal) GoalTotals {
	t := GoalTotals{
		TotalCurrent: decimal.Zero,
		TotalTarget:  decimal.Zero,
		Total:        len(goals),
	}
	for _, g := range goals {
		t.TotalCurrent = t.TotalCurrent.Add(g.CurrentAmount)
		t.TotalTarget = t.TotalTarget.Add(g.TargetAmount)
		if g.IsCompleted {
			t.Completed++
		} else {
			t.Active++
		}
	}
	t.OverallProgress = math.Min(rawProgress(t.TotalCurrent, t.TotalTarget), 100)
	return t
}

// ApplyManualProgress sets a goal's saved amount directly, bypassing the
// passive income throttle.
func ApplyManualProgress(g core.FinancialGoal, current decimal.Decimal, now time.Time) core.FinancialGoal {
	g.CurrentAmount = current
	g.IsCompleted = current.GreaterThanOrEqual(g.TargetAmount)
	g.UpdatedAt = now
	return g
}

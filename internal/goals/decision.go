package goals

import (
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const (
	// DefaultCooldown is the minimum spacing between two goal writes for one user.
	DefaultCooldown = 5 * time.Second
)

// MinSignificantChange is the largest change, in currency units, that is
// still too small to persist.
var MinSignificantChange = decimal.NewFromInt(1)

type Outcome string

const (
	OutcomeApply Outcome = "apply"
	OutcomeSkip  Outcome = "skip"
)

type SkipReason string

const (
	ReasonNone          SkipReason = ""
	ReasonRateLimited   SkipReason = "rate_limited"
	ReasonInsignificant SkipReason = "insignificant_change"
	ReasonNoGoal        SkipReason = "no_goal"
)

// Decision is the result of evaluating a progress update. For OutcomeApply
// the remaining fields are the values to persist on the goal.
type Decision struct {
	Outcome       Outcome
	Reason        SkipReason
	GoalID        string
	CurrentAmount decimal.Decimal
	IsCompleted   bool
	UpdatedAt     time.Time
}

func (d Decision) Applied() bool { return d.Outcome == OutcomeApply }

func skip(goalID string, reason SkipReason) Decision {
	return Decision{Outcome: OutcomeSkip, Reason: reason, GoalID: goalID}
}

// Decide evaluates the write guards in order: the per-user cooldown, then
// the minimum change. lastWrite is ignored when hasLast is false.
func Decide(goal core.FinancialGoal, newAmount decimal.Decimal, lastWrite time.Time, hasLast bool, now time.Time, cooldown time.Duration) Decision {
	if hasLast && now.Sub(lastWrite) < cooldown {
		return skip(goal.ID, ReasonRateLimited)
	}
	if goal.CurrentAmount.Sub(newAmount).Abs().LessThanOrEqual(MinSignificantChange) {
		return skip(goal.ID, ReasonInsignificant)
	}
	return Decision{
		Outcome:       OutcomeApply,
		GoalID:        goal.ID,
		CurrentAmount: newAmount,
		IsCompleted:   newAmount.GreaterThanOrEqual(goal.TargetAmount),
		UpdatedAt:     now,
	}
}

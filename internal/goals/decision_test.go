package goals

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"finboard/internal/core"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func passiveGoal(current, target string) core.FinancialGoal {
	return core.FinancialGoal{
		ID:                  "goal-1",
		Name:                PassiveIncomeGoalName,
		Type:                core.GoalRetirement,
		CurrentAmount:       d(current),
		TargetAmount:        d(target),
		IsPassiveIncomeGoal: true,
	}
}

func TestDecideCooldown(t *testing.T) {
	goal := passiveGoal("100", "1880")

	tests := []struct {
		name    string
		hasLast bool
		elapsed time.Duration
		want    Outcome
		reason  SkipReason
	}{
		{"no previous write", false, 0, OutcomeApply, ReasonNone},
		{"two seconds later", true, 2 * time.Second, OutcomeSkip, ReasonRateLimited},
		{"just under cooldown", true, DefaultCooldown - time.Millisecond, OutcomeSkip, ReasonRateLimited},
		{"exactly cooldown", true, DefaultCooldown, OutcomeApply, ReasonNone},
		{"six seconds later", true, 6 * time.Second, OutcomeApply, ReasonNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			now := t0.Add(tt.elapsed)
			got := Decide(goal, d("150"), t0, tt.hasLast, now, DefaultCooldown)
			assert.Equal(t, tt.want, got.Outcome)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, "goal-1", got.GoalID)
		})
	}
}

func TestDecideMinimumChange(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		want   Outcome
	}{
		{"unchanged", "100", OutcomeSkip},
		{"up exactly one", "101.00", OutcomeSkip},
		{"down exactly one", "99", OutcomeSkip},
		{"up one and a cent", "101.01", OutcomeApply},
		{"down one and a cent", "98.99", OutcomeApply},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(passiveGoal("100", "1880"), d(tt.amount), time.Time{}, false, t0, DefaultCooldown)
			assert.Equal(t, tt.want, got.Outcome)
			if tt.want == OutcomeSkip {
				assert.Equal(t, ReasonInsignificant, got.Reason)
			}
		})
	}
}

func TestDecideRateLimitCheckedFirst(t *testing.T) {
	got := Decide(passiveGoal("100", "1880"), d("100.5"), t0, true, t0.Add(time.Second), DefaultCooldown)
	assert.Equal(t, ReasonRateLimited, got.Reason)
}

func TestDecideApplyValues(t *testing.T) {
	got := Decide(passiveGoal("100", "1880"), d("1880"), time.Time{}, false, t0, DefaultCooldown)

	assert.True(t, got.Applied())
	assert.True(t, got.CurrentAmount.Equal(d("1880")))
	assert.True(t, got.IsCompleted)
	assert.Equal(t, t0, got.UpdatedAt)

	got = Decide(passiveGoal("100", "1880"), d("1879.99"), time.Time{}, false, t0, DefaultCooldown)
	assert.False(t, got.IsCompleted)
}

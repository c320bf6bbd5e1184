package goals

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// LastWriteStore remembers when each user's goal progress was last written.
//
// Update must run fn and store its result as one atomic step per user, so two
// concurrent callers cannot both pass the cooldown. Losing entries is
// acceptable: a forgotten user simply gets one write sooner than the
// cooldown would otherwise allow.
type LastWriteStore interface {
	Update(ctx context.Context, userID string, fn func(last time.Time, ok bool) (next time.Time, record bool)) error
}

// Observer receives every decision the coordinator makes.
type Observer interface {
	ObserveDecision(Decision)
}

// Coordinator decides whether passive income progress is written to the
// goal. It never touches goal storage itself.
type Coordinator struct {
	store    LastWriteStore
	cooldown time.Duration
	now      func() time.Time
	observer Observer
}

type Option func(*Coordinator)

// WithCooldown overrides DefaultCooldown.
func WithCooldown(d time.Duration) Option {
	return func(c *Coordinator) { c.cooldown = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithObserver(o Observer) Option {
	return func(c *Coordinator) { c.observer = o }
}

func NewCoordinator(store LastWriteStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:    store,
		cooldown: DefaultCooldown,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cooldown returns the per-user spacing enforced between writes.
func (c *Coordinator) Cooldown() time.Duration { return c.cooldown }

// UpdateProgress evaluates a new passive income figure for the user's goal.
// An applied decision is recorded as the user's last write in the same
// atomic step that checked the cooldown. If the store fails the coordinator
// fails open and decides as though the user had never written.
func (c *Coordinator) UpdateProgress(ctx context.Context, userID string, goal core.FinancialGoal, newAmount decimal.Decimal) Decision {
	now := c.now()

	var decision Decision
	err := c.store.Update(ctx, userID, func(last time.Time, ok bool) (time.Time, bool) {
		decision = Decide(goal, newAmount, last, ok, now, c.cooldown)
		return now, decision.Applied()
	})
	if err != nil {
		slog.WarnContext(ctx, "Goal cooldown store unavailable, deciding without it",
			"user_id", userID,
			"goal_id", goal.ID,
			"error", err)
		decision = Decide(goal, newAmount, time.Time{}, false, now, c.cooldown)
	}

	c.observe(decision)
	return decision
}

// NoGoal records and returns the skip used when the user has no passive
// income goal to update.
func (c *Coordinator) NoGoal() Decision {
	d := skip("", ReasonNoGoal)
	c.observe(d)
	return d
}

func (c *Coordinator) observe(d Decision) {
	if c.observer != nil {
		c.observer.ObserveDecision(d)
	}
}

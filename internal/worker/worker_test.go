package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/goals"
	"finboard/internal/ports"
	"finboard/internal/services"
	"finboard/internal/storage/memory"
	"finboard/internal/telemetry"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type failingSnapshots struct {
	*memory.Store
}

func (failingSnapshots) UpsertSnapshot(context.Context, core.NetWorthSnapshot) (core.NetWorthSnapshot, error) {
	return core.NetWorthSnapshot{}, errors.New("disk full")
}

type sliceConsumer struct {
	msgs []*amqp.FinanceChangedMessage
	errs []error
}

func (c *sliceConsumer) ConsumeFinanceChanged(ctx context.Context, handler func(context.Context, *amqp.FinanceChangedMessage) error) error {
	for _, m := range c.msgs {
		c.errs = append(c.errs, handler(ctx, m))
	}
	return nil
}

type fixture struct {
	clock   *testClock
	store   *memory.Store
	entries *services.EntryService
	worker  *RefreshWorker
	metrics *telemetry.Metrics
}

func newFixture(t *testing.T, repo ports.Repository, store *memory.Store) *fixture {
	t.Helper()
	clock := &testClock{t: testNow}
	now := clock.now
	metrics := telemetry.New()
	coordinator := goals.NewCoordinator(goals.NewMemoryClock(10, goals.DefaultCooldown), goals.WithClock(now))
	fin := services.NewFinanceService(repo, coordinator, services.WithFinanceClock(now))
	return &fixture{
		clock:   clock,
		store:   store,
		entries: services.NewEntryService(store, nil),
		worker:  NewRefreshWorker(fin, services.NewSnapshotService(repo).WithClock(now), metrics),
		metrics: metrics,
	}
}

func (f *fixture) seed(t *testing.T, userID string) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.entries.CreateIncome(ctx, userID, core.IncomeEntry{
		Source: "Dividend portfolio", Amount: decimal.NewFromInt(400), Frequency: core.FrequencyMonthly, IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.entries.CreateExpense(ctx, userID, core.ExpenseEntry{
		Category: "Rent", Amount: decimal.NewFromInt(1500), Frequency: core.FrequencyMonthly, IsRecurring: true,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.entries.CreateAsset(ctx, userID, core.Asset{
		Name: "Brokerage", Type: core.AssetStocksFundsCDs, Value: decimal.NewFromInt(20000),
	}); err != nil {
		t.Fatal(err)
	}
}

func counter(t *testing.T, m *telemetry.Metrics, name, body string) {
	t.Helper()
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(body), name); err != nil {
		t.Error(err)
	}
}

func TestHandleFinanceChanged(t *testing.T) {
	store := memory.New().WithClock(func() time.Time { return testNow })
	f := newFixture(t, store, store)
	f.seed(t, "alice")
	ctx := context.Background()

	if err := f.worker.HandleFinanceChanged(ctx, amqp.NewFinanceChangedMessage("alice", amqp.ChangeIncome, "")); err != nil {
		t.Fatalf("HandleFinanceChanged: %v", err)
	}

	list, err := store.ListGoals(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || !list[0].IsPassiveIncomeGoal {
		t.Fatalf("expected the passive income goal, got %+v", list)
	}
	if !list[0].CurrentAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("goal progress = %s, want 400", list[0].CurrentAmount)
	}

	snaps, err := store.ListSnapshots(ctx, "alice", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	if len(snaps) != 1 || !snaps[0].NetWorth.Equal(decimal.NewFromInt(20000)) {
		t.Errorf("unexpected snapshots %+v", snaps)
	}

	counter(t, f.metrics, "finboard_worker_messages_total", `
# HELP finboard_worker_messages_total Finance changed messages handled by the worker, by result.
# TYPE finboard_worker_messages_total counter
finboard_worker_messages_total{result="ok"} 1
`)
}

func TestHandleFinanceChangedWithinCooldown(t *testing.T) {
	store := memory.New().WithClock(func() time.Time { return testNow })
	f := newFixture(t, store, store)
	f.seed(t, "alice")

	consumer := &sliceConsumer{msgs: []*amqp.FinanceChangedMessage{
		amqp.NewFinanceChangedMessage("alice", amqp.ChangeIncome, "1"),
		amqp.NewFinanceChangedMessage("alice", amqp.ChangeExpense, "2"),
	}}
	if err := f.worker.Run(context.Background(), consumer); err != nil {
		t.Fatal(err)
	}
	for i, err := range consumer.errs {
		if err != nil {
			t.Errorf("message %d: %v", i, err)
		}
	}

	snaps, _ := store.ListSnapshots(context.Background(), "alice", time.Time{})
	if len(snaps) != 1 {
		t.Errorf("same-day snapshots should collapse, got %d", len(snaps))
	}
}

func TestHandleFinanceChangedStorageFailure(t *testing.T) {
	store := memory.New().WithClock(func() time.Time { return testNow })
	f := newFixture(t, failingSnapshots{store}, store)
	f.seed(t, "alice")

	err := f.worker.HandleFinanceChanged(context.Background(), amqp.NewFinanceChangedMessage("alice", amqp.ChangeAsset, ""))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected snapshot failure, got %v", err)
	}

	counter(t, f.metrics, "finboard_worker_messages_total", `
# HELP finboard_worker_messages_total Finance changed messages handled by the worker, by result.
# TYPE finboard_worker_messages_total counter
finboard_worker_messages_total{result="error"} 1
`)
}

func TestSnapshotAll(t *testing.T) {
	store := memory.New().WithClock(func() time.Time { return testNow })
	f := newFixture(t, store, store)
	f.seed(t, "alice")
	f.seed(t, "bob")

	written, err := f.worker.SnapshotAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if written != 2 {
		t.Errorf("written = %d, want 2", written)
	}
	counter(t, f.metrics, "finboard_networth_snapshots_total", `
# HELP finboard_networth_snapshots_total Net worth snapshots written, by result.
# TYPE finboard_networth_snapshots_total counter
finboard_networth_snapshots_total{result="ok"} 2
`)
}

func TestRefreshGoalsCatchesUpSkippedEvent(t *testing.T) {
	store := memory.New().WithClock(func() time.Time { return testNow })
	f := newFixture(t, store, store)
	f.seed(t, "alice")
	ctx := context.Background()

	if err := f.worker.HandleFinanceChanged(ctx, amqp.NewFinanceChangedMessage("alice", amqp.ChangeIncome, "1")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.entries.CreateIncome(ctx, "alice", core.IncomeEntry{
		Source: "Rental flat", Amount: decimal.NewFromInt(900), Frequency: core.FrequencyMonthly, IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}
	// inside the cooldown, the goal keeps its old figure
	if err := f.worker.HandleFinanceChanged(ctx, amqp.NewFinanceChangedMessage("alice", amqp.ChangeIncome, "2")); err != nil {
		t.Fatal(err)
	}

	f.clock.advance(time.Minute)
	applied, err := f.worker.RefreshGoals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}

	list, err := store.ListGoals(ctx, "alice")
	if err != nil || len(list) != 1 {
		t.Fatalf("goals: %v %v", list, err)
	}
	if !list[0].CurrentAmount.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("goal progress = %s, want 1300", list[0].CurrentAmount)
	}
}

func TestScheduler(t *testing.T) {
	store := memory.New()
	f := newFixture(t, store, store)

	if _, err := NewScheduler(context.Background(), Schedule{Snapshots: "not a schedule"}, f.worker, nil); err == nil {
		t.Fatal("expected an invalid snapshot spec to be rejected")
	}
	if _, err := NewScheduler(context.Background(), Schedule{GoalRefresh: "often"}, f.worker, nil); err == nil {
		t.Fatal("expected an invalid goal refresh spec to be rejected")
	}

	s, err := NewScheduler(context.Background(), Schedule{Snapshots: "0 2 * * *"}, f.worker, nil)
	if err != nil {
		t.Fatal(err)
	}
	s.Start()
	defer s.Stop(context.Background())

	if s.Jobs() != 1 {
		t.Errorf("Jobs() = %d, want 1", s.Jobs())
	}
	next := s.Next()
	if next.IsZero() || next.Hour() != 2 || next.Minute() != 0 {
		t.Errorf("Next() = %v, want 02:00", next)
	}
}

func TestSchedulerBothJobs(t *testing.T) {
	store := memory.New()
	f := newFixture(t, store, store)

	s, err := NewScheduler(context.Background(), Schedule{Snapshots: "0 2 * * *", GoalRefresh: "@every 1h"}, f.worker, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s.Jobs() != 2 {
		t.Errorf("Jobs() = %d, want 2", s.Jobs())
	}
}

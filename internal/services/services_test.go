package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/goals"
	"finboard/internal/storage/memory"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func amount(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.FinanceChangedMessage
	err  error
}

func (p *recordingPublisher) PublishFinanceChanged(_ context.Context, msg *amqp.FinanceChangedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

type fixture struct {
	clock     *testClock
	repo      *memory.Store
	finance   *FinanceService
	entries   *EntryService
	snapshots *SnapshotService
	publisher *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &testClock{t: testNow}
	repo := memory.New().WithClock(clock.Now)
	coordinator := goals.NewCoordinator(goals.NewMemoryClock(100, goals.DefaultCooldown), goals.WithClock(clock.Now))
	summaries := cache.NewLRUCache[core.FinancialSummary](10, time.Minute)
	fin := NewFinanceService(repo, coordinator, WithSummaryCache(summaries), WithFinanceClock(clock.Now))
	pub := &recordingPublisher{}
	entries := NewEntryService(repo, pub)
	entries.OnChange(fin.InvalidateSummary)
	return &fixture{
		clock:     clock,
		repo:      repo,
		finance:   fin,
		entries:   entries,
		snapshots: NewSnapshotService(repo).WithClock(clock.Now),
		publisher: pub,
	}
}

// seed stores the salary + dividends scenario for user.
func (f *fixture) seed(t *testing.T, user string) {
	t.Helper()
	ctx := context.Background()
	incomes := []core.IncomeEntry{
		{Source: "Salary", Amount: amount("5000"), Frequency: core.FrequencyMonthly, IsActive: true},
		{Source: "Dividend portfolio", Amount: amount("400"), Frequency: core.FrequencyMonthly, IsActive: true},
	}
	for _, in := range incomes {
		if _, err := f.entries.CreateIncome(ctx, user, in); err != nil {
			t.Fatalf("CreateIncome: %v", err)
		}
	}
	expenses := []core.ExpenseEntry{
		{Category: "Rent", Amount: amount("1500"), Frequency: core.FrequencyMonthly, IsRecurring: true},
		{Category: "Groceries", Amount: amount("400"), Frequency: core.FrequencyMonthly, IsRecurring: true},
		{Category: "Vacation", Amount: amount("3000"), Frequency: core.FrequencyYearly, IsRecurring: false},
	}
	for _, e := range expenses {
		if _, err := f.entries.CreateExpense(ctx, user, e); err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
	if _, err := f.entries.CreateAsset(ctx, user, core.Asset{Name: "Brokerage", Type: core.AssetStocksFundsCDs, Value: amount("20000")}); err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if _, err := f.entries.CreateLiability(ctx, user, core.Liability{Name: "Car loan", Type: "auto", Balance: amount("5000")}); err != nil {
		t.Fatalf("CreateLiability: %v", err)
	}
}

func TestComputeFinancialSummary(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	s, err := f.finance.ComputeFinancialSummary(ctx, "user-1")
	if err != nil {
		t.Fatalf("ComputeFinancialSummary() error = %v", err)
	}
	checks := map[string][2]decimal.Decimal{
		"income":      {s.TotalIncome, amount("5400")},
		"expenses":    {s.TotalExpenses, amount("1900")},
		"cash flow":   {s.CashFlow, amount("3500")},
		"assets":      {s.TotalAssets, amount("20000")},
		"liabilities": {s.TotalLiabilities, amount("5000")},
		"net worth":   {s.NetWorth, amount("15000")},
	}
	for name, c := range checks {
		if !c[0].Equal(c[1]) {
			t.Errorf("%s = %s, want %s", name, c[0], c[1])
		}
	}

	other, err := f.finance.ComputeFinancialSummary(ctx, "user-2")
	if err != nil {
		t.Fatalf("ComputeFinancialSummary() error = %v", err)
	}
	if !other.NetWorth.IsZero() || !other.TotalIncome.IsZero() {
		t.Errorf("records leaked across users: %+v", other)
	}
}

func TestComputeFinancialSummary_CacheInvalidatedOnChange(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	if _, err := f.finance.ComputeFinancialSummary(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.entries.CreateIncome(ctx, "user-1", core.IncomeEntry{
		Source: "Consulting", Amount: amount("600"), Frequency: core.FrequencyMonthly, IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}

	s, err := f.finance.ComputeFinancialSummary(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !s.TotalIncome.Equal(amount("6000")) {
		t.Errorf("TotalIncome = %s, want 6000 after invalidation", s.TotalIncome)
	}
}

func TestComputeEscapeProgress(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")

	p, err := f.finance.ComputeEscapeProgress(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !p.PassiveIncome.Equal(amount("400")) || !p.ActiveIncome.Equal(amount("5000")) {
		t.Errorf("unexpected breakdown %+v", p)
	}
	want := 400.0 / 1900.0 * 100
	if diff := p.Percent - want; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("Percent = %v, want %v", p.Percent, want)
	}
}

func TestMaybeUpdatePassiveIncomeGoal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	first, err := f.finance.MaybeUpdatePassiveIncomeGoal(ctx, "user-1", amount("400"))
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if !first.Applied() {
		t.Fatalf("expected first update to apply, got %+v", first)
	}

	stored, err := f.repo.GetGoal(ctx, "user-1", first.GoalID)
	if err != nil {
		t.Fatalf("GetGoal: %v", err)
	}
	if !stored.IsPassiveIncomeGoal || stored.Name != goals.PassiveIncomeGoalName {
		t.Errorf("unexpected goal %+v", stored)
	}
	if !stored.TargetAmount.Equal(amount("1900")) || !stored.CurrentAmount.Equal(amount("400")) {
		t.Errorf("goal amounts = %s/%s, want 400/1900", stored.CurrentAmount, stored.TargetAmount)
	}

	// within the cooldown
	f.clock.Advance(2 * time.Second)
	second, err := f.finance.MaybeUpdatePassiveIncomeGoal(ctx, "user-1", amount("700"))
	if err != nil {
		t.Fatal(err)
	}
	if second.Reason != goals.ReasonRateLimited {
		t.Errorf("second decision = %+v, want rate limited", second)
	}

	// change of at most one unit
	f.clock.Advance(6 * time.Second)
	third, err := f.finance.MaybeUpdatePassiveIncomeGoal(ctx, "user-1", amount("400.50"))
	if err != nil {
		t.Fatal(err)
	}
	if third.Reason != goals.ReasonInsignificant {
		t.Errorf("third decision = %+v, want insignificant", third)
	}

	fourth, err := f.finance.MaybeUpdatePassiveIncomeGoal(ctx, "user-1", amount("1900"))
	if err != nil {
		t.Fatal(err)
	}
	if !fourth.Applied() || !fourth.IsCompleted {
		t.Errorf("fourth decision = %+v, want applied and completed", fourth)
	}

	list, _ := f.repo.ListGoals(ctx, "user-1")
	if len(list) != 1 {
		t.Errorf("expected exactly one passive income goal, got %d", len(list))
	}
}

func TestMaybeUpdatePassiveIncomeGoal_NoExpensesMeansNoGoal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d, err := f.finance.MaybeUpdatePassiveIncomeGoal(ctx, "user-1", amount("250"))
	if err != nil {
		t.Fatal(err)
	}
	if d.Applied() || d.Reason != goals.ReasonNoGoal {
		t.Errorf("decision = %+v, want no_goal skip", d)
	}
	list, _ := f.repo.ListGoals(ctx, "user-1")
	if len(list) != 0 {
		t.Errorf("no goal should be created without expenses, got %d", len(list))
	}
}

func TestRefreshPassiveIncomeGoal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")

	d, err := f.finance.RefreshPassiveIncomeGoal(context.Background(), "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !d.Applied() || !d.CurrentAmount.Equal(amount("400")) {
		t.Errorf("decision = %+v, want applied with 400", d)
	}
}

func TestUpdateGoalProgress(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	g, err := f.entries.CreateGoal(ctx, "user-1", core.FinancialGoal{
		Name: "Emergency fund", Type: core.GoalEmergencyFund, TargetAmount: amount("1000"),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := f.finance.UpdateGoalProgress(ctx, "user-1", g.ID, amount("1000"))
	if err != nil {
		t.Fatal(err)
	}
	if !updated.IsCompleted {
		t.Error("goal reaching its target should be completed")
	}

	if _, err := f.finance.UpdateGoalProgress(ctx, "user-2", g.ID, amount("10")); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("other user's goal: error = %v, want ErrNotFound", err)
	}
	if _, err := f.finance.UpdateGoalProgress(ctx, "user-1", g.ID, amount("-1")); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount: error = %v, want ErrInvalidAmount", err)
	}
}

func TestCurrentBudget(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	march := core.Budget{
		Name:        "March",
		TotalAmount: amount("2000"),
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Categories: []core.BudgetCategory{
			{Name: "Food", AllocatedAmount: amount("500"), SpentAmount: amount("600")},
			{Name: "Fun", AllocatedAmount: amount("200"), SpentAmount: amount("50")},
		},
	}
	if _, err := f.entries.CreateBudget(ctx, "user-1", march); err != nil {
		t.Fatal(err)
	}

	b, ok, err := f.finance.CurrentBudget(ctx, "user-1")
	if err != nil || !ok {
		t.Fatalf("CurrentBudget() = %v, %v", ok, err)
	}
	s := f.finance.ComputeBudgetSummary(b)
	if !s.TotalBudgeted.Equal(amount("700")) || !s.TotalSpent.Equal(amount("650")) {
		t.Errorf("summary = %+v", s)
	}
	if s.CategoriesOverBudget != 1 || s.CategoriesOnTrack != 1 {
		t.Errorf("over/on track = %d/%d, want 1/1", s.CategoriesOverBudget, s.CategoriesOnTrack)
	}
	for _, c := range b.Categories {
		if c.Color != core.DefaultCategoryColor {
			t.Errorf("category %s color = %q, want default", c.Name, c.Color)
		}
	}

	_, ok, err = f.finance.CurrentBudget(ctx, "user-2")
	if err != nil || ok {
		t.Errorf("user without budgets: ok = %v, err = %v", ok, err)
	}
}

func TestCreateBudget_RejectsOverlap(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	base := core.Budget{
		Name:        "March",
		TotalAmount: amount("2000"),
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	if _, err := f.entries.CreateBudget(ctx, "user-1", base); err != nil {
		t.Fatal(err)
	}

	overlapping := base
	overlapping.Name = "Mid March"
	overlapping.StartDate = time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	overlapping.EndDate = time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if _, err := f.entries.CreateBudget(ctx, "user-1", overlapping); !errors.Is(err, core.ErrBudgetOverlap) {
		t.Errorf("error = %v, want ErrBudgetOverlap", err)
	}

	// another user is unaffected
	if _, err := f.entries.CreateBudget(ctx, "user-2", overlapping); err != nil {
		t.Errorf("other user's budget: %v", err)
	}

	reversed := base
	reversed.StartDate, reversed.EndDate = base.EndDate.AddDate(0, 2, 0), base.StartDate.AddDate(0, 2, 0)
	if _, err := f.entries.CreateBudget(ctx, "user-1", reversed); !errors.Is(err, core.ErrInvalidDateRange) {
		t.Errorf("error = %v, want ErrInvalidDateRange", err)
	}
}

func TestEntryService_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
		want error
	}{
		{"empty user", func() error {
			_, err := f.entries.CreateIncome(ctx, "", core.IncomeEntry{Source: "Salary", Frequency: core.FrequencyMonthly})
			return err
		}, core.ErrEmptyUserID},
		{"empty source", func() error {
			_, err := f.entries.CreateIncome(ctx, "u", core.IncomeEntry{Amount: amount("1"), Frequency: core.FrequencyMonthly})
			return err
		}, core.ErrEmptySource},
		{"negative expense", func() error {
			_, err := f.entries.CreateExpense(ctx, "u", core.ExpenseEntry{Category: "Rent", Amount: amount("-5"), Frequency: core.FrequencyMonthly})
			return err
		}, core.ErrInvalidAmount},
		{"unknown frequency", func() error {
			_, err := f.entries.CreateExpense(ctx, "u", core.ExpenseEntry{Category: "Rent", Amount: amount("5"), Frequency: "daily"})
			return err
		}, core.ErrInvalidFrequency},
		{"unknown asset type", func() error {
			_, err := f.entries.CreateAsset(ctx, "u", core.Asset{Name: "Boat", Type: "BOATS", Value: amount("5")})
			return err
		}, core.ErrInvalidAssetType},
		{"unknown goal type", func() error {
			_, err := f.entries.CreateGoal(ctx, "u", core.FinancialGoal{Name: "X", Type: "LOTTERY"})
			return err
		}, core.ErrInvalidGoalType},
		{"bad category color", func() error {
			_, err := f.entries.AddBudgetCategory(ctx, "u", "b", core.BudgetCategory{Name: "Food", Color: "red"})
			return err
		}, core.ErrInvalidColor},
		{"negative spent", func() error {
			_, err := f.entries.UpdateCategorySpent(ctx, "u", "c", amount("-1"))
			return err
		}, core.ErrInvalidAmount},
		{"update missing income", func() error {
			_, err := f.entries.UpdateIncome(ctx, "u", core.IncomeEntry{ID: "missing", Source: "Salary", Frequency: core.FrequencyMonthly})
			return err
		}, core.ErrNotFound},
		{"delete missing asset", func() error {
			return f.entries.DeleteAsset(ctx, "u", "missing")
		}, core.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}

	if len(f.publisher.msgs) != 0 {
		t.Errorf("rejected mutations must not publish, got %d messages", len(f.publisher.msgs))
	}
}

func TestEntryService_PublishesChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in, err := f.entries.CreateIncome(ctx, "user-1", core.IncomeEntry{Source: "Rental unit", Amount: amount("900"), Frequency: core.FrequencyMonthly, IsActive: true})
	if err != nil {
		t.Fatal(err)
	}
	if err := f.entries.DeleteIncome(ctx, "user-1", in.ID); err != nil {
		t.Fatal(err)
	}

	if len(f.publisher.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(f.publisher.msgs))
	}
	for _, m := range f.publisher.msgs {
		if m.UserID != "user-1" || m.Kind != amqp.ChangeIncome || m.EntityID != in.ID {
			t.Errorf("unexpected message %+v", m)
		}
	}
}

func TestEntryService_PublishFailureDoesNotFailRequest(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")

	if _, err := f.entries.CreateAsset(context.Background(), "user-1", core.Asset{Name: "Cash", Type: core.AssetCashEquivalents, Value: amount("100")}); err != nil {
		t.Fatalf("CreateAsset() error = %v, want nil despite publish failure", err)
	}
}

func TestEntryService_NilPublisher(t *testing.T) {
	entries := NewEntryService(memory.New(), nil)
	if _, err := entries.CreateExpense(context.Background(), "user-1", core.ExpenseEntry{Category: "Rent", Amount: amount("1"), Frequency: core.FrequencyMonthly}); err != nil {
		t.Fatalf("CreateExpense() error = %v", err)
	}
}

func TestSnapshotService(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	first, err := f.snapshots.CreateSnapshot(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if !first.NetWorth.Equal(amount("15000")) {
		t.Errorf("NetWorth = %s, want 15000", first.NetWorth)
	}

	// same day again after the balance changed replaces the row
	if _, err := f.entries.CreateAsset(ctx, "user-1", core.Asset{Name: "Cash", Type: core.AssetCashEquivalents, Value: amount("1000")}); err != nil {
		t.Fatal(err)
	}
	f.clock.Advance(time.Hour)
	if _, err := f.snapshots.CreateSnapshot(ctx, "user-1"); err != nil {
		t.Fatal(err)
	}

	history, err := f.snapshots.History(ctx, "user-1", "ALL")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || !history[0].NetWorth.Equal(amount("16000")) {
		t.Errorf("history = %+v, want one snapshot at 16000", history)
	}
}

func TestSnapshotService_HistoryWithoutSnapshots(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")

	history, err := f.snapshots.History(context.Background(), "user-1", "6M")
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 || history[0].ID != "" || !history[0].NetWorth.Equal(amount("15000")) {
		t.Errorf("history = %+v, want a single live point", history)
	}
}

func TestSnapshotService_Performance(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	old := core.NetWorthSnapshot{
		UserID:   "user-1",
		Date:     time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC),
		NetWorth: amount("10000"),
	}
	if _, err := f.repo.UpsertSnapshot(ctx, old); err != nil {
		t.Fatal(err)
	}

	perf, err := f.snapshots.Performance(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if perf.YearlyGrowth != 50 || !perf.YearlyGrowthAmount.Equal(amount("5000")) {
		t.Errorf("performance = %+v, want 50%% growth", perf)
	}

	recent, err := f.snapshots.History(ctx, "user-1", "6M")
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 1 || recent[0].ID != "" {
		t.Errorf("a snapshot older than six months must not appear in 6M history: %+v", recent)
	}
}

func TestSnapshotAll(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	f.seed(t, "user-2")

	n, err := f.snapshots.SnapshotAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("SnapshotAll() = %d, want 2", n)
	}
}

// slowReads delays list calls like a database round trip so concurrent
// callers interleave between their read and their write.
type slowReads struct {
	*memory.Store
	delay time.Duration
}

func (s slowReads) ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error) {
	time.Sleep(s.delay)
	return s.Store.ListGoals(ctx, userID)
}

func (s slowReads) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	time.Sleep(s.delay)
	return s.Store.ListBudgets(ctx, userID)
}

func TestMaybeUpdatePassiveIncomeGoal_ConcurrentCallsCreateOneGoal(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	coordinator := goals.NewCoordinator(goals.NewMemoryClock(100, goals.DefaultCooldown), goals.WithClock(f.clock.Now))
	fin := NewFinanceService(slowReads{Store: f.repo, delay: 10 * time.Millisecond}, coordinator, WithFinanceClock(f.clock.Now))

	const callers = 5
	errs := make(chan error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := fin.MaybeUpdatePassiveIncomeGoal(context.Background(), "user-1", amount("400"))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Errorf("MaybeUpdatePassiveIncomeGoal: %v", err)
		}
	}

	list, _ := f.repo.ListGoals(context.Background(), "user-1")
	if len(list) != 1 {
		t.Fatalf("passive income goals = %d, want 1", len(list))
	}
	if !list[0].CurrentAmount.Equal(amount("400")) {
		t.Errorf("goal progress = %s, want 400", list[0].CurrentAmount)
	}
}

// staleGoalRead misses goals on its first read, as when another process
// creates the goal right after the read.
type staleGoalRead struct {
	*memory.Store
	mu    sync.Mutex
	reads int
}

func (s *staleGoalRead) ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error) {
	s.mu.Lock()
	s.reads++
	first := s.reads == 1
	s.mu.Unlock()
	if first {
		return nil, nil
	}
	return s.Store.ListGoals(ctx, userID)
}

func TestPassiveIncomeGoal_RereadsAfterCreateConflict(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	ctx := context.Background()

	other, err := f.repo.CreateGoal(ctx, core.FinancialGoal{
		UserID:              "user-1",
		Name:                goals.PassiveIncomeGoalName,
		Type:                core.GoalRetirement,
		TargetAmount:        amount("1900"),
		IsPassiveIncomeGoal: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	coordinator := goals.NewCoordinator(goals.NewMemoryClock(100, goals.DefaultCooldown), goals.WithClock(f.clock.Now))
	fin := NewFinanceService(&staleGoalRead{Store: f.repo}, coordinator, WithFinanceClock(f.clock.Now))

	got, ok, err := fin.PassiveIncomeGoal(ctx, "user-1")
	if err != nil {
		t.Fatalf("PassiveIncomeGoal: %v", err)
	}
	if !ok || got.ID != other.ID {
		t.Errorf("got %+v (ok=%v), want the stored goal %s", got, ok, other.ID)
	}
	list, _ := f.repo.ListGoals(ctx, "user-1")
	if len(list) != 1 {
		t.Errorf("goals = %d, want 1", len(list))
	}
}

func TestRefreshAllPassiveIncomeGoals_CatchesUpAfterCooldown(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "user-1")
	f.seed(t, "user-2")
	ctx := context.Background()

	applied, err := f.finance.RefreshAllPassiveIncomeGoals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}

	// a second change inside the cooldown is skipped
	if _, err := f.entries.CreateIncome(ctx, "user-1", core.IncomeEntry{
		Source: "Rental flat", Amount: amount("900"), Frequency: core.FrequencyMonthly, IsActive: true,
	}); err != nil {
		t.Fatal(err)
	}
	d, err := f.finance.RefreshPassiveIncomeGoal(ctx, "user-1")
	if err != nil {
		t.Fatal(err)
	}
	if d.Reason != goals.ReasonRateLimited {
		t.Fatalf("decision = %+v, want rate limited", d)
	}

	f.clock.Advance(6 * time.Second)
	applied, err = f.finance.RefreshAllPassiveIncomeGoals(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if applied != 1 {
		t.Errorf("applied = %d, want 1", applied)
	}
	g, ok, err := f.finance.PassiveIncomeGoal(ctx, "user-1")
	if err != nil || !ok {
		t.Fatalf("PassiveIncomeGoal: %v %v", ok, err)
	}
	if !g.CurrentAmount.Equal(amount("1300")) {
		t.Errorf("goal progress = %s, want 1300", g.CurrentAmount)
	}
}

func TestCreateBudget_ConcurrentOverlapRejected(t *testing.T) {
	f := newFixture(t)
	entries := NewEntryService(slowReads{Store: f.repo, delay: 10 * time.Millisecond}, nil)

	march := core.Budget{
		Name:        "March",
		TotalAmount: amount("2000"),
		StartDate:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := entries.CreateBudget(context.Background(), "user-1", march)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var created, overlaps int
	for err := range errs {
		switch {
		case err == nil:
			created++
		case errors.Is(err, core.ErrBudgetOverlap):
			overlaps++
		default:
			t.Errorf("CreateBudget: %v", err)
		}
	}
	if created != 1 || overlaps != 1 {
		t.Errorf("created=%d overlaps=%d, want 1 and 1", created, overlaps)
	}
	if n := entries.budgets.size(); n != 0 {
		t.Errorf("user locks left behind: %d", n)
	}
}

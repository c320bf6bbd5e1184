package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/finance"
	"finboard/internal/goals"
	"finboard/internal/log"
	"finboard/internal/ports"
)

// FinanceService computes the dashboard figures from stored records and
// keeps the passive income goal up to date.
type FinanceService struct {
	repo        ports.Repository
	coordinator *goals.Coordinator
	summaries   *cache.LRUCache[core.FinancialSummary]
	now         func() time.Time

	// resolving collapses concurrent passive income goal lookups per user
	// so only one of them can create the goal.
	resolving singleflight.Group
}

// FinanceOption configures a FinanceService.
type FinanceOption func(*FinanceService)

// WithSummaryCache caches financial summaries per user until invalidated
// or expired.
func WithSummaryCache(c *cache.LRUCache[core.FinancialSummary]) FinanceOption {
	return func(s *FinanceService) { s.summaries = c }
}

// WithFinanceClock replaces time.Now.
func WithFinanceClock(now func() time.Time) FinanceOption {
	return func(s *FinanceService) { s.now = now }
}

func NewFinanceService(repo ports.Repository, coordinator *goals.Coordinator, opts ...FinanceOption) *FinanceService {
	s := &FinanceService{
		repo:        repo,
		coordinator: coordinator,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// records is everything the summary needs for one user.
type records struct {
	incomes     []core.IncomeEntry
	expenses    []core.ExpenseEntry
	assets      []core.Asset
	liabilities []core.Liability
}

// load reads the four record sets concurrently.
func (s *FinanceService) load(ctx context.Context, userID string) (records, error) {
	var r records
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.incomes, err = s.repo.ListIncomes(ctx, userID)
		return wrap("list incomes", err)
	})
	g.Go(func() (err error) {
		r.expenses, err = s.repo.ListExpenses(ctx, userID)
		return wrap("list expenses", err)
	})
	g.Go(func() (err error) {
		r.assets, err = s.repo.ListAssets(ctx, userID)
		return wrap("list assets", err)
	})
	g.Go(func() (err error) {
		r.liabilities, err = s.repo.ListLiabilities(ctx, userID)
		return wrap("list liabilities", err)
	})
	if err := g.Wait(); err != nil {
		return records{}, err
	}
	return r, nil
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ComputeFinancialSummary returns the user's monthly income, expenses, cash
// flow and balance sheet totals.
func (s *FinanceService) ComputeFinancialSummary(ctx context.Context, userID string) (core.FinancialSummary, error) {
	if s.summaries != nil {
		if cached, ok := s.summaries.Get(userID); ok {
			return cached, nil
		}
	}

	r, err := s.load(ctx, userID)
	if err != nil {
		return core.FinancialSummary{}, err
	}
	summary := finance.Summary(r.incomes, r.expenses, r.assets, r.liabilities)

	if s.summaries != nil {
		s.summaries.Set(userID, summary)
	}
	return summary, nil
}

// InvalidateSummary drops the cached summary after the user's records change.
func (s *FinanceService) InvalidateSummary(userID string) {
	if s.summaries != nil {
		s.summaries.Delete(userID)
	}
}

// ComputeBudgetSummary aggregates a budget's categories.
func (s *FinanceService) ComputeBudgetSummary(b core.Budget) core.BudgetSummary {
	return finance.BudgetSummary(b)
}

// CurrentBudget returns the budget covering today, if any.
func (s *FinanceService) CurrentBudget(ctx context.Context, userID string) (core.Budget, bool, error) {
	budgets, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return core.Budget{}, false, fmt.Errorf("list budgets: %w", err)
	}
	b, ok := finance.CurrentBudget(budgets, s.now())
	return b, ok, nil
}

// EscapeProgress is how far passive income goes toward covering expenses.
type EscapeProgress struct {
	Percent         float64
	PassiveIncome   decimal.Decimal
	ActiveIncome    decimal.Decimal
	MonthlyExpenses decimal.Decimal
}

// ComputeEscapeProgress compares the user's passive income with their
// recurring monthly expenses.
func (s *FinanceService) ComputeEscapeProgress(ctx context.Context, userID string) (EscapeProgress, error) {
	incomes, err := s.repo.ListIncomes(ctx, userID)
	if err != nil {
		return EscapeProgress{}, fmt.Errorf("list incomes: %w", err)
	}
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return EscapeProgress{}, fmt.Errorf("list expenses: %w", err)
	}

	passive := finance.PassiveIncomeTotal(incomes)
	monthly := finance.TotalMonthlyExpenses(expenses)
	return EscapeProgress{
		Percent:         finance.EscapeRatRaceProgress(passive, monthly),
		PassiveIncome:   passive,
		ActiveIncome:    finance.ActiveIncomeTotal(incomes),
		MonthlyExpenses: monthly,
	}, nil
}

// Quadrants breaks monthly income down by cashflow quadrant.
func (s *FinanceService) Quadrants(ctx context.Context, userID string) (finance.QuadrantBreakdown, error) {
	incomes, err := s.repo.ListIncomes(ctx, userID)
	if err != nil {
		return finance.QuadrantBreakdown{}, fmt.Errorf("list incomes: %w", err)
	}
	return finance.BreakdownByQuadrant(incomes), nil
}

// InsightReport is the advice, asset allocation and health ratios shown
// together on the insights view.
type InsightReport struct {
	Insights   []finance.Insight
	Allocation []finance.AllocationSlice
	Ratios     finance.Ratios
}

// Insights returns allocation and debt advice, the asset allocation and the
// user's financial ratios.
func (s *FinanceService) Insights(ctx context.Context, userID string) (InsightReport, error) {
	r, err := s.load(ctx, userID)
	if err != nil {
		return InsightReport{}, err
	}
	monthly := finance.TotalMonthlyExpenses(r.expenses)
	return InsightReport{
		Insights:   finance.WealthInsights(r.assets, r.liabilities, monthly),
		Allocation: finance.AssetAllocation(r.assets),
		Ratios:     finance.FinancialRatios(r.incomes, r.expenses, r.assets, r.liabilities),
	}, nil
}

type resolvedGoal struct {
	goal core.FinancialGoal
	ok   bool
}

// PassiveIncomeGoal returns the user's passive income goal, creating it when
// none exists and there are expenses to size it by. ok is false when there
// is no goal.
func (s *FinanceService) PassiveIncomeGoal(ctx context.Context, userID string) (core.FinancialGoal, bool, error) {
	v, err, _ := s.resolving.Do(userID, func() (any, error) {
		goal, ok, err := s.resolvePassiveIncomeGoal(ctx, userID)
		return resolvedGoal{goal: goal, ok: ok}, err
	})
	if err != nil {
		return core.FinancialGoal{}, false, err
	}
	r := v.(resolvedGoal)
	return r.goal, r.ok, nil
}

func (s *FinanceService) resolvePassiveIncomeGoal(ctx context.Context, userID string) (core.FinancialGoal, bool, error) {
	existing, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return core.FinancialGoal{}, false, fmt.Errorf("list goals: %w", err)
	}
	expenses, err := s.repo.ListExpenses(ctx, userID)
	if err != nil {
		return core.FinancialGoal{}, false, fmt.Errorf("list expenses: %w", err)
	}

	goal, res := goals.ResolvePassiveIncomeGoal(existing, finance.TotalMonthlyExpenses(expenses), s.now().UTC())
	switch res {
	case goals.Absent:
		return core.FinancialGoal{}, false, nil
	case goals.Created:
		goal.UserID = userID
		created, err := s.repo.CreateGoal(ctx, goal)
		if errors.Is(err, core.ErrAlreadyExists) {
			// another process created it between our read and write
			return s.storedPassiveIncomeGoal(ctx, userID)
		}
		if err != nil {
			return core.FinancialGoal{}, false, fmt.Errorf("create passive income goal: %w", err)
		}
		slog.InfoContext(ctx, "Created passive income goal",
			"user_id", userID,
			"goal_id", created.ID,
			"target", created.TargetAmount.StringFixed(2))
		return created, true, nil
	}
	return goal, true, nil
}

func (s *FinanceService) storedPassiveIncomeGoal(ctx context.Context, userID string) (core.FinancialGoal, bool, error) {
	existing, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return core.FinancialGoal{}, false, fmt.Errorf("list goals: %w", err)
	}
	goal, res := goals.ResolvePassiveIncomeGoal(existing, decimal.Zero, s.now().UTC())
	if res != goals.Existing {
		return core.FinancialGoal{}, false, fmt.Errorf("passive income goal for %s: %w", userID, core.ErrNotFound)
	}
	return goal, true, nil
}

// MaybeUpdatePassiveIncomeGoal runs the coordinator for the user's passive
// income goal and persists an applied decision. Skips are values, not
// errors.
func (s *FinanceService) MaybeUpdatePassiveIncomeGoal(ctx context.Context, userID string, newPassiveIncome decimal.Decimal) (goals.Decision, error) {
	goal, ok, err := s.PassiveIncomeGoal(ctx, userID)
	if err != nil {
		return goals.Decision{}, err
	}

	var decision goals.Decision
	if !ok {
		decision = s.coordinator.NoGoal()
	} else {
		decision = s.coordinator.UpdateProgress(ctx, userID, goal, newPassiveIncome)
	}

	log.NewStructuredLogger(log.FromContext(ctx)).
		LogGoalDecision(ctx, userID, decision.GoalID, string(decision.Outcome), string(decision.Reason))

	if !decision.Applied() {
		return decision, nil
	}
	if err := s.repo.ApplyGoalProgress(ctx, userID, decision.GoalID, decision.CurrentAmount, decision.IsCompleted, decision.UpdatedAt); err != nil {
		return decision, fmt.Errorf("apply goal progress: %w", err)
	}
	return decision, nil
}

// RefreshPassiveIncomeGoal recomputes the user's passive income and feeds it
// to MaybeUpdatePassiveIncomeGoal.
func (s *FinanceService) RefreshPassiveIncomeGoal(ctx context.Context, userID string) (goals.Decision, error) {
	incomes, err := s.repo.ListIncomes(ctx, userID)
	if err != nil {
		return goals.Decision{}, fmt.Errorf("list incomes: %w", err)
	}
	return s.MaybeUpdatePassiveIncomeGoal(ctx, userID, finance.PassiveIncomeTotal(incomes))
}

// RefreshAllPassiveIncomeGoals refreshes the passive income goal of every
// known user, catching up on changes whose event-driven refresh was skipped
// by the cooldown. It returns how many goals were written; failures are
// logged and returned joined.
func (s *FinanceService) RefreshAllPassiveIncomeGoals(ctx context.Context) (int, error) {
	users, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		applied int
		errs    []error
	)
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		d, err := s.RefreshPassiveIncomeGoal(ctx, userID)
		if err != nil {
			slog.WarnContext(ctx, "Failed to refresh passive income goal", "user_id", userID, "error", err)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		if d.Applied() {
			applied++
		}
	}
	return applied, errors.Join(errs...)
}

// GoalProgress reports progress for each active goal.
func (s *FinanceService) GoalProgress(ctx context.Context, userID string) ([]goals.GoalProgress, error) {
	list, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals.Progress(list, s.now()), nil
}

// GoalTotals aggregates every goal of the user.
func (s *FinanceService) GoalTotals(ctx context.Context, userID string) (goals.GoalTotals, error) {
	list, err := s.repo.ListGoals(ctx, userID)
	if err != nil {
		return goals.GoalTotals{}, fmt.Errorf("list goals: %w", err)
	}
	return goals.Totals(list), nil
}

// UpdateGoalProgress sets a goal's current amount directly. Manual updates
// bypass the passive income cooldown.
func (s *FinanceService) UpdateGoalProgress(ctx context.Context, userID, goalID string, current decimal.Decimal) (core.FinancialGoal, error) {
	if current.IsNegative() {
		return core.FinancialGoal{}, fmt.Errorf("%w: current amount must not be negative", core.ErrInvalidAmount)
	}
	g, err := s.repo.GetGoal(ctx, userID, goalID)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("get goal: %w", err)
	}

	g = goals.ApplyManualProgress(g, current, s.now().UTC())
	if err := s.repo.ApplyGoalProgress(ctx, userID, g.ID, g.CurrentAmount, g.IsCompleted, g.UpdatedAt); err != nil {
		return core.FinancialGoal{}, fmt.Errorf("apply goal progress: %w", err)
	}
	return g, nil
}

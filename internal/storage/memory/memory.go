// Package memory is an in-process repository for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"finboard/internal/core"
	"finboard/internal/ports"
)

var _ ports.Repository = (*Store)(nil)

type Store struct {
	mu          sync.Mutex
	now         func() time.Time
	incomes     map[string]core.IncomeEntry
	expenses    map[string]core.ExpenseEntry
	assets      map[string]core.Asset
	liabilities map[string]core.Liability
	budgets     map[string]core.Budget
	goals       map[string]core.FinancialGoal
	snapshots   map[string]core.NetWorthSnapshot // keyed by user and day
}

func New() *Store {
	return &Store{
		now:         time.Now,
		incomes:     map[string]core.IncomeEntry{},
		expenses:    map[string]core.ExpenseEntry{},
		assets:      map[string]core.Asset{},
		liabilities: map[string]core.Liability{},
		budgets:     map[string]core.Budget{},
		goals:       map[string]core.FinancialGoal{},
		snapshots:   map[string]core.NetWorthSnapshot{},
	}
}

// WithClock replaces time.Now for created and updated stamps.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) stamp() time.Time { return s.now().UTC() }

// listOwned returns the user's values, newest first.
func listOwned[T any](m map[string]T, owner func(T) string, created func(T) time.Time, userID string) []T {
	var out []T
	for _, v := range m {
		if owner(v) == userID {
			out = append(out, v)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return created(out[i]).After(created(out[j])) })
	return out
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, core.ErrNotFound)
}

func (s *Store) ListIncomes(_ context.Context, userID string) ([]core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOwned(s.incomes,
		func(e core.IncomeEntry) string { return e.UserID },
		func(e core.IncomeEntry) time.Time { return e.CreatedAt }, userID), nil
}

func (s *Store) CreateIncome(_ context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	e.ID, e.CreatedAt, e.UpdatedAt = uuid.NewString(), now, now
	s.incomes[e.ID] = e
	return e, nil
}

func (s *Store) UpdateIncome(_ context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.incomes[e.ID]
	if !ok || cur.UserID != e.UserID {
		return core.IncomeEntry{}, notFound("income", e.ID)
	}
	e.CreatedAt, e.UpdatedAt = cur.CreatedAt, s.stamp()
	s.incomes[e.ID] = e
	return e, nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.incomes[id]; !ok || cur.UserID != userID {
		return notFound("income", id)
	}
	delete(s.incomes, id)
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOwned(s.expenses,
		func(e core.ExpenseEntry) string { return e.UserID },
		func(e core.ExpenseEntry) time.Time { return e.CreatedAt }, userID), nil
}

func (s *Store) CreateExpense(_ context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	e.ID, e.CreatedAt, e.UpdatedAt = uuid.NewString(), now, now
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.expenses[e.ID]
	if !ok || cur.UserID != e.UserID {
		return core.ExpenseEntry{}, notFound("expense", e.ID)
	}
	e.CreatedAt, e.UpdatedAt = cur.CreatedAt, s.stamp()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.expenses[id]; !ok || cur.UserID != userID {
		return notFound("expense", id)
	}
	delete(s.expenses, id)
	return nil
}

func (s *Store) ListAssets(_ context.Context, userID string) ([]core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOwned(s.assets,
		func(a core.Asset) string { return a.UserID },
		func(a core.Asset) time.Time { return a.CreatedAt }, userID), nil
}

func (s *Store) CreateAsset(_ context.Context, a core.Asset) (core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	a.ID, a.CreatedAt, a.UpdatedAt = uuid.NewString(), now, now
	s.assets[a.ID] = a
	return a, nil
}

func (s *Store) UpdateAsset(_ context.Context, a core.Asset) (core.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.assets[a.ID]
	if !ok || cur.UserID != a.UserID {
		return core.Asset{}, notFound("asset", a.ID)
	}
	a.CreatedAt, a.UpdatedAt = cur.CreatedAt, s.stamp()
	s.assets[a.ID] = a
	return a, nil
}

func (s *Store) DeleteAsset(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.assets[id]; !ok || cur.UserID != userID {
		return notFound("asset", id)
	}
	delete(s.assets, id)
	return nil
}

func (s *Store) ListLiabilities(_ context.Context, userID string) ([]core.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOwned(s.liabilities,
		func(l core.Liability) string { return l.UserID },
		func(l core.Liability) time.Time { return l.CreatedAt }, userID), nil
}

func (s *Store) CreateLiability(_ context.Context, l core.Liability) (core.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	l.ID, l.CreatedAt, l.UpdatedAt = uuid.NewString(), now, now
	s.liabilities[l.ID] = l
	return l, nil
}

func (s *Store) UpdateLiability(_ context.Context, l core.Liability) (core.Liability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.liabilities[l.ID]
	if !ok || cur.UserID != l.UserID {
		return core.Liability{}, notFound("liability", l.ID)
	}
	l.CreatedAt, l.UpdatedAt = cur.CreatedAt, s.stamp()
	s.liabilities[l.ID] = l
	return l, nil
}

func (s *Store) DeleteLiability(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.liabilities[id]; !ok || cur.UserID != userID {
		return notFound("liability", id)
	}
	delete(s.liabilities, id)
	return nil
}

func cloneBudget(b core.Budget) core.Budget {
	b.Categories = append([]core.BudgetCategory(nil), b.Categories...)
	sort.SliceStable(b.Categories, func(i, j int) bool { return b.Categories[i].Name < b.Categories[j].Name })
	return b
}

func (s *Store) ListBudgets(_ context.Context, userID string) ([]core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Budget
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, cloneBudget(b))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, notFound("budget", id)
	}
	return cloneBudget(b), nil
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.stamp()
	b.ID, b.CreatedAt, b.UpdatedAt = uuid.NewString(), now, now
	b = cloneBudget(b)
	for i := range b.Categories {
		b.Categories[i].ID = uuid.NewString()
		b.Categories[i].BudgetID = b.ID
	}
	s.budgets[b.ID] = b
	return cloneBudget(b), nil
}

func (s *Store) DeleteBudget(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.budgets[id]; !ok || b.UserID != userID {
		return notFound("budget", id)
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) AddBudgetCategory(_ context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[c.BudgetID]
	if !ok || b.UserID != userID {
		return core.BudgetCategory{}, notFound("budget", c.BudgetID)
	}
	c.ID = uuid.NewString()
	b.Categories = append(b.Categories, c)
	s.budgets[b.ID] = b
	return c, nil
}

// findCategory locates a category owned by userID. Caller holds mu.
func (s *Store) findCategory(userID, categoryID string) (string, int, bool) {
	for id, b := range s.budgets {
		if b.UserID != userID {
			continue
		}
		for i, c := range b.Categories {
			if c.ID == categoryID {
				return id, i, true
			}
		}
	}
	return "", 0, false
}

func (s *Store) UpdateCategorySpent(_ context.Context, userID, categoryID string, spent decimal.Decimal) (core.BudgetCategory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	budgetID, i, ok := s.findCategory(userID, categoryID)
	if !ok {
		return core.BudgetCategory{}, notFound("budget category", categoryID)
	}
	b := s.budgets[budgetID]
	cats := append([]core.BudgetCategory(nil), b.Categories...)
	cats[i].SpentAmount = spent
	b.Categories = cats
	s.budgets[budgetID] = b
	return cats[i], nil
}

func (s *Store) DeleteBudgetCategory(_ context.Context, userID, categoryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	budgetID, i, ok := s.findCategory(userID, categoryID)
	if !ok {
		return notFound("budget category", categoryID)
	}
	b := s.budgets[budgetID]
	cats := append([]core.BudgetCategory(nil), b.Categories[:i]...)
	b.Categories = append(cats, b.Categories[i+1:]...)
	s.budgets[budgetID] = b
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return listOwned(s.goals,
		func(g core.FinancialGoal) string { return g.UserID },
		func(g core.FinancialGoal) time.Time { return g.CreatedAt }, userID), nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.FinancialGoal{}, notFound("goal", id)
	}
	return g, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.IsPassiveIncomeGoal {
		for _, other := range s.goals {
			if other.UserID == g.UserID && other.IsPassiveIncomeGoal {
				return core.FinancialGoal{}, fmt.Errorf("create goal: passive income goal: %w", core.ErrAlreadyExists)
			}
		}
	}
	now := s.stamp()
	g.ID, g.CreatedAt, g.UpdatedAt = uuid.NewString(), now, now
	s.goals[g.ID] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g, ok := s.goals[id]; !ok || g.UserID != userID {
		return notFound("goal", id)
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) ApplyGoalProgress(_ context.Context, userID, goalID string, current decimal.Decimal, completed bool, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[goalID]
	if !ok || g.UserID != userID {
		return notFound("goal", goalID)
	}
	g.CurrentAmount, g.IsCompleted, g.UpdatedAt = current, completed, updatedAt
	s.goals[goalID] = g
	return nil
}

func snapshotKey(userID string, day time.Time) string {
	return userID + "|" + day.UTC().Format(time.DateOnly)
}

func (s *Store) UpsertSnapshot(_ context.Context, n core.NetWorthSnapshot) (core.NetWorthSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := snapshotKey(n.UserID, n.Date)
	if cur, ok := s.snapshots[key]; ok {
		n.ID, n.CreatedAt = cur.ID, cur.CreatedAt
	} else {
		n.ID, n.CreatedAt = uuid.NewString(), s.stamp()
	}
	n.Date = n.Date.UTC()
	s.snapshots[key] = n
	return n, nil
}

func (s *Store) ListSnapshots(_ context.Context, userID string, since time.Time) ([]core.NetWorthSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.NetWorthSnapshot
	for _, n := range s.snapshots {
		if n.UserID == userID && !n.Date.Before(since) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) ListUserIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	for _, v := range s.incomes {
		seen[v.UserID] = struct{}{}
	}
	for _, v := range s.expenses {
		seen[v.UserID] = struct{}{}
	}
	for _, v := range s.assets {
		seen[v.UserID] = struct{}{}
	}
	for _, v := range s.liabilities {
		seen[v.UserID] = struct{}{}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

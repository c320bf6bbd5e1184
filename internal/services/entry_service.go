package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"finboard/internal/amqp"
	"finboard/internal/core"
	"finboard/internal/ports"
)

// Publisher sends finance-changed events. *amqp.Client implements it.
type Publisher interface {
	PublishFinanceChanged(ctx context.Context, msg *amqp.FinanceChangedMessage) error
}

// EntryService validates and stores user records. Income, expense, asset
// and liability mutations are announced to the worker; a failed publish is
// logged and never fails the request.
type EntryService struct {
	repo      ports.Repository
	publisher Publisher
	onChange  []func(userID string)
	budgets   userLocks
}

func NewEntryService(repo ports.Repository, publisher Publisher) *EntryService {
	return &EntryService{
		repo:      repo,
		publisher: publisher,
	}
}

// OnChange registers a hook run synchronously after any mutation that
// affects the user's financial summary.
func (s *EntryService) OnChange(fn func(userID string)) {
	s.onChange = append(s.onChange, fn)
}

func (s *EntryService) changed(ctx context.Context, userID string, kind amqp.ChangeKind, entityID string) {
	for _, fn := range s.onChange {
		fn(userID)
	}

	if s.publisher == nil {
		slog.DebugContext(ctx, "AMQP client not available, skipping change message", "kind", kind)
		return
	}
	if err := s.publisher.PublishFinanceChanged(ctx, amqp.NewFinanceChangedMessage(userID, kind, entityID)); err != nil {
		slog.ErrorContext(ctx, "Failed to publish finance changed message",
			"user_id", userID,
			"kind", kind,
			"error", err)
	}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return core.ErrEmptyUserID
	}
	return nil
}

// Incomes

func (s *EntryService) ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListIncomes(ctx, userID)
}

func (s *EntryService) CreateIncome(ctx context.Context, userID string, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := requireUser(userID); err != nil {
		return core.IncomeEntry{}, err
	}
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	created, err := s.repo.CreateIncome(ctx, e)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("save income: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeIncome, created.ID)
	return created, nil
}

func (s *EntryService) UpdateIncome(ctx context.Context, userID string, e core.IncomeEntry) (core.IncomeEntry, error) {
	if err := requireUser(userID); err != nil {
		return core.IncomeEntry{}, err
	}
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.IncomeEntry{}, err
	}
	updated, err := s.repo.UpdateIncome(ctx, e)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("update income: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeIncome, updated.ID)
	return updated, nil
}

func (s *EntryService) DeleteIncome(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteIncome(ctx, userID, id); err != nil {
		return fmt.Errorf("delete income: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeIncome, id)
	return nil
}

// Expenses

func (s *EntryService) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListExpenses(ctx, userID)
}

func (s *EntryService) CreateExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	created, err := s.repo.CreateExpense(ctx, e)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("save expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeExpense, created.ID)
	return created, nil
}

func (s *EntryService) UpdateExpense(ctx context.Context, userID string, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	if err := requireUser(userID); err != nil {
		return core.ExpenseEntry{}, err
	}
	e.UserID = userID
	if err := e.Validate(); err != nil {
		return core.ExpenseEntry{}, err
	}
	updated, err := s.repo.UpdateExpense(ctx, e)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("update expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeExpense, updated.ID)
	return updated, nil
}

func (s *EntryService) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeExpense, id)
	return nil
}

// Assets

func (s *EntryService) ListAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListAssets(ctx, userID)
}

func (s *EntryService) CreateAsset(ctx context.Context, userID string, a core.Asset) (core.Asset, error) {
	if err := requireUser(userID); err != nil {
		return core.Asset{}, err
	}
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	created, err := s.repo.CreateAsset(ctx, a)
	if err != nil {
		return core.Asset{}, fmt.Errorf("save asset: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeAsset, created.ID)
	return created, nil
}

func (s *EntryService) UpdateAsset(ctx context.Context, userID string, a core.Asset) (core.Asset, error) {
	if err := requireUser(userID); err != nil {
		return core.Asset{}, err
	}
	a.UserID = userID
	if err := a.Validate(); err != nil {
		return core.Asset{}, err
	}
	updated, err := s.repo.UpdateAsset(ctx, a)
	if err != nil {
		return core.Asset{}, fmt.Errorf("update asset: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeAsset, updated.ID)
	return updated, nil
}

func (s *EntryService) DeleteAsset(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteAsset(ctx, userID, id); err != nil {
		return fmt.Errorf("delete asset: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeAsset, id)
	return nil
}

// Liabilities

func (s *EntryService) ListLiabilities(ctx context.Context, userID string) ([]core.Liability, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListLiabilities(ctx, userID)
}

func (s *EntryService) CreateLiability(ctx context.Context, userID string, l core.Liability) (core.Liability, error) {
	if err := requireUser(userID); err != nil {
		return core.Liability{}, err
	}
	l.UserID = userID
	if err := l.Validate(); err != nil {
		return core.Liability{}, err
	}
	created, err := s.repo.CreateLiability(ctx, l)
	if err != nil {
		return core.Liability{}, fmt.Errorf("save liability: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeLiability, created.ID)
	return created, nil
}

func (s *EntryService) UpdateLiability(ctx context.Context, userID string, l core.Liability) (core.Liability, error) {
	if err := requireUser(userID); err != nil {
		return core.Liability{}, err
	}
	l.UserID = userID
	if err := l.Validate(); err != nil {
		return core.Liability{}, err
	}
	updated, err := s.repo.UpdateLiability(ctx, l)
	if err != nil {
		return core.Liability{}, fmt.Errorf("update liability: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeLiability, updated.ID)
	return updated, nil
}

func (s *EntryService) DeleteLiability(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteLiability(ctx, userID, id); err != nil {
		return fmt.Errorf("delete liability: %w", err)
	}
	s.changed(ctx, userID, amqp.ChangeLiability, id)
	return nil
}

// Budgets

func (s *EntryService) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListBudgets(ctx, userID)
}

func (s *EntryService) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return core.Budget{}, err
	}
	return s.repo.GetBudget(ctx, userID, id)
}

// CreateBudget rejects a range overlapping another budget of the same user.
// Creates for one user are serialized so the overlap check holds.
func (s *EntryService) CreateBudget(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if err := requireUser(userID); err != nil {
		return core.Budget{}, err
	}
	b.UserID = userID
	for i := range b.Categories {
		if b.Categories[i].Color == "" {
			b.Categories[i].Color = core.DefaultCategoryColor
		}
	}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}

	unlock := s.budgets.lock(userID)
	defer unlock()

	existing, err := s.repo.ListBudgets(ctx, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("list budgets: %w", err)
	}
	for _, other := range existing {
		if b.Overlaps(other) {
			return core.Budget{}, fmt.Errorf("%w: %q", core.ErrBudgetOverlap, other.Name)
		}
	}

	created, err := s.repo.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("save budget: %w", err)
	}
	return created, nil
}

func (s *EntryService) DeleteBudget(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (s *EntryService) AddBudgetCategory(ctx context.Context, userID, budgetID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	if err := requireUser(userID); err != nil {
		return core.BudgetCategory{}, err
	}
	c.BudgetID = budgetID
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.BudgetCategory{}, err
	}
	created, err := s.repo.AddBudgetCategory(ctx, userID, c)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("save budget category: %w", err)
	}
	return created, nil
}

func (s *EntryService) UpdateCategorySpent(ctx context.Context, userID, categoryID string, spent decimal.Decimal) (core.BudgetCategory, error) {
	if err := requireUser(userID); err != nil {
		return core.BudgetCategory{}, err
	}
	if spent.IsNegative() {
		return core.BudgetCategory{}, fmt.Errorf("%w: spent amount must not be negative", core.ErrInvalidAmount)
	}
	updated, err := s.repo.UpdateCategorySpent(ctx, userID, categoryID, spent)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("update category spent: %w", err)
	}
	return updated, nil
}

func (s *EntryService) DeleteBudgetCategory(ctx context.Context, userID, categoryID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteBudgetCategory(ctx, userID, categoryID); err != nil {
		return fmt.Errorf("delete budget category: %w", err)
	}
	return nil
}

// Goals

func (s *EntryService) ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.repo.ListGoals(ctx, userID)
}

func (s *EntryService) CreateGoal(ctx context.Context, userID string, g core.FinancialGoal) (core.FinancialGoal, error) {
	if err := requireUser(userID); err != nil {
		return core.FinancialGoal{}, err
	}
	g.UserID = userID
	if err := g.Validate(); err != nil {
		return core.FinancialGoal{}, err
	}
	g.IsCompleted = g.Completed()
	created, err := s.repo.CreateGoal(ctx, g)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("save goal: %w", err)
	}
	return created, nil
}

func (s *EntryService) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.repo.DeleteGoal(ctx, userID, id); err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return nil
}

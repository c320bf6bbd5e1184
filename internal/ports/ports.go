// Package ports declares the storage collaborator the services depend on.
package ports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

// Ports for outbound adapters. Every read and write is scoped by user; a
// record owned by another user behaves as missing (core.ErrNotFound).
type (
	IncomeStore interface {
		ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error)
		CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
		UpdateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error)
		DeleteIncome(ctx context.Context, userID, id string) error
	}

	ExpenseStore interface {
		ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error)
		CreateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error)
		UpdateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error)
		DeleteExpense(ctx context.Context, userID, id string) error
	}

	AssetStore interface {
		ListAssets(ctx context.Context, userID string) ([]core.Asset, error)
		CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error)
		UpdateAsset(ctx context.Context, a core.Asset) (core.Asset, error)
		DeleteAsset(ctx context.Context, userID, id string) error
	}

	LiabilityStore interface {
		ListLiabilities(ctx context.Context, userID string) ([]core.Liability, error)
		CreateLiability(ctx context.Context, l core.Liability) (core.Liability, error)
		UpdateLiability(ctx context.Context, l core.Liability) (core.Liability, error)
		DeleteLiability(ctx context.Context, userID, id string) error
	}

	// BudgetStore returns budgets with their categories populated.
	BudgetStore interface {
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
		GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
		CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		DeleteBudget(ctx context.Context, userID, id string) error
		AddBudgetCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error)
		UpdateCategorySpent(ctx context.Context, userID, categoryID string, spent decimal.Decimal) (core.BudgetCategory, error)
		DeleteBudgetCategory(ctx context.Context, userID, categoryID string) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error)
		GetGoal(ctx context.Context, userID, id string) (core.FinancialGoal, error)
		CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error)
		DeleteGoal(ctx context.Context, userID, id string) error
		// ApplyGoalProgress persists a progress decision on an existing goal.
		ApplyGoalProgress(ctx context.Context, userID, goalID string, current decimal.Decimal, completed bool, updatedAt time.Time) error
	}

	SnapshotStore interface {
		// UpsertSnapshot keeps a single snapshot per user per day.
		UpsertSnapshot(ctx context.Context, s core.NetWorthSnapshot) (core.NetWorthSnapshot, error)
		// ListSnapshots returns snapshots dated on or after since, oldest first.
		ListSnapshots(ctx context.Context, userID string, since time.Time) ([]core.NetWorthSnapshot, error)
		// ListUserIDs returns every user owning at least one asset, liability, income or expense.
		ListUserIDs(ctx context.Context) ([]string, error)
	}

	// Repository is the full storage collaborator.
	Repository interface {
		IncomeStore
		ExpenseStore
		AssetStore
		LiabilityStore
		BudgetStore
		GoalStore
		SnapshotStore
		Ping(ctx context.Context) error
		Close() error
	}
)

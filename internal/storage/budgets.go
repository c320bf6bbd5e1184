package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const (
	budgetColumns   = `id, user_id, name, total_amount, start_date, end_date, created_at, updated_at`
	categoryColumns = `id, budget_id, name, allocated_amount, spent_amount, color`
)

func scanBudget(s scanner) (core.Budget, error) {
	var b core.Budget
	err := s.Scan(&b.ID, &b.UserID, &b.Name, &b.TotalAmount, &b.StartDate, &b.EndDate, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func scanCategory(s scanner) (core.BudgetCategory, error) {
	var c core.BudgetCategory
	err := s.Scan(&c.ID, &c.BudgetID, &c.Name, &c.AllocatedAmount, &c.SpentAmount, &c.Color)
	return c, err
}

// ListBudgets implements ports.BudgetStore
func (r *Repository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := r.query(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE user_id = ? ORDER BY start_date DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	for i := range budgets {
		cats, err := r.listCategories(ctx, budgets[i].ID)
		if err != nil {
			return nil, err
		}
		budgets[i].Categories = cats
	}
	return budgets, nil
}

func (r *Repository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	b, err := scanBudget(r.queryRow(ctx, `SELECT `+budgetColumns+` FROM budgets WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %s: %w", id, notFound(err))
	}
	if b.Categories, err = r.listCategories(ctx, b.ID); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *Repository) listCategories(ctx context.Context, budgetID string) ([]core.BudgetCategory, error) {
	rows, err := r.query(ctx, `SELECT `+categoryColumns+` FROM budget_categories WHERE budget_id = ? ORDER BY name`, budgetID)
	if err != nil {
		return nil, fmt.Errorf("list budget categories: %w", err)
	}
	defer rows.Close()

	var out []core.BudgetCategory
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateBudget stores the budget and its categories in one transaction.
func (r *Repository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	now := r.timestamp()
	b.ID, b.CreatedAt, b.UpdatedAt = newID(), now, now
	b.StartDate, b.EndDate = b.StartDate.UTC(), b.EndDate.UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return core.Budget{}, fmt.Errorf("begin budget tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, r.rebind(`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		b.ID, b.UserID, b.Name, b.TotalAmount, b.StartDate, b.EndDate, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	for i := range b.Categories {
		c := &b.Categories[i]
		c.ID, c.BudgetID = newID(), b.ID
		if err := r.insertCategory(ctx, tx, *c); err != nil {
			return core.Budget{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return core.Budget{}, fmt.Errorf("commit budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"id", b.ID,
		"user_id", b.UserID,
		"categories", len(b.Categories))
	return b, nil
}

func (r *Repository) insertCategory(ctx context.Context, tx *sql.Tx, c core.BudgetCategory) error {
	_, err := tx.ExecContext(ctx, r.rebind(`INSERT INTO budget_categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		c.ID, c.BudgetID, c.Name, c.AllocatedAmount, c.SpentAmount, c.Color)
	if err != nil {
		return fmt.Errorf("create budget category: %w", err)
	}
	return nil
}

func (r *Repository) DeleteBudget(ctx context.Context, userID, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin budget tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM budgets WHERE id = ? AND user_id = ?`), id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err != nil || n == 0 {
		if err == nil {
			err = core.ErrNotFound
		}
		return fmt.Errorf("delete budget %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, r.rebind(`DELETE FROM budget_categories WHERE budget_id = ?`), id); err != nil {
		return fmt.Errorf("delete budget categories: %w", err)
	}
	return tx.Commit()
}

// budgetOwned reports whether budgetID belongs to userID.
func (r *Repository) budgetOwned(ctx context.Context, userID, budgetID string) error {
	var one int
	err := r.queryRow(ctx, `SELECT 1 FROM budgets WHERE id = ? AND user_id = ?`, budgetID, userID).Scan(&one)
	return notFound(err)
}

func (r *Repository) AddBudgetCategory(ctx context.Context, userID string, c core.BudgetCategory) (core.BudgetCategory, error) {
	if err := r.budgetOwned(ctx, userID, c.BudgetID); err != nil {
		return core.BudgetCategory{}, fmt.Errorf("budget %s: %w", c.BudgetID, err)
	}
	c.ID = newID()
	_, err := r.exec(ctx, `INSERT INTO budget_categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.BudgetID, c.Name, c.AllocatedAmount, c.SpentAmount, c.Color)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("create budget category: %w", err)
	}
	return c, nil
}

const ownedCategory = `id = ? AND budget_id IN (SELECT id FROM budgets WHERE user_id = ?)`

func (r *Repository) UpdateCategorySpent(ctx context.Context, userID, categoryID string, spent decimal.Decimal) (core.BudgetCategory, error) {
	err := r.execAffecting(ctx, `UPDATE budget_categories SET spent_amount = ? WHERE `+ownedCategory, spent, categoryID, userID)
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("update budget category %s: %w", categoryID, err)
	}
	c, err := scanCategory(r.queryRow(ctx, `SELECT `+categoryColumns+` FROM budget_categories WHERE id = ?`, categoryID))
	if err != nil {
		return core.BudgetCategory{}, fmt.Errorf("reload budget category %s: %w", categoryID, notFound(err))
	}
	return c, nil
}

func (r *Repository) DeleteBudgetCategory(ctx context.Context, userID, categoryID string) error {
	err := r.execAffecting(ctx, `DELETE FROM budget_categories WHERE `+ownedCategory, categoryID, userID)
	if err != nil {
		return fmt.Errorf("delete budget category %s: %w", categoryID, err)
	}
	return nil
}

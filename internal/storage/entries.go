package storage

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/core"
)

const incomeColumns = `id, user_id, source, amount, frequency, is_active, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanIncome(s scanner) (core.IncomeEntry, error) {
	var e core.IncomeEntry
	var freq string
	err := s.Scan(&e.ID, &e.UserID, &e.Source, &e.Amount, &freq, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	e.Frequency = core.Frequency(freq)
	return e, err
}

// ListIncomes implements ports.IncomeStore
func (r *Repository) ListIncomes(ctx context.Context, userID string) ([]core.IncomeEntry, error) {
	rows, err := r.query(ctx, `SELECT `+incomeColumns+` FROM income_entries WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	var out []core.IncomeEntry
	for rows.Next() {
		e, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) CreateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	now := r.timestamp()
	e.ID, e.CreatedAt, e.UpdatedAt = newID(), now, now

	_, err := r.exec(ctx, `INSERT INTO income_entries (`+incomeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Source, e.Amount, string(e.Frequency), e.IsActive, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("create income: %w", err)
	}

	slog.InfoContext(ctx, "Income saved",
		"id", e.ID,
		"user_id", e.UserID,
		"source", e.Source,
		"amount", e.Amount.String(),
		"frequency", e.Frequency)
	return e, nil
}

func (r *Repository) UpdateIncome(ctx context.Context, e core.IncomeEntry) (core.IncomeEntry, error) {
	e.UpdatedAt = r.timestamp()
	err := r.execAffecting(ctx, `
		UPDATE income_entries SET source = ?, amount = ?, frequency = ?, is_active = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Source, e.Amount, string(e.Frequency), e.IsActive, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("update income %s: %w", e.ID, err)
	}
	row := r.queryRow(ctx, `SELECT `+incomeColumns+` FROM income_entries WHERE id = ?`, e.ID)
	updated, err := scanIncome(row)
	if err != nil {
		return core.IncomeEntry{}, fmt.Errorf("reload income %s: %w", e.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteIncome(ctx context.Context, userID, id string) error {
	if err := r.execAffecting(ctx, `DELETE FROM income_entries WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete income %s: %w", id, err)
	}
	return nil
}

const expenseColumns = `id, user_id, category, amount, frequency, is_recurring, created_at, updated_at`

func scanExpense(s scanner) (core.ExpenseEntry, error) {
	var e core.ExpenseEntry
	var freq string
	err := s.Scan(&e.ID, &e.UserID, &e.Category, &e.Amount, &freq, &e.IsRecurring, &e.CreatedAt, &e.UpdatedAt)
	e.Frequency = core.Frequency(freq)
	return e, err
}

// ListExpenses implements ports.ExpenseStore
func (r *Repository) ListExpenses(ctx context.Context, userID string) ([]core.ExpenseEntry, error) {
	rows, err := r.query(ctx, `SELECT `+expenseColumns+` FROM expense_entries WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.ExpenseEntry
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *Repository) CreateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	now := r.timestamp()
	e.ID, e.CreatedAt, e.UpdatedAt = newID(), now, now

	_, err := r.exec(ctx, `INSERT INTO expense_entries (`+expenseColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.Category, e.Amount, string(e.Frequency), e.IsRecurring, e.CreatedAt, e.UpdatedAt)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"user_id", e.UserID,
		"category", e.Category,
		"amount", e.Amount.String(),
		"frequency", e.Frequency)
	return e, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, e core.ExpenseEntry) (core.ExpenseEntry, error) {
	e.UpdatedAt = r.timestamp()
	err := r.execAffecting(ctx, `
		UPDATE expense_entries SET category = ?, amount = ?, frequency = ?, is_recurring = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.Category, e.Amount, string(e.Frequency), e.IsRecurring, e.UpdatedAt, e.ID, e.UserID)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	row := r.queryRow(ctx, `SELECT `+expenseColumns+` FROM expense_entries WHERE id = ?`, e.ID)
	updated, err := scanExpense(row)
	if err != nil {
		return core.ExpenseEntry{}, fmt.Errorf("reload expense %s: %w", e.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteExpense(ctx context.Context, userID, id string) error {
	if err := r.execAffecting(ctx, `DELETE FROM expense_entries WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"finboard/internal/core"
)

const goalColumns = `id, user_id, name, description, type, target_amount, current_amount, target_date, is_completed, is_passive_income_goal, created_at, updated_at`

func scanGoal(s scanner) (core.FinancialGoal, error) {
	var g core.FinancialGoal
	var typ string
	var target sql.NullTime
	err := s.Scan(&g.ID, &g.UserID, &g.Name, &g.Description, &typ, &g.TargetAmount, &g.CurrentAmount,
		&target, &g.IsCompleted, &g.IsPassiveIncomeGoal, &g.CreatedAt, &g.UpdatedAt)
	g.Type = core.GoalType(typ)
	g.TargetDate = timePtr(target)
	return g, err
}

// ListGoals implements ports.GoalStore
func (r *Repository) ListGoals(ctx context.Context, userID string) ([]core.FinancialGoal, error) {
	rows, err := r.query(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	var out []core.FinancialGoal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *Repository) GetGoal(ctx context.Context, userID, id string) (core.FinancialGoal, error) {
	g, err := scanGoal(r.queryRow(ctx, `SELECT `+goalColumns+` FROM financial_goals WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("get goal %s: %w", id, notFound(err))
	}
	return g, nil
}

func (r *Repository) CreateGoal(ctx context.Context, g core.FinancialGoal) (core.FinancialGoal, error) {
	now := r.timestamp()
	g.ID, g.CreatedAt, g.UpdatedAt = newID(), now, now

	_, err := r.exec(ctx, `INSERT INTO financial_goals (`+goalColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.Description, string(g.Type), g.TargetAmount, g.CurrentAmount,
		nullTime(g.TargetDate), g.IsCompleted, g.IsPassiveIncomeGoal, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return core.FinancialGoal{}, fmt.Errorf("create goal: %w", uniqueViolation(err))
	}

	slog.InfoContext(ctx, "Goal saved",
		"id", g.ID,
		"user_id", g.UserID,
		"type", g.Type,
		"passive_income", g.IsPassiveIncomeGoal)
	return g, nil
}

func (r *Repository) DeleteGoal(ctx context.Context, userID, id string) error {
	if err := r.execAffecting(ctx, `DELETE FROM financial_goals WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

// ApplyGoalProgress implements ports.GoalStore
func (r *Repository) ApplyGoalProgress(ctx context.Context, userID, goalID string, current decimal.Decimal, completed bool, updatedAt time.Time) error {
	err := r.execAffecting(ctx, `
		UPDATE financial_goals SET current_amount = ?, is_completed = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		current, completed, updatedAt.UTC(), goalID, userID)
	if err != nil {
		return fmt.Errorf("apply goal progress %s: %w", goalID, err)
	}

	slog.DebugContext(ctx, "Goal progress applied",
		"goal_id", goalID,
		"current_amount", current.String(),
		"completed", completed)
	return nil
}

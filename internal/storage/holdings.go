package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"finboard/internal/core"
)

const assetColumns = `id, user_id, name, type, value, cost_basis, growth_rate, created_at, updated_at`

func scanAsset(s scanner) (core.Asset, error) {
	var a core.Asset
	var typ string
	err := s.Scan(&a.ID, &a.UserID, &a.Name, &typ, &a.Value, &a.CostBasis, &a.GrowthRate, &a.CreatedAt, &a.UpdatedAt)
	a.Type = core.AssetType(typ)
	return a, err
}

// ListAssets implements ports.AssetStore
func (r *Repository) ListAssets(ctx context.Context, userID string) ([]core.Asset, error) {
	rows, err := r.query(ctx, `SELECT `+assetColumns+` FROM assets WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []core.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, fmt.Errorf("scan asset: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *Repository) CreateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	now := r.timestamp()
	a.ID, a.CreatedAt, a.UpdatedAt = newID(), now, now

	_, err := r.exec(ctx, `INSERT INTO assets (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.UserID, a.Name, string(a.Type), a.Value, a.CostBasis, a.GrowthRate, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return core.Asset{}, fmt.Errorf("create asset: %w", err)
	}

	slog.InfoContext(ctx, "Asset saved", "id", a.ID, "user_id", a.UserID, "type", a.Type)
	return a, nil
}

func (r *Repository) UpdateAsset(ctx context.Context, a core.Asset) (core.Asset, error) {
	a.UpdatedAt = r.timestamp()
	err := r.execAffecting(ctx, `
		UPDATE assets SET name = ?, type = ?, value = ?, cost_basis = ?, growth_rate = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		a.Name, string(a.Type), a.Value, a.CostBasis, a.GrowthRate, a.UpdatedAt, a.ID, a.UserID)
	if err != nil {
		return core.Asset{}, fmt.Errorf("update asset %s: %w", a.ID, err)
	}
	updated, err := scanAsset(r.queryRow(ctx, `SELECT `+assetColumns+` FROM assets WHERE id = ?`, a.ID))
	if err != nil {
		return core.Asset{}, fmt.Errorf("reload asset %s: %w", a.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteAsset(ctx context.Context, userID, id string) error {
	if err := r.execAffecting(ctx, `DELETE FROM assets WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete asset %s: %w", id, err)
	}
	return nil
}

const liabilityColumns = `id, user_id, name, type, balance, interest_rate, minimum_payment, due_date, created_at, updated_at`

func scanLiability(s scanner) (core.Liability, error) {
	var l core.Liability
	var due sql.NullTime
	err := s.Scan(&l.ID, &l.UserID, &l.Name, &l.Type, &l.Balance, &l.InterestRate, &l.MinimumPayment, &due, &l.CreatedAt, &l.UpdatedAt)
	l.DueDate = timePtr(due)
	return l, err
}

// ListLiabilities implements ports.LiabilityStore
func (r *Repository) ListLiabilities(ctx context.Context, userID string) ([]core.Liability, error) {
	rows, err := r.query(ctx, `SELECT `+liabilityColumns+` FROM liabilities WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list liabilities: %w", err)
	}
	defer rows.Close()

	var out []core.Liability
	for rows.Next() {
		l, err := scanLiability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan liability: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *Repository) CreateLiability(ctx context.Context, l core.Liability) (core.Liability, error) {
	now := r.timestamp()
	l.ID, l.CreatedAt, l.UpdatedAt = newID(), now, now

	_, err := r.exec(ctx, `INSERT INTO liabilities (`+liabilityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.UserID, l.Name, l.Type, l.Balance, l.InterestRate, l.MinimumPayment, nullTime(l.DueDate), l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return core.Liability{}, fmt.Errorf("create liability: %w", err)
	}

	slog.InfoContext(ctx, "Liability saved", "id", l.ID, "user_id", l.UserID, "type", l.Type)
	return l, nil
}

func (r *Repository) UpdateLiability(ctx context.Context, l core.Liability) (core.Liability, error) {
	l.UpdatedAt = r.timestamp()
	err := r.execAffecting(ctx, `
		UPDATE liabilities SET name = ?, type = ?, balance = ?, interest_rate = ?, minimum_payment = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		l.Name, l.Type, l.Balance, l.InterestRate, l.MinimumPayment, nullTime(l.DueDate), l.UpdatedAt, l.ID, l.UserID)
	if err != nil {
		return core.Liability{}, fmt.Errorf("update liability %s: %w", l.ID, err)
	}
	updated, err := scanLiability(r.queryRow(ctx, `SELECT `+liabilityColumns+` FROM liabilities WHERE id = ?`, l.ID))
	if err != nil {
		return core.Liability{}, fmt.Errorf("reload liability %s: %w", l.ID, notFound(err))
	}
	return updated, nil
}

func (r *Repository) DeleteLiability(ctx context.Context, userID, id string) error {
	if err := r.execAffecting(ctx, `DELETE FROM liabilities WHERE id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("delete liability %s: %w", id, err)
	}
	return nil
}

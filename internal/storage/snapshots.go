package storage

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/core"
)

const snapshotColumns = `id, user_id, date, total_assets, total_liabilities, net_worth, created_at`

func scanSnapshot(s scanner) (core.NetWorthSnapshot, error) {
	var n core.NetWorthSnapshot
	err := s.Scan(&n.ID, &n.UserID, &n.Date, &n.TotalAssets, &n.TotalLiabilities, &n.NetWorth, &n.CreatedAt)
	n.Date = n.Date.UTC()
	return n, err
}

// UpsertSnapshot implements ports.SnapshotStore
func (r *Repository) UpsertSnapshot(ctx context.Context, s core.NetWorthSnapshot) (core.NetWorthSnapshot, error) {
	s.ID, s.CreatedAt = newID(), r.timestamp()
	s.Date = s.Date.UTC()

	_, err := r.exec(ctx, `
		INSERT INTO net_worth_snapshots (`+snapshotColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, date) DO UPDATE SET
			total_assets = excluded.total_assets,
			total_liabilities = excluded.total_liabilities,
			net_worth = excluded.net_worth`,
		s.ID, s.UserID, s.Date, s.TotalAssets, s.TotalLiabilities, s.NetWorth, s.CreatedAt)
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("upsert snapshot: %w", err)
	}

	stored, err := scanSnapshot(r.queryRow(ctx,
		`SELECT `+snapshotColumns+` FROM net_worth_snapshots WHERE user_id = ? AND date = ?`, s.UserID, s.Date))
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("reload snapshot: %w", notFound(err))
	}
	return stored, nil
}

func (r *Repository) ListSnapshots(ctx context.Context, userID string, since time.Time) ([]core.NetWorthSnapshot, error) {
	rows, err := r.query(ctx, `
		SELECT `+snapshotColumns+` FROM net_worth_snapshots
		WHERE user_id = ? AND date >= ?
		ORDER BY date ASC`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []core.NetWorthSnapshot
	for rows.Next() {
		s, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

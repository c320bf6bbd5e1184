package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"finboard/internal/core"
	"finboard/internal/finance"
	"finboard/internal/ports"
)

// SnapshotService records and reports net worth over time.
type SnapshotService struct {
	repo ports.Repository
	now  func() time.Time
}

func NewSnapshotService(repo ports.Repository) *SnapshotService {
	return &SnapshotService{repo: repo, now: time.Now}
}

// WithClock replaces time.Now.
func (s *SnapshotService) WithClock(now func() time.Time) *SnapshotService {
	s.now = now
	return s
}

func (s *SnapshotService) live(ctx context.Context, userID string) (core.NetWorthSnapshot, error) {
	assets, err := s.repo.ListAssets(ctx, userID)
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("list assets: %w", err)
	}
	liabilities, err := s.repo.ListLiabilities(ctx, userID)
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("list liabilities: %w", err)
	}
	totalAssets := finance.TotalAssets(assets)
	totalLiabilities := finance.TotalLiabilities(liabilities)
	return core.NetWorthSnapshot{
		UserID:           userID,
		Date:             finance.SnapshotDay(s.now()),
		TotalAssets:      totalAssets,
		TotalLiabilities: totalLiabilities,
		NetWorth:         finance.NetWorth(totalAssets, totalLiabilities),
	}, nil
}

// CreateSnapshot stores today's net worth, replacing any earlier snapshot
// taken the same UTC day.
func (s *SnapshotService) CreateSnapshot(ctx context.Context, userID string) (core.NetWorthSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return core.NetWorthSnapshot{}, err
	}
	snap, err := s.live(ctx, userID)
	if err != nil {
		return core.NetWorthSnapshot{}, err
	}
	saved, err := s.repo.UpsertSnapshot(ctx, snap)
	if err != nil {
		return core.NetWorthSnapshot{}, fmt.Errorf("save snapshot: %w", err)
	}
	return saved, nil
}

// History returns the snapshots within period, oldest first. Without any
// stored snapshot it returns a single unsaved point for today.
func (s *SnapshotService) History(ctx context.Context, userID string, period finance.HistoryPeriod) ([]core.NetWorthSnapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	since := period.Since(finance.SnapshotDay(s.now()))
	snaps, err := s.repo.ListSnapshots(ctx, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	if len(snaps) > 0 {
		return snaps, nil
	}
	point, err := s.live(ctx, userID)
	if err != nil {
		return nil, err
	}
	return []core.NetWorthSnapshot{point}, nil
}

// Performance compares the live net worth with stored history.
func (s *SnapshotService) Performance(ctx context.Context, userID string) (finance.Performance, error) {
	if err := requireUser(userID); err != nil {
		return finance.Performance{}, err
	}
	current, err := s.live(ctx, userID)
	if err != nil {
		return finance.Performance{}, err
	}
	snaps, err := s.repo.ListSnapshots(ctx, userID, time.Time{})
	if err != nil {
		return finance.Performance{}, fmt.Errorf("list snapshots: %w", err)
	}
	return finance.NetWorthPerformance(current.NetWorth, snaps, s.now()), nil
}

// SnapshotAll snapshots every known user. A failing user does not stop the
// run; the failures are returned joined.
func (s *SnapshotService) SnapshotAll(ctx context.Context) (int, error) {
	users, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list users: %w", err)
	}

	var (
		done int
		errs []error
	)
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := s.CreateSnapshot(ctx, userID); err != nil {
			slog.WarnContext(ctx, "Failed to snapshot net worth", "user_id", userID, "error", err)
			errs = append(errs, fmt.Errorf("user %s: %w", userID, err))
			continue
		}
		done++
	}
	return done, errors.Join(errs...)
}

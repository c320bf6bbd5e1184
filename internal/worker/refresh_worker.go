package worker

import (
	"context"
	"fmt"
	"log/slog"

	"finboard/internal/amqp"
	"finboard/internal/services"
	"finboard/internal/telemetry"
)

// Consumer delivers finance changed messages until ctx is done.
type Consumer interface {
	ConsumeFinanceChanged(ctx context.Context, handler func(context.Context, *amqp.FinanceChangedMessage) error) error
}

// RefreshWorker brings derived state back in line after a user's records
// change: the cached summary, the passive income goal and today's net worth
// snapshot. An event whose goal refresh falls inside the cooldown is caught
// up by the scheduled RefreshGoals run.
type RefreshWorker struct {
	finance   *services.FinanceService
	snapshots *services.SnapshotService
	metrics   *telemetry.Metrics
}

// NewRefreshWorker creates a worker. metrics may be nil.
func NewRefreshWorker(finance *services.FinanceService, snapshots *services.SnapshotService, metrics *telemetry.Metrics) *RefreshWorker {
	return &RefreshWorker{
		finance:   finance,
		snapshots: snapshots,
		metrics:   metrics,
	}
}

// Run consumes messages until ctx is cancelled.
func (w *RefreshWorker) Run(ctx context.Context, consumer Consumer) error {
	return consumer.ConsumeFinanceChanged(ctx, w.HandleFinanceChanged)
}

// HandleFinanceChanged processes a single finance changed message. A skipped
// goal update is not an error; only storage failures are returned so the
// message is redelivered.
func (w *RefreshWorker) HandleFinanceChanged(ctx context.Context, msg *amqp.FinanceChangedMessage) (err error) {
	if w.metrics != nil {
		defer func() { w.metrics.ObserveMessage(err) }()
	}

	slog.InfoContext(ctx, "Processing finance changed message",
		"user_id", msg.UserID,
		"kind", msg.Kind,
		"entity_id", msg.EntityID)

	w.finance.InvalidateSummary(msg.UserID)

	decision, err := w.finance.RefreshPassiveIncomeGoal(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("refresh passive income goal: %w", err)
	}

	snap, err := w.snapshots.CreateSnapshot(ctx, msg.UserID)
	if err != nil {
		return fmt.Errorf("snapshot net worth: %w", err)
	}

	slog.InfoContext(ctx, "Refreshed derived figures",
		"user_id", msg.UserID,
		"decision", decision.Outcome,
		"reason", decision.Reason,
		"net_worth", snap.NetWorth.StringFixed(2))
	return nil
}

// SnapshotAll snapshots every known user. It is what the schedule runs.
func (w *RefreshWorker) SnapshotAll(ctx context.Context) (int, error) {
	written, err := w.snapshots.SnapshotAll(ctx)
	if w.metrics != nil {
		w.metrics.ObserveSnapshots(written, err)
	}
	if err != nil {
		slog.WarnContext(ctx, "Net worth snapshot run finished with errors", "written", written, "error", err)
		return written, err
	}
	slog.InfoContext(ctx, "Net worth snapshot run finished", "written", written)
	return written, nil
}

// RefreshGoals refreshes the passive income goal of every known user.
func (w *RefreshWorker) RefreshGoals(ctx context.Context) (int, error) {
	applied, err := w.finance.RefreshAllPassiveIncomeGoals(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Passive income goal refresh finished with errors", "applied", applied, "error", err)
		return applied, err
	}
	slog.DebugContext(ctx, "Passive income goal refresh finished", "applied", applied)
	return applied, nil
}

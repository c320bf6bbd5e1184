package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// jobTimeout bounds a single scheduled run.
const jobTimeout = 10 * time.Minute

// Schedule holds the cron specs of the periodic jobs. An empty spec
// disables its job.
type Schedule struct {
	Snapshots   string
	GoalRefresh string
}

// Scheduler runs the periodic net worth snapshot and passive income goal
// refresh.
type Scheduler struct {
	cron *cron.Cron
}

// NewScheduler registers the jobs of sched on standard cron specs
// (descriptors such as "@every 1m" included). Overlapping runs of a job are
// skipped and panics are recovered.
func NewScheduler(ctx context.Context, sched Schedule, w *RefreshWorker, logger *slog.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cl := cronLogger{logger: logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) (int, error)
	}{
		{"snapshots", sched.Snapshots, w.SnapshotAll},
		{"goal refresh", sched.GoalRefresh, w.RefreshGoals},
	}
	for _, job := range jobs {
		if job.spec == "" {
			continue
		}
		run := job.run
		_, err := c.AddFunc(job.spec, func() {
			runCtx, cancel := context.WithTimeout(ctx, jobTimeout)
			defer cancel()
			_, _ = run(runCtx)
		})
		if err != nil {
			return nil, fmt.Errorf("schedule %s %q: %w", job.name, job.spec, err)
		}
	}
	return &Scheduler{cron: c}, nil
}

func (s *Scheduler) Start() { s.cron.Start() }

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Jobs reports how many jobs are scheduled.
func (s *Scheduler) Jobs() int { return len(s.cron.Entries()) }

// Next reports when the earliest job runs next. Zero before Start.
func (s *Scheduler) Next() time.Time {
	var next time.Time
	for _, e := range s.cron.Entries() {
		if next.IsZero() || (!e.Next.IsZero() && e.Next.Before(next)) {
			next = e.Next
		}
	}
	return next
}

// cronLogger adapts slog to cron.Logger.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}

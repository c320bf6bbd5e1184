package cli

import (
	"context"
	"fmt"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/backend"
	"finboard/internal/cache"
	"finboard/internal/config"
	"finboard/internal/core"
	"finboard/internal/goals"
	"finboard/internal/log"
	"finboard/internal/ports"
	"finboard/internal/services"
	"finboard/internal/telemetry"
)

const (
	// summaryCacheSize bounds the per-user summary cache.
	summaryCacheSize     = 1000
	cacheCleanupInterval = time.Minute
)

// App is the wired service graph shared by the API server and the worker.
type App struct {
	Config  *config.Config
	Repo    ports.Repository
	Events  *amqp.Client
	Metrics *telemetry.Metrics

	Finance   *services.FinanceService
	Entries   *services.EntryService
	Snapshots *services.SnapshotService

	caches   *cache.Manager
	cleanups []backend.CleanupFunc
	logger   *log.Logger
}

// BuildApp opens the configured backend and goal clock and wires the
// services on top of them. Close releases everything.
func BuildApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	return buildApp(ctx, cfg, logger, backend.NewFactory(logger.Logger))
}

func buildApp(ctx context.Context, cfg *config.Config, logger *log.Logger, factory backend.Factory) (*App, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}

	res, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}
	app := &App{
		Config:  cfg,
		Repo:    res.Repository,
		Events:  res.Events,
		Metrics: telemetry.New(),
		caches:  cache.NewManager(),
		logger:  logger,
	}
	app.addCleanup(res.Cleanup)

	clock, err := factory.CreateGoalClock(ctx, bcfg)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create goal clock: %w", err)
	}
	app.addCleanup(clock.Cleanup)

	coordinator := goals.NewCoordinator(clock.Store,
		goals.WithCooldown(cfg.GoalUpdateCooldown),
		goals.WithObserver(app.Metrics))

	var finOpts []services.FinanceOption
	if cfg.SummaryCacheTTL > 0 {
		summaries := cache.NewLRUCache[core.FinancialSummary](summaryCacheSize, cfg.SummaryCacheTTL)
		app.caches.Register("summaries", summaries)
		finOpts = append(finOpts, services.WithSummaryCache(summaries))
	}
	if mc, ok := clock.Store.(*goals.MemoryClock); ok {
		app.caches.Register("goal_clock", mc)
	}
	app.caches.StartCleanup(cacheCleanupInterval)

	app.Finance = services.NewFinanceService(app.Repo, coordinator, finOpts...)
	app.Snapshots = services.NewSnapshotService(app.Repo)

	// A nil *amqp.Client must not reach the Publisher interface.
	var publisher services.Publisher
	if app.Events != nil {
		publisher = app.Events
	}
	app.Entries = services.NewEntryService(app.Repo, publisher)
	app.Entries.OnChange(app.Finance.InvalidateSummary)

	return app, nil
}

func (a *App) addCleanup(fn backend.CleanupFunc) {
	if fn != nil {
		a.cleanups = append(a.cleanups, fn)
	}
}

// Ping reports whether the repository is reachable.
func (a *App) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return a.Repo.Ping(ctx)
}

// Close stops background cache cleanup and releases backends in reverse
// order of acquisition.
func (a *App) Close() {
	a.caches.Stop()
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](); err != nil {
			a.logger.Warn("Cleanup failed", log.FieldError, err.Error())
		}
	}
	a.cleanups = nil
}

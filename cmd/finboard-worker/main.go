// Package main runs the finboard worker: it refreshes derived figures when
// records change, snapshots net worth and catches up goals on a schedule.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/cli"
	"finboard/internal/log"
	"finboard/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	var configPath, metricsAddr string

	cmd := &cobra.Command{
		Use:           "finboard-worker",
		Short:         "Refresh derived figures on change events and snapshot net worth",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath, metricsAddr)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML config file overlaid on the environment")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", ":9091", "Address serving /metrics; empty disables it")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, metricsAddr string) error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(configPath)
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(cfg.LogLevel, log.ComponentWorker)
	logger.Info("Starting finboard-worker",
		"backend", cfg.DataBackend,
		"snapshot_schedule", cfg.SnapshotSchedule,
		"goal_refresh_schedule", cfg.GoalRefreshSchedule)

	app, err := cli.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	w := worker.NewRefreshWorker(app.Finance, app.Snapshots, app.Metrics)

	var metricsSrv *http.Server
	if metricsAddr != "" {
		metricsSrv = &http.Server{
			Addr:              metricsAddr,
			Handler:           app.Metrics.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	var scheduler *worker.Scheduler
	sched := worker.Schedule{Snapshots: cfg.SnapshotSchedule, GoalRefresh: cfg.GoalRefreshSchedule}
	if sched.Snapshots != "" || sched.GoalRefresh != "" {
		scheduler, err = worker.NewScheduler(context.Background(), sched, w, logger.Logger)
		if err != nil {
			app.Close()
			return err
		}
	}

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if scheduler != nil {
			scheduler.Stop(ctx)
		}
		if metricsSrv != nil {
			_ = metricsSrv.Shutdown(ctx)
		}
		app.Close()
	})

	if scheduler != nil {
		scheduler.Start()
		logger.Info("Scheduled jobs started", "jobs", scheduler.Jobs(), "next", scheduler.Next())
	} else {
		logger.Info("SNAPSHOT_SCHEDULE and GOAL_REFRESH_SCHEDULE are empty, scheduled jobs disabled")
	}

	if metricsSrv != nil {
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("Metrics server error", log.FieldError, err.Error())
			}
		}()
	}

	if app.Events != nil {
		go func() {
			if err := w.Run(ctx, app.Events); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Warn("AMQP is not configured, only scheduled jobs will run")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
	return nil
}

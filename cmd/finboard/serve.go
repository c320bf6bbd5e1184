package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"finboard/internal/cli"
	apphttp "finboard/internal/http"
	"finboard/internal/log"
)

const shutdownTimeout = 30 * time.Second

func serveCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(flags)
		},
	}
}

func runServe(flags *globalFlags) error {
	if err := cli.LoadEnvFile(); err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig(flags.configPath)
	if err != nil {
		return err
	}
	logger := cli.SetupLogger(firstNonEmpty(flags.logLevel, cfg.LogLevel), log.ComponentApp)
	logger.Info("Starting finboard server", "version", Version, "backend", cfg.DataBackend, "goal_clock", cfg.GoalClockBackend)

	app, err := cli.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		return err
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:               ":" + cfg.Port,
		AuthSecret:         cfg.AuthSecret,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Logger:             logger.WithComponent(log.ComponentHTTP),
		Metrics:            app.Metrics,
		Ready:              app.Ping,
	}, apphttp.Services{
		Finance:   app.Finance,
		Entries:   app.Entries,
		Snapshots: app.Snapshots,
	})

	ctx, done := cli.GracefulShutdown(logger, shutdownTimeout, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		app.Close()
	})

	logger.Info("Listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err.Error(), "addr", srv.Addr)
		app.Close()
		return err
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
	return nil
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/log"
	"finboard/internal/storage"
)

func migrateCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations for the configured backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.LoadEnvFile(); err != nil {
				return err
			}
			cfg, err := cli.LoadAndValidateConfig(flags.configPath)
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(firstNonEmpty(flags.logLevel, cfg.LogLevel), log.ComponentCLI)

			dialect, dsn, ok := migrationTarget(cfg)
			if !ok {
				logger.Info("Memory backend has no schema, nothing to migrate")
				return nil
			}
			if err := storage.RunMigrations(dialect, dsn); err != nil {
				return fmt.Errorf("migrate %s: %w", dialect, err)
			}
			logger.Info("Migrations applied", "dialect", dialect)
			return nil
		},
	}
}

func migrationTarget(cfg *config.Config) (storage.Dialect, string, bool) {
	switch cfg.DataBackend {
	case config.BackendSQLite:
		return storage.SQLite, cfg.SQLiteDBPath, true
	case config.BackendPostgres:
		return storage.Postgres, cfg.PostgresURL, true
	}
	return "", "", false
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

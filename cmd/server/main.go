// Package main implements the entry point for the TaskForge API server,
// which manages users' task lists behind JWT-authenticated endpoints with
// a Redis-backed session registry and task cache.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
)

func main() {
	migrateCmd := flag.String(
		"migrate",
		"",
		"run a migration command instead of the server (up, down, status, version)",
	)
	flag.Parse()

	if err := run(*migrateCmd); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}
}

// run loads configuration, sets up logging and either executes a migration
// command or starts the server. Split out of main so it can return errors.
func run(migrateCmd string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	if migrateCmd != "" {
		if err := handleMigrations(cfg, migrateCmd, appLogger); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		return nil
	}

	db, err := setupDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}

	ctx := context.Background()

	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		// newApplication does not own db until it returns successfully.
		if closeErr := db.Close(); closeErr != nil {
			appLogger.Error("Error closing database connection", slog.String("error", redact.Error(closeErr)))
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		appLogger.Error("Server exited with error", slog.String("error", redact.Error(err)))
		os.Exit(1)
	}

	return nil
}

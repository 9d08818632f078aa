package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"
	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/redact"
)

// migrationsDir is the default location of goose SQL migrations relative to
// the working directory.
const migrationsDir = "migrations"

// migrationTableName is the table goose uses to record applied versions.
const migrationTableName = "goose_db_version"

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct{}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
	os.Exit(1)
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "migrations"))
}

// handleMigrations opens its own database connection and executes the
// requested goose command against the migrations directory.
func handleMigrations(cfg *config.Config, command string, logger *slog.Logger) error {
	log := logger.With(slog.String("component", "migrations"), slog.String("command", command))

	dir, err := resolveMigrationsDir()
	if err != nil {
		return err
	}
	log.Info("Using migrations directory", slog.String("path", dir))

	db, err := setupDatabase(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database connection", slog.String("error", redact.Error(err)))
		}
	}()

	goose.SetLogger(&slogGooseLogger{})
	goose.SetTableName(migrationTableName)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	switch command {
	case "up":
		err = goose.Up(db, dir)
	case "down":
		err = goose.Down(db, dir)
	case "status":
		err = goose.Status(db, dir)
	case "version":
		err = goose.Version(db, dir)
	default:
		return fmt.Errorf("unknown migration command: %s (expected up, down, status, or version)", command)
	}
	if err != nil {
		return fmt.Errorf("migration command %q failed: %w", command, err)
	}

	log.Info("Migration command executed successfully")
	return nil
}

// resolveMigrationsDir returns the absolute path to the migrations
// directory, verifying that it exists.
func resolveMigrationsDir() (string, error) {
	dir, err := filepath.Abs(migrationsDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve migrations directory: %w", err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("migrations directory not found at %s", dir)
	}

	return dir, nil
}

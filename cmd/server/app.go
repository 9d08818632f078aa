package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/taskforge/taskforge-api/internal/config"
	"github.com/taskforge/taskforge-api/internal/platform/email"
	"github.com/taskforge/taskforge-api/internal/platform/postgres"
	"github.com/taskforge/taskforge-api/internal/platform/redis"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/service"
	"github.com/taskforge/taskforge-api/internal/service/auth"
	"github.com/taskforge/taskforge-api/internal/store"
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB
	redis  *goredis.Client

	// Stores
	userStore    store.UserStore
	taskStore    store.TaskStore
	metricsStore store.MetricsStore
	kvStore      store.KVStore

	// Services
	jwtService     auth.JWTService
	tokenService   auth.TokenService
	authService    *service.AuthService
	taskService    service.TaskReader
	metricsService *service.MetricsService
}

// newApplication creates an application instance with all dependencies
// initialized. Core dependencies (configuration, logger, database) must be
// established before calling.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.redis, err = redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	logger.Info("Redis connection established", slog.String("addr", cfg.Redis.Addr))

	app.userStore = postgres.NewUserStore(db, logger)
	app.taskStore = postgres.NewTaskStore(db, logger)
	app.metricsStore = postgres.NewMetricsStore(db, logger)
	app.kvStore = redis.NewKVStore(app.redis, logger)

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		slog.Int("token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes))

	sessions := auth.NewSessionStore(app.kvStore, logger)

	app.tokenService, err = auth.NewTokenService(app.jwtService, sessions, app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create token service: %w", err)
	}

	mailer := email.NewMailer(cfg.Email, logger)

	app.authService, err = service.NewAuthService(
		app.userStore,
		auth.NewBcryptHasher(),
		app.tokenService,
		mailer,
		cfg.Email.ResetBaseURL,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	taskService, err := service.NewTaskService(app.taskStore, app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	// All task reads and writes go through the caching decorator.
	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	app.taskService, err = service.NewCachedTaskService(taskService, app.kvStore, cacheTTL, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cached task service: %w", err)
	}

	app.metricsService, err = service.NewMetricsService(
		app.metricsStore,
		app.taskStore,
		app.userStore,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics service: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", slog.String("error", redact.Error(err)))
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", slog.String("error", redact.Error(err)))
		}
	}

	app.logger.Info("Application shutdown completed")
}

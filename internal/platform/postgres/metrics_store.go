package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// MetricsStore implements the store.MetricsStore interface using a
// single-row PostgreSQL table as the storage backend. The stored row is the
// last-known-good snapshot served when live aggregation fails.
type MetricsStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewMetricsStore creates a new PostgreSQL implementation of the
// MetricsStore interface. If logger is nil, a default logger will be used.
func NewMetricsStore(db store.DBTX, logger *slog.Logger) *MetricsStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &MetricsStore{
		db:     db,
		logger: logger.With(slog.String("component", "metrics_store")),
	}
}

// Ensure MetricsStore implements store.MetricsStore interface
var _ store.MetricsStore = (*MetricsStore)(nil)

// Get implements store.MetricsStore.Get
func (s *MetricsStore) Get(ctx context.Context) (*domain.Metrics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT total_users, total_tasks, completed_tasks, active_tasks, computed_at
		FROM metrics
		WHERE id = 1
	`

	var m domain.Metrics
	err := s.db.QueryRowContext(ctx, query).Scan(
		&m.TotalUsers,
		&m.TotalTasks,
		&m.CompletedTasks,
		&m.ActiveTasks,
		&m.ComputedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMetricsNotFound
		}
		log.Error("failed to get stored metrics", slog.String("error", redact.Error(err)))
		return nil, err
	}

	return &m, nil
}

// Upsert implements store.MetricsStore.Upsert
func (s *MetricsStore) Upsert(ctx context.Context, metrics *domain.Metrics) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO metrics (id, total_users, total_tasks, completed_tasks, active_tasks, computed_at)
		VALUES (1, $1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET total_users = EXCLUDED.total_users,
		    total_tasks = EXCLUDED.total_tasks,
		    completed_tasks = EXCLUDED.completed_tasks,
		    active_tasks = EXCLUDED.active_tasks,
		    computed_at = EXCLUDED.computed_at
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		metrics.TotalUsers,
		metrics.TotalTasks,
		metrics.CompletedTasks,
		metrics.ActiveTasks,
		metrics.ComputedAt,
	)

	if err != nil {
		log.Error("failed to upsert metrics snapshot", slog.String("error", redact.Error(err)))
		return err
	}

	return nil
}

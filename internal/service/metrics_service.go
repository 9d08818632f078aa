package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// MetricsService computes aggregate user/task counts and keeps a
// last-known-good snapshot in the metrics store. When live aggregation
// fails, the stored snapshot is served instead of an error — availability
// over freshness, unique to this read path.
type MetricsService struct {
	metrics  store.MetricsStore
	tasks    store.TaskStore
	users    store.UserStore
	timeFunc func() time.Time
	logger   *slog.Logger
}

// NewMetricsService creates a MetricsService with the given dependencies.
func NewMetricsService(
	metrics store.MetricsStore,
	tasks store.TaskStore,
	users store.UserStore,
	log *slog.Logger,
) (*MetricsService, error) {
	if metrics == nil {
		return nil, fmt.Errorf("%w: metrics", ErrNilDependency)
	}
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks", ErrNilDependency)
	}
	if users == nil {
		return nil, fmt.Errorf("%w: users", ErrNilDependency)
	}
	if log == nil {
		log = slog.Default()
	}

	return &MetricsService{
		metrics:  metrics,
		tasks:    tasks,
		users:    users,
		timeFunc: time.Now,
		logger:   log.With(slog.String("component", "metrics_service")),
	}, nil
}

// Get computes fresh metrics and persists them as the new snapshot. On any
// failure it falls back to the stored snapshot, and to zero metrics when
// none exists yet.
func (s *MetricsService) Get(ctx context.Context) (*domain.Metrics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	metrics, err := s.compute(ctx)
	if err != nil {
		log.Error("metrics computation failed, serving stored snapshot",
			slog.String("error", redact.Error(err)))

		stored, getErr := s.metrics.Get(ctx)
		if getErr != nil {
			if store.IsNotFoundError(getErr) {
				return &domain.Metrics{}, nil
			}
			return nil, getErr
		}
		return stored, nil
	}

	if err := s.metrics.Upsert(ctx, metrics); err != nil {
		// The fresh numbers are still good; failing to persist the
		// snapshot only affects a future fallback.
		log.Warn("failed to persist metrics snapshot",
			slog.String("error", redact.Error(err)))
	}

	log.Debug("metrics updated",
		slog.Int("total_users", metrics.TotalUsers),
		slog.Int("total_tasks", metrics.TotalTasks))
	return metrics, nil
}

func (s *MetricsService) compute(ctx context.Context) (*domain.Metrics, error) {
	totalUsers, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}

	tasks, err := s.tasks.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	completed := 0
	for _, task := range tasks {
		if task.Completed {
			completed++
		}
	}

	return &domain.Metrics{
		TotalUsers:     totalUsers,
		TotalTasks:     len(tasks),
		CompletedTasks: completed,
		ActiveTasks:    len(tasks) - completed,
		ComputedAt:     s.timeFunc().UTC(),
	}, nil
}

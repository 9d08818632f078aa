package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/redact"
	"github.com/taskforge/taskforge-api/internal/store"
)

// Cache key namespaces for task entries.
const (
	taskCachePrefix      = "task:"
	userTasksCachePrefix = "user_tasks:"
)

// CachedTaskService is a cache-aside decorator over the authoritative task
// service. Reads check the key-value store first; writes delegate to the
// inner service and then invalidate, never update, the affected entries.
// The cache is best-effort: key-value store failures degrade to the inner
// service rather than failing the request. There is no locking; concurrent
// misses may each repopulate the same key, which is idempotent.
type CachedTaskService struct {
	inner  TaskReader
	kv     store.KVStore
	ttl    time.Duration
	logger *slog.Logger
}

// Ensure CachedTaskService implements TaskReader
var _ TaskReader = (*CachedTaskService)(nil)

// NewCachedTaskService creates the caching decorator with the given TTL for
// cache entries.
func NewCachedTaskService(inner TaskReader, kv store.KVStore, ttl time.Duration, log *slog.Logger) (*CachedTaskService, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner", ErrNilDependency)
	}
	if kv == nil {
		return nil, fmt.Errorf("%w: kv", ErrNilDependency)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	if log == nil {
		log = slog.Default()
	}

	return &CachedTaskService{
		inner:  inner,
		kv:     kv,
		ttl:    ttl,
		logger: log.With(slog.String("component", "cached_task_service")),
	}, nil
}

func taskCacheKey(taskID uuid.UUID) string {
	return taskCachePrefix + taskID.String()
}

func userTasksCacheKey(userID uuid.UUID) string {
	return userTasksCachePrefix + userID.String()
}

// Create delegates to the inner service and invalidates the owner's task
// list, so a newly created task is never hidden by a stale cached list.
func (s *CachedTaskService) Create(ctx context.Context, title, description string, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.inner.Create(ctx, title, description, userID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userTasksCacheKey(userID))
	return task, nil
}

// Get serves the task from cache when possible. A cache hit is only
// returned after re-verifying ownership: trusting a cached entry without
// the check would leak cross-user data if cache keys were ever guessable.
// On a miss the inner service is consulted and, only if the task was found,
// the cache is populated.
func (s *CachedTaskService) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if payload := s.cacheGet(ctx, taskCacheKey(taskID)); payload != nil {
		var task domain.Task
		if err := json.Unmarshal(payload, &task); err == nil {
			if !task.IsOwnedBy(userID) {
				return nil, ErrTaskNotOwned
			}
			log.Debug("task served from cache", slog.String("task_id", taskID.String()))
			return &task, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		s.invalidate(ctx, taskCacheKey(taskID))
	}

	task, err := s.inner.Get(ctx, taskID, userID)
	if err != nil || task == nil {
		return task, err
	}

	s.cacheSet(ctx, taskCacheKey(taskID), task)
	return task, nil
}

// Update delegates first (the inner service enforces existence and
// ownership) and then unconditionally invalidates both the task entry and
// the owner's list, whether or not cacheable fields changed. Correctness
// over cache efficiency.
func (s *CachedTaskService) Update(
	ctx context.Context,
	taskID uuid.UUID,
	title, description *string,
	userID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.inner.Update(ctx, taskID, title, description, userID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, taskCacheKey(taskID), userTasksCacheKey(userID))
	return task, nil
}

// UpdateStatus mirrors Update's delegate-then-invalidate sequence.
func (s *CachedTaskService) UpdateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	completed bool,
	userID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.inner.UpdateStatus(ctx, taskID, completed, userID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, taskCacheKey(taskID), userTasksCacheKey(userID))
	return task, nil
}

// Delete mirrors Update's delegate-then-invalidate sequence.
func (s *CachedTaskService) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	if err := s.inner.Delete(ctx, taskID, userID); err != nil {
		return err
	}

	s.invalidate(ctx, taskCacheKey(taskID), userTasksCacheKey(userID))
	return nil
}

// ListByUser is list-level cache-aside. No per-item ownership recheck is
// needed: the list key is already scoped to a single user.
func (s *CachedTaskService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if payload := s.cacheGet(ctx, userTasksCacheKey(userID)); payload != nil {
		var tasks []*domain.Task
		if err := json.Unmarshal(payload, &tasks); err == nil {
			log.Debug("task list served from cache", slog.String("user_id", userID.String()))
			return tasks, nil
		}
		s.invalidate(ctx, userTasksCacheKey(userID))
	}

	tasks, err := s.inner.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if len(tasks) > 0 {
		s.cacheSet(ctx, userTasksCacheKey(userID), tasks)
	}
	return tasks, nil
}

// cacheGet reads a cache entry, treating any key-value store failure as a
// miss.
func (s *CachedTaskService) cacheGet(ctx context.Context, key string) []byte {
	payload, err := s.kv.Get(ctx, key)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache read failed, falling through",
			slog.String("error", redact.Error(err)),
			slog.String("key", key))
		return nil
	}
	return payload
}

// cacheSet populates a cache entry, logging but not surfacing failures.
func (s *CachedTaskService) cacheSet(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.kv.SetWithTTL(ctx, key, payload, s.ttl); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache write failed",
			slog.String("error", redact.Error(err)),
			slog.String("key", key))
	}
}

// invalidate deletes cache entries, logging but not surfacing failures.
func (s *CachedTaskService) invalidate(ctx context.Context, keys ...string) {
	if _, err := s.kv.Delete(ctx, keys...); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Warn("cache invalidation failed",
			slog.String("error", redact.Error(err)))
	}
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/domain"
	"github.com/taskforge/taskforge-api/internal/platform/logger"
	"github.com/taskforge/taskforge-api/internal/store"
)

// TaskReader is the read/write surface shared by the authoritative task
// service and its caching decorator, so handlers can depend on either.
type TaskReader interface {
	Create(ctx context.Context, title, description string, userID uuid.UUID) (*domain.Task, error)
	Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error)
	Update(ctx context.Context, taskID uuid.UUID, title, description *string, userID uuid.UUID) (*domain.Task, error)
	UpdateStatus(ctx context.Context, taskID uuid.UUID, completed bool, userID uuid.UUID) (*domain.Task, error)
	Delete(ctx context.Context, taskID, userID uuid.UUID) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)
}

// TaskService is the authoritative task service. It owns validation,
// existence and ownership guards; the store below it answers only
// content questions.
type TaskService struct {
	tasks  store.TaskStore
	users  store.UserStore
	logger *slog.Logger
}

// Ensure TaskService implements TaskReader
var _ TaskReader = (*TaskService)(nil)

// NewTaskService creates a TaskService with the given dependencies.
func NewTaskService(tasks store.TaskStore, users store.UserStore, log *slog.Logger) (*TaskService, error) {
	if tasks == nil {
		return nil, fmt.Errorf("%w: tasks", ErrNilDependency)
	}
	if users == nil {
		return nil, fmt.Errorf("%w: users", ErrNilDependency)
	}
	if log == nil {
		log = slog.Default()
	}

	return &TaskService{
		tasks:  tasks,
		users:  users,
		logger: log.With(slog.String("component", "task_service")),
	}, nil
}

// Create validates and persists a new task for the given user.
// Returns domain.ErrEmptyTitle / domain.ErrEmptyDescription for blank
// fields and store.ErrUserNotFound when the owner does not exist.
func (s *TaskService) Create(ctx context.Context, title, description string, userID uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if strings.TrimSpace(title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if strings.TrimSpace(description) == "" {
		return nil, domain.ErrEmptyDescription
	}

	// The owner must resolve before anything is persisted.
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	task, err := domain.NewTask(title, description, userID)
	if err != nil {
		return nil, err
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// Get retrieves a task for the given user.
// Returns (nil, nil) when the task does not exist, and ErrTaskNotOwned when
// it exists but belongs to someone else.
func (s *TaskService) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, nil
		}
		return nil, err
	}

	if !task.IsOwnedBy(userID) {
		return nil, ErrTaskNotOwned
	}

	return task, nil
}

// Update merges the provided fields over the existing task. Omitted (nil)
// fields retain their prior values, and the completed flag is never
// touched: completion state changes only through UpdateStatus.
// The merged title and description must not be blank.
func (s *TaskService) Update(
	ctx context.Context,
	taskID uuid.UUID,
	title, description *string,
	userID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.guarded(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if title != nil {
		task.Title = *title
	}
	if description != nil {
		task.Description = *description
	}

	if strings.TrimSpace(task.Title) == "" {
		return nil, domain.ErrEmptyTitle
	}
	if strings.TrimSpace(task.Description) == "" {
		return nil, domain.ErrEmptyDescription
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateStatus replaces only the completed flag, preserving title and
// description.
func (s *TaskService) UpdateStatus(
	ctx context.Context,
	taskID uuid.UUID,
	completed bool,
	userID uuid.UUID,
) (*domain.Task, error) {
	task, err := s.guarded(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	task.Completed = completed

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	return task, nil
}

// Delete removes a task after the usual guards.
func (s *TaskService) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	if _, err := s.guarded(ctx, taskID, userID); err != nil {
		return err
	}

	return s.tasks.Delete(ctx, taskID)
}

// ListByUser returns all tasks owned by the given user, without pagination.
func (s *TaskService) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	return s.tasks.FindByUserID(ctx, userID)
}

// guarded runs the shared mutation guard sequence: existence, then
// ownership. Returns store.ErrTaskNotFound / ErrTaskNotOwned accordingly.
func (s *TaskService) guarded(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if !task.IsOwnedBy(userID) {
		return nil, ErrTaskNotOwned
	}

	return task, nil
}

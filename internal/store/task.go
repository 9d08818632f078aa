package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/taskforge/taskforge-api/internal/domain"
)

// TaskStore defines the interface for task data persistence.
// Ownership checks are a service-layer concern; the store answers only
// existence and content questions.
type TaskStore interface {
	// Create saves a new task to the store.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task by its unique ID.
	// Returns ErrTaskNotFound if the task does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// Update replaces an existing task's mutable fields (title, description,
	// completed). Returns ErrTaskNotFound if the task does not exist.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task from the store by its ID.
	// Returns ErrTaskNotFound if the task does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// FindByUserID returns all tasks owned by the given user, newest first.
	// Returns an empty slice when the user has no tasks.
	FindByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error)

	// FindAll returns every task in the store. Used by the metrics
	// aggregation path.
	FindAll(ctx context.Context) ([]*domain.Task, error)
}

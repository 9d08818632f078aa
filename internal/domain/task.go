package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Task field length limits.
const (
	TaskTitleMaxLen       = 100
	TaskDescriptionMaxLen = 500
)

// Task validation errors
var (
	ErrEmptyTaskID        = errors.New("task ID cannot be empty")
	ErrEmptyTaskOwner     = errors.New("task owner cannot be empty")
	ErrTitleTooLong       = fmt.Errorf("title must be at most %d characters long", TaskTitleMaxLen)
	ErrDescriptionTooLong = fmt.Errorf("description must be at most %d characters long", TaskDescriptionMaxLen)
)

// Task represents a single to-do item owned by a user.
type Task struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UserID      uuid.UUID `json:"user_id"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTask creates a new Task owned by the given user. New tasks always
// start with Completed=false. Returns an error if validation fails.
func NewTask(title, description string, userID uuid.UUID) (*Task, error) {
	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		UserID:      userID,
		Completed:   false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTaskID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyTaskOwner
	}
	if strings.TrimSpace(t.Title) == "" {
		return ErrEmptyTitle
	}
	if len(t.Title) > TaskTitleMaxLen {
		return ErrTitleTooLong
	}
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if len(t.Description) > TaskDescriptionMaxLen {
		return ErrDescriptionTooLong
	}
	return nil
}

// IsOwnedBy reports whether the task belongs to the given user.
func (t *Task) IsOwnedBy(userID uuid.UUID) bool {
	return t.UserID == userID
}

package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("creates valid task", func(t *testing.T) {
		t.Parallel()
		task, err := NewTask("Buy milk", "Semi-skimmed", userID)
		require.NoError(t, err)

		assert.NotEqual(t, uuid.Nil, task.ID)
		assert.Equal(t, "Buy milk", task.Title)
		assert.Equal(t, "Semi-skimmed", task.Description)
		assert.Equal(t, userID, task.UserID)
		assert.False(t, task.Completed, "new tasks must start incomplete")
		assert.False(t, task.CreatedAt.IsZero())
	})

	tests := []struct {
		name        string
		title       string
		description string
		userID      uuid.UUID
		wantErr     error
	}{
		{
			name:    "empty title",
			title:   "",
			userID:  userID,
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "whitespace title",
			title:   "   ",
			userID:  userID,
			wantErr: ErrEmptyTitle,
		},
		{
			name:    "title too long",
			title:   strings.Repeat("a", TaskTitleMaxLen+1),
			userID:  userID,
			wantErr: ErrTitleTooLong,
		},
		{
			name:        "empty description",
			title:       "Buy milk",
			description: "",
			userID:      userID,
			wantErr:     ErrEmptyDescription,
		},
		{
			name:        "whitespace description",
			title:       "Buy milk",
			description: "   ",
			userID:      userID,
			wantErr:     ErrEmptyDescription,
		},
		{
			name:        "description too long",
			title:       "Buy milk",
			description: strings.Repeat("a", TaskDescriptionMaxLen+1),
			userID:      userID,
			wantErr:     ErrDescriptionTooLong,
		},
		{
			name:    "missing owner",
			title:   "Buy milk",
			userID:  uuid.Nil,
			wantErr: ErrEmptyTaskOwner,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			task, err := NewTask(tt.title, tt.description, tt.userID)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, task)
		})
	}
}

func TestTaskIsOwnedBy(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	task, err := NewTask("Buy milk", "Semi-skimmed", owner)
	require.NoError(t, err)

	assert.True(t, task.IsOwnedBy(owner))
	assert.False(t, task.IsOwnedBy(uuid.New()))
}

package store

import (
	"context"

	"github.com/taskforge/taskforge-api/internal/domain"
)

// MetricsStore persists the last successfully computed metrics snapshot.
// It holds at most one row; Upsert replaces any previous snapshot.
type MetricsStore interface {
	// Get returns the stored snapshot.
	// Returns ErrMetricsNotFound if no snapshot has been stored yet.
	Get(ctx context.Context) (*domain.Metrics, error)

	// Upsert stores the snapshot, replacing any existing one.
	Upsert(ctx context.Context, metrics *domain.Metrics) error
}

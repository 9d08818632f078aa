package domain

import "time"

// Metrics holds aggregate counts over users and tasks. A snapshot is
// persisted after each successful computation so the metrics endpoint can
// fall back to the last known good values when a dependency is unavailable.
type Metrics struct {
	TotalUsers     int       `json:"total_users"`
	TotalTasks     int       `json:"total_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	ActiveTasks    int       `json:"active_tasks"`
	ComputedAt     time.Time `json:"computed_at"`
}

// Package service contains the application services that orchestrate
// domain entities, stores and the auth subsystem.
package service

import "errors"

// Common service-level errors.
var (
	// ErrTaskNotOwned is returned when a caller operates on a task owned by
	// a different user. Served identically whether the task came from the
	// cache or the authoritative store.
	ErrTaskNotOwned = errors.New("unauthorized access to task")

	// ErrNilDependency is returned by service constructors when a required
	// dependency is missing.
	ErrNilDependency = errors.New("required dependency is nil")
)

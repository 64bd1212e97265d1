package scheduling

import (
	"fmt"
	"time"

	"clinic-appointment-server/internal/models"
)

// NotFoundError indicates an id that does not resolve to an existing record.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ValidationError indicates a missing or invalid required field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// DurationError indicates a duration outside the allowed bounds.
type DurationError struct {
	Minutes int
}

func (e *DurationError) Error() string {
	return fmt.Sprintf("duration %d minutes outside allowed range [%d, %d]",
		e.Minutes, MinDurationMinutes, MaxDurationMinutes)
}

// ConflictError indicates the candidate window overlaps an existing active
// appointment. It carries the conflicting appointment so callers can build
// a message from its window.
type ConflictError struct {
	Existing *models.Appointment
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("time slot overlaps existing appointment %s (%s - %s)",
		e.Existing.ID,
		e.Existing.StartAt.Format(time.RFC3339),
		e.Existing.EndAt().Format(time.RFC3339))
}

// StorageError wraps an opaque persistence failure for the boundary layer
// to report. Transient storage failures are not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

package scheduling

import (
	"time"

	"clinic-appointment-server/internal/models"
)

// ConflictDetector scans same-day active appointments for temporal overlap
// with a candidate window. Appointments cannot span midnight in this model,
// so the scan is bounded to the candidate's calendar day.
type ConflictDetector struct {
	store AppointmentStore
}

// NewConflictDetector creates a new ConflictDetector.
func NewConflictDetector(store AppointmentStore) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// FindConflict returns the first active appointment on the candidate's
// calendar day whose [start, end) interval overlaps the candidate window,
// or nil when the slot is free. excludeID skips a record when an existing
// appointment is checked against itself during an edit.
//
// The check and the subsequent write are two separate steps with no atomic
// guarantee spanning them: two near-simultaneous requests for overlapping
// slots can both pass before either commits.
func (d *ConflictDetector) FindConflict(candidateStart time.Time, durationMinutes int, excludeID string) (*models.Appointment, error) {
	candidateEnd := candidateStart.Add(time.Duration(durationMinutes) * time.Minute)

	dayStart := time.Date(candidateStart.Year(), candidateStart.Month(), candidateStart.Day(),
		0, 0, 0, 0, candidateStart.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	sameDay, err := d.store.FindByDay(dayStart, dayEnd,
		[]models.AppointmentStatus{models.StatusCancelled}, excludeID)
	if err != nil {
		return nil, err
	}

	for i := range sameDay {
		existing := &sameDay[i]
		// Half-open intervals: ending exactly when another starts is no conflict.
		if candidateStart.Before(existing.EndAt()) && existing.StartAt.Before(candidateEnd) {
			return existing, nil
		}
	}
	return nil, nil
}

package scheduling

import (
	"time"

	"clinic-appointment-server/internal/models"
)

// ListFilter narrows appointment listings. Nil fields are ignored.
type ListFilter struct {
	Day         *time.Time
	Status      *models.AppointmentStatus
	PhysicianID *string
	PatientID   *string
}

// AppointmentStore is the persistence capability the scheduling core consumes.
// FindByID returns (nil, nil) when the id does not resolve.
type AppointmentStore interface {
	FindByID(id string) (*models.Appointment, error)
	// FindByDay returns appointments whose StartAt falls in [dayStart, dayEnd),
	// excluding the given statuses and, when excludeID is non-empty, that record.
	FindByDay(dayStart, dayEnd time.Time, excludeStatuses []models.AppointmentStatus, excludeID string) ([]models.Appointment, error)
	List(filter ListFilter) ([]models.Appointment, error)
	Insert(a *models.Appointment) error
	Save(a *models.Appointment) error
	// DeleteByID hard-removes the record and reports whether it existed.
	DeleteByID(id string) (bool, error)
}

// PatientStore resolves patient references during appointment validation.
type PatientStore interface {
	Exists(id string) (bool, error)
}

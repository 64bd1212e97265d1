package models

import (
	"time"
)

// AppointmentStatus represents the status of an appointment
type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusRescheduled AppointmentStatus = "rescheduled"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusAttended    AppointmentStatus = "attended"
)

// ExamType represents the type of examination an appointment is booked for
type ExamType string

const (
	ExamGeneralConsult ExamType = "general_consult"
	ExamLaboratory     ExamType = "laboratory"
	ExamImaging        ExamType = "imaging"
	ExamSpecialty      ExamType = "specialty"
)

// CancelActor identifies who cancelled an appointment
type CancelActor string

const (
	CancelledByPatient CancelActor = "patient"
	CancelledByAdmin   CancelActor = "admin"
	CancelledBySystem  CancelActor = "system"
)

// DefaultDurationMinutes is applied when a record carries no duration.
// Legacy rows may have been written without one.
const DefaultDurationMinutes = 15

// Appointment represents a scheduled patient visit
type Appointment struct {
	BaseModel
	PatientID          string            `gorm:"size:36;index;not null" json:"patientId"`
	PhysicianID        *string           `gorm:"size:36;index" json:"physicianId,omitempty"`
	StartAt            time.Time         `gorm:"index;not null" json:"startAt"`
	DurationMinutes    int               `gorm:"default:15" json:"durationMinutes"`
	Reason             string            `gorm:"size:255;not null" json:"reason"`
	ExamType           ExamType          `gorm:"size:30;not null" json:"examType"`
	Status             AppointmentStatus `gorm:"size:20;default:'pending'" json:"status"`
	CancelledBy        *CancelActor      `gorm:"size:20" json:"cancelledBy,omitempty"`
	CancellationReason *string           `gorm:"size:255" json:"cancellationReason,omitempty"`
	PhysicianNotes     *string           `gorm:"type:text" json:"physicianNotes,omitempty"`
	AttendedAt         *time.Time        `json:"attendedAt,omitempty"`

	// Relations
	Patient   Patient `gorm:"foreignKey:PatientID" json:"-"`
	Physician *User   `gorm:"foreignKey:PhysicianID" json:"-"`
}

// EffectiveDuration returns the appointment's duration, falling back to
// DefaultDurationMinutes for records that carry none.
func (a *Appointment) EffectiveDuration() time.Duration {
	minutes := a.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultDurationMinutes
	}
	return time.Duration(minutes) * time.Minute
}

// EndAt returns the derived end of the appointment's interval. Intervals are
// half-open: an appointment ending exactly when another starts does not overlap it.
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(a.EffectiveDuration())
}

// IsActive reports whether the appointment counts toward conflict detection.
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled
}

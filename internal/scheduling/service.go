package scheduling

import (
	"time"

	"github.com/sirupsen/logrus"

	"clinic-appointment-server/internal/models"
)

// Duration bounds for a single appointment, inclusive.
const (
	MinDurationMinutes = 5
	MaxDurationMinutes = 120
)

// DefaultCancellationReason is recorded when a cancellation carries no reason.
const DefaultCancellationReason = "Unspecified"

var validStatuses = map[models.AppointmentStatus]bool{
	models.StatusPending:     true,
	models.StatusConfirmed:   true,
	models.StatusRescheduled: true,
	models.StatusCancelled:   true,
	models.StatusAttended:    true,
}

var validExamTypes = map[models.ExamType]bool{
	models.ExamGeneralConsult: true,
	models.ExamLaboratory:     true,
	models.ExamImaging:        true,
	models.ExamSpecialty:      true,
}

var validCancelActors = map[models.CancelActor]bool{
	models.CancelledByPatient: true,
	models.CancelledByAdmin:   true,
	models.CancelledBySystem:  true,
}

// Service owns the appointment lifecycle: field validation, conflict
// screening on create and direct field mutation, and the mandatory side
// effects of each status-changing operation. Status itself is an open enum;
// no transition table restricts which state can move to which.
type Service struct {
	appointments AppointmentStore
	patients     PatientStore
	detector     *ConflictDetector
	log          *logrus.Logger
	now          func() time.Time
}

// NewService creates a new scheduling service.
func NewService(appointments AppointmentStore, patients PatientStore, log *logrus.Logger) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		detector:     NewConflictDetector(appointments),
		log:          log,
		now:          time.Now,
	}
}

// CreateInput carries the fields accepted when booking an appointment.
type CreateInput struct {
	PatientID       string
	PhysicianID     *string
	StartAt         time.Time
	DurationMinutes int // zero means DefaultDurationMinutes
	Reason          string
	ExamType        models.ExamType
}

// Create validates the booking, screens it for conflicts and persists it.
// Status is always forced to pending regardless of caller intent.
func (s *Service) Create(in CreateInput) (*models.Appointment, error) {
	if in.PatientID == "" {
		return nil, &ValidationError{Field: "patientId", Message: "patient reference is required"}
	}
	exists, err := s.patients.Exists(in.PatientID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, &ValidationError{Field: "patientId", Message: "patient does not exist"}
	}
	if in.StartAt.IsZero() {
		return nil, &ValidationError{Field: "startAt", Message: "start time is required"}
	}
	if in.Reason == "" {
		return nil, &ValidationError{Field: "reason", Message: "reason is required"}
	}
	if !validExamTypes[in.ExamType] {
		return nil, &ValidationError{Field: "examType", Message: "unknown exam type"}
	}

	duration := in.DurationMinutes
	if duration == 0 {
		duration = models.DefaultDurationMinutes
	}
	if duration < MinDurationMinutes || duration > MaxDurationMinutes {
		return nil, &DurationError{Minutes: duration}
	}

	conflict, err := s.detector.FindConflict(in.StartAt, duration, "")
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &ConflictError{Existing: conflict}
	}

	appointment := &models.Appointment{
		PatientID:       in.PatientID,
		PhysicianID:     in.PhysicianID,
		StartAt:         in.StartAt,
		DurationMinutes: duration,
		Reason:          in.Reason,
		ExamType:        in.ExamType,
		Status:          models.StatusPending,
	}
	if err := s.appointments.Insert(appointment); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"patient_id":     appointment.PatientID,
		"start_at":       appointment.StartAt,
	}).Info("appointment created")
	return appointment, nil
}

// Get loads a single appointment.
func (s *Service) Get(id string) (*models.Appointment, error) {
	return s.load(id)
}

// List returns appointments matching the filter.
func (s *Service) List(filter ListFilter) ([]models.Appointment, error) {
	return s.appointments.List(filter)
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	PatientID          *string
	PhysicianID        *string
	StartAt            *time.Time
	DurationMinutes    *int
	Reason             *string
	ExamType           *models.ExamType
	PhysicianNotes     *string
	Status             *models.AppointmentStatus
	CancelledBy        *models.CancelActor
	CancellationReason *string
}

// Update applies a partial mutation. Moving the window (startAt or duration)
// re-validates the duration bound and re-runs conflict detection against the
// rest of the day, excluding the appointment itself. Setting status carries
// the mandatory side effects: attended stamps attendedAt, cancelled derives
// cancelledBy and cancellationReason when absent.
func (s *Service) Update(id string, in UpdateInput) (*models.Appointment, error) {
	appointment, err := s.load(id)
	if err != nil {
		return nil, err
	}

	if in.PatientID != nil {
		exists, err := s.patients.Exists(*in.PatientID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, &ValidationError{Field: "patientId", Message: "patient does not exist"}
		}
	}
	if in.ExamType != nil && !validExamTypes[*in.ExamType] {
		return nil, &ValidationError{Field: "examType", Message: "unknown exam type"}
	}
	if in.Status != nil && !validStatuses[*in.Status] {
		return nil, &ValidationError{Field: "status", Message: "unknown status"}
	}
	if in.CancelledBy != nil && !validCancelActors[*in.CancelledBy] {
		return nil, &ValidationError{Field: "cancelledBy", Message: "unknown cancel actor"}
	}

	if in.StartAt != nil || in.DurationMinutes != nil {
		start := appointment.StartAt
		if in.StartAt != nil {
			start = *in.StartAt
		}
		duration := appointment.DurationMinutes
		if in.DurationMinutes != nil {
			duration = *in.DurationMinutes
		}
		if duration == 0 {
			duration = models.DefaultDurationMinutes
		}
		if duration < MinDurationMinutes || duration > MaxDurationMinutes {
			return nil, &DurationError{Minutes: duration}
		}
		conflict, err := s.detector.FindConflict(start, duration, appointment.ID)
		if err != nil {
			return nil, err
		}
		if conflict != nil {
			return nil, &ConflictError{Existing: conflict}
		}
		appointment.StartAt = start
		appointment.DurationMinutes = duration
	}

	if in.PatientID != nil {
		appointment.PatientID = *in.PatientID
	}
	if in.PhysicianID != nil {
		appointment.PhysicianID = in.PhysicianID
	}
	if in.Reason != nil {
		appointment.Reason = *in.Reason
	}
	if in.ExamType != nil {
		appointment.ExamType = *in.ExamType
	}
	if in.PhysicianNotes != nil {
		appointment.PhysicianNotes = in.PhysicianNotes
	}

	if in.Status != nil {
		appointment.Status = *in.Status
		switch *in.Status {
		case models.StatusAttended:
			attendedAt := s.now()
			appointment.AttendedAt = &attendedAt
		case models.StatusCancelled:
			appointment.CancelledBy = cancelActorOrDefault(in.CancelledBy)
			appointment.CancellationReason = cancellationReasonOrDefault(in.CancellationReason)
		}
	}

	if err := s.appointments.Save(appointment); err != nil {
		return nil, err
	}
	s.log.WithField("appointment_id", appointment.ID).Info("appointment updated")
	return appointment, nil
}

// Confirm sets the status to confirmed unconditionally.
func (s *Service) Confirm(id string) (*models.Appointment, error) {
	appointment, err := s.load(id)
	if err != nil {
		return nil, err
	}
	appointment.Status = models.StatusConfirmed
	if err := s.appointments.Save(appointment); err != nil {
		return nil, err
	}
	s.log.WithField("appointment_id", appointment.ID).Info("appointment confirmed")
	return appointment, nil
}

// Reschedule moves the appointment to newStartAt and marks it rescheduled.
// Conflict detection is intentionally not re-run here: callers are expected
// to have validated the new slot separately.
func (s *Service) Reschedule(id string, newStartAt time.Time) (*models.Appointment, error) {
	if newStartAt.IsZero() {
		return nil, &ValidationError{Field: "newStartAt", Message: "new start time is required"}
	}
	appointment, err := s.load(id)
	if err != nil {
		return nil, err
	}
	appointment.StartAt = newStartAt
	appointment.Status = models.StatusRescheduled
	if err := s.appointments.Save(appointment); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"start_at":       newStartAt,
	}).Info("appointment rescheduled")
	return appointment, nil
}

// Cancel sets the status to cancelled, defaulting cancelledBy to admin and
// the reason to DefaultCancellationReason when not supplied.
func (s *Service) Cancel(id string, reason *string, cancelledBy *models.CancelActor) (*models.Appointment, error) {
	if cancelledBy != nil && !validCancelActors[*cancelledBy] {
		return nil, &ValidationError{Field: "cancelledBy", Message: "unknown cancel actor"}
	}
	appointment, err := s.load(id)
	if err != nil {
		return nil, err
	}
	appointment.Status = models.StatusCancelled
	appointment.CancelledBy = cancelActorOrDefault(cancelledBy)
	appointment.CancellationReason = cancellationReasonOrDefault(reason)
	if err := s.appointments.Save(appointment); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"cancelled_by":   *appointment.CancelledBy,
	}).Info("appointment cancelled")
	return appointment, nil
}

// MarkAttended sets the status to attended, stamps attendedAt and overwrites
// the physician notes. Repeated calls re-stamp attendedAt; prior state never
// blocks the operation.
func (s *Service) MarkAttended(id string, notes *string) (*models.Appointment, error) {
	appointment, err := s.load(id)
	if err != nil {
		return nil, err
	}
	appointment.Status = models.StatusAttended
	attendedAt := s.now()
	appointment.AttendedAt = &attendedAt
	appointment.PhysicianNotes = notes
	if err := s.appointments.Save(appointment); err != nil {
		return nil, err
	}
	s.log.WithField("appointment_id", appointment.ID).Info("appointment marked attended")
	return appointment, nil
}

// Delete hard-removes the record, bypassing all lifecycle rules.
func (s *Service) Delete(id string) error {
	deleted, err := s.appointments.DeleteByID(id)
	if err != nil {
		return err
	}
	if !deleted {
		return &NotFoundError{Resource: "appointment", ID: id}
	}
	s.log.WithField("appointment_id", id).Info("appointment deleted")
	return nil
}

func (s *Service) load(id string) (*models.Appointment, error) {
	appointment, err := s.appointments.FindByID(id)
	if err != nil {
		return nil, err
	}
	if appointment == nil {
		return nil, &NotFoundError{Resource: "appointment", ID: id}
	}
	return appointment, nil
}

func cancelActorOrDefault(actor *models.CancelActor) *models.CancelActor {
	if actor != nil {
		return actor
	}
	admin := models.CancelledByAdmin
	return &admin
}

func cancellationReasonOrDefault(reason *string) *string {
	if reason != nil && *reason != "" {
		return reason
	}
	unspecified := DefaultCancellationReason
	return &unspecified
}

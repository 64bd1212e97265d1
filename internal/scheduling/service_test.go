package scheduling

import (
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clinic-appointment-server/internal/models"
)

// fakeAppointmentStore is an in-memory AppointmentStore for exercising the
// scheduling core without a database.
type fakeAppointmentStore struct {
	appointments map[string]models.Appointment
}

func newFakeAppointmentStore() *fakeAppointmentStore {
	return &fakeAppointmentStore{appointments: make(map[string]models.Appointment)}
}

func (f *fakeAppointmentStore) FindByID(id string) (*models.Appointment, error) {
	if a, ok := f.appointments[id]; ok {
		copied := a
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeAppointmentStore) FindByDay(dayStart, dayEnd time.Time, excludeStatuses []models.AppointmentStatus, excludeID string) ([]models.Appointment, error) {
	var result []models.Appointment
	for _, a := range f.appointments {
		if a.ID == excludeID {
			continue
		}
		if a.StartAt.Before(dayStart) || !a.StartAt.Before(dayEnd) {
			continue
		}
		excluded := false
		for _, status := range excludeStatuses {
			if a.Status == status {
				excluded = true
				break
			}
		}
		if !excluded {
			result = append(result, a)
		}
	}
	return result, nil
}

func (f *fakeAppointmentStore) List(filter ListFilter) ([]models.Appointment, error) {
	var result []models.Appointment
	for _, a := range f.appointments {
		if filter.Status != nil && a.Status != *filter.Status {
			continue
		}
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.PhysicianID != nil && (a.PhysicianID == nil || *a.PhysicianID != *filter.PhysicianID) {
			continue
		}
		if filter.Day != nil {
			dayStart := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(), 0, 0, 0, 0, filter.Day.Location())
			if a.StartAt.Before(dayStart) || !a.StartAt.Before(dayStart.Add(24*time.Hour)) {
				continue
			}
		}
		result = append(result, a)
	}
	return result, nil
}

func (f *fakeAppointmentStore) Insert(a *models.Appointment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	f.appointments[a.ID] = *a
	return nil
}

func (f *fakeAppointmentStore) Save(a *models.Appointment) error {
	a.UpdatedAt = time.Now()
	f.appointments[a.ID] = *a
	return nil
}

func (f *fakeAppointmentStore) DeleteByID(id string) (bool, error) {
	if _, ok := f.appointments[id]; !ok {
		return false, nil
	}
	delete(f.appointments, id)
	return true, nil
}

// fakePatientStore resolves patient ids against a fixed set.
type fakePatientStore struct {
	ids map[string]bool
}

func (f *fakePatientStore) Exists(id string) (bool, error) {
	return f.ids[id], nil
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

const testPatientID = "4f2cbf9d-5b6a-4d2e-9a1c-8f4f2a6e1d01"

func newTestService() (*Service, *fakeAppointmentStore) {
	store := newFakeAppointmentStore()
	patients := &fakePatientStore{ids: map[string]bool{testPatientID: true}}
	return NewService(store, patients, testLogger()), store
}

func at(hour, min int) time.Time {
	return time.Date(2024, 1, 10, hour, min, 0, 0, time.Local)
}

func TestCreateAppointment(t *testing.T) {
	svc, _ := newTestService()

	appointment, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Annual checkup",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, appointment.ID)
	assert.Equal(t, models.StatusPending, appointment.Status)
	assert.Equal(t, 30, appointment.DurationMinutes)
	assert.Equal(t, at(9, 30), appointment.EndAt())
}

func TestCreateDefaultsDuration(t *testing.T) {
	svc, _ := newTestService()

	appointment, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Blood draw",
		ExamType:  models.ExamLaboratory,
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultDurationMinutes, appointment.DurationMinutes)
}

func TestCreateUnknownPatient(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(CreateInput{
		PatientID: uuid.New().String(),
		StartAt:   at(9, 0),
		Reason:    "Checkup",
		ExamType:  models.ExamGeneralConsult,
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "patientId", validationErr.Field)
}

func TestCreateMissingFields(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(CreateInput{StartAt: at(9, 0), Reason: "x", ExamType: models.ExamImaging})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)

	_, err = svc.Create(CreateInput{PatientID: testPatientID, Reason: "x", ExamType: models.ExamImaging})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "startAt", validationErr.Field)

	_, err = svc.Create(CreateInput{PatientID: testPatientID, StartAt: at(9, 0), ExamType: models.ExamImaging})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "reason", validationErr.Field)

	_, err = svc.Create(CreateInput{PatientID: testPatientID, StartAt: at(9, 0), Reason: "x", ExamType: "surgery"})
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "examType", validationErr.Field)
}

func TestCreateDurationBounds(t *testing.T) {
	svc, _ := newTestService()

	cases := []struct {
		minutes int
		valid   bool
	}{
		{4, false},
		{5, true},
		{120, true},
		{121, false},
	}
	for i, tc := range cases {
		_, err := svc.Create(CreateInput{
			PatientID:       testPatientID,
			StartAt:         at(9, 0).AddDate(0, 0, i), // separate days, no cross-case conflicts
			DurationMinutes: tc.minutes,
			Reason:          "Checkup",
			ExamType:        models.ExamGeneralConsult,
		})
		if tc.valid {
			assert.NoError(t, err, "duration %d should be accepted", tc.minutes)
		} else {
			var durationErr *DurationError
			require.ErrorAs(t, err, &durationErr, "duration %d should be rejected", tc.minutes)
			assert.Equal(t, tc.minutes, durationErr.Minutes)
		}
	}
}

func TestCreateConflictScenario(t *testing.T) {
	svc, _ := newTestService()

	// A occupies 09:00 - 09:30
	a, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	// B at 09:15 overlaps A
	_, err = svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 15),
		DurationMinutes: 15,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
	assert.Equal(t, a.ID, conflictErr.Existing.ID)

	// C at 09:30 starts exactly when A ends: half-open intervals, no conflict
	_, err = svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 30),
		DurationMinutes: 15,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	assert.NoError(t, err)
}

func TestCancelledAppointmentFreesSlot(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(a.ID, nil, nil)
	require.NoError(t, err)

	// The cancelled slot no longer blocks the calendar
	_, err = svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 15),
		DurationMinutes: 15,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	assert.NoError(t, err)
}

func TestUpdateExcludesSelfFromConflictCheck(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	// Growing the duration without moving the start must not conflict with itself
	newDuration := 60
	updated, err := svc.Update(a.ID, UpdateInput{DurationMinutes: &newDuration})
	require.NoError(t, err)
	assert.Equal(t, 60, updated.DurationMinutes)
}

func TestUpdateMoveOntoExistingConflicts(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	b, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(10, 0),
		DurationMinutes: 15,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	newStart := at(9, 15)
	_, err = svc.Update(b.ID, UpdateInput{StartAt: &newStart})
	var conflictErr *ConflictError
	require.ErrorAs(t, err, &conflictErr)
}

func TestUpdateDurationBounds(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	tooLong := 121
	_, err = svc.Update(a.ID, UpdateInput{DurationMinutes: &tooLong})
	var durationErr *DurationError
	require.ErrorAs(t, err, &durationErr)

	tooShort := 4
	_, err = svc.Update(a.ID, UpdateInput{DurationMinutes: &tooShort})
	require.ErrorAs(t, err, &durationErr)
}

func TestUpdateStatusSideEffects(t *testing.T) {
	svc, _ := newTestService()
	fixedNow := time.Date(2024, 1, 10, 12, 0, 0, 0, time.Local)
	svc.now = func() time.Time { return fixedNow }

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	attended := models.StatusAttended
	updated, err := svc.Update(a.ID, UpdateInput{Status: &attended})
	require.NoError(t, err)
	require.NotNil(t, updated.AttendedAt)
	assert.Equal(t, fixedNow, *updated.AttendedAt)

	cancelled := models.StatusCancelled
	updated, err = svc.Update(a.ID, UpdateInput{Status: &cancelled})
	require.NoError(t, err)
	require.NotNil(t, updated.CancelledBy)
	assert.Equal(t, models.CancelledByAdmin, *updated.CancelledBy)
	require.NotNil(t, updated.CancellationReason)
	assert.Equal(t, DefaultCancellationReason, *updated.CancellationReason)
}

func TestUpdateNotFound(t *testing.T) {
	svc, _ := newTestService()

	reason := "New reason"
	_, err := svc.Update(uuid.New().String(), UpdateInput{Reason: &reason})
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestConfirm(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	confirmed, err := svc.Confirm(a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, confirmed.Status)

	_, err = svc.Confirm(uuid.New().String())
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestRescheduleSkipsConflictCheck(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	b, err := svc.Create(CreateInput{
		PatientID:       testPatientID,
		StartAt:         at(10, 0),
		DurationMinutes: 15,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	// Reschedule is the fast path: it lands on an occupied slot without complaint
	moved, err := svc.Reschedule(b.ID, at(9, 15))
	require.NoError(t, err)
	assert.Equal(t, at(9, 15), moved.StartAt)
	assert.Equal(t, models.StatusRescheduled, moved.Status)
}

func TestCancelDefaults(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	cancelled, err := svc.Cancel(a.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, models.CancelledByAdmin, *cancelled.CancelledBy)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, DefaultCancellationReason, *cancelled.CancellationReason)
}

func TestCancelExplicitActorAndReason(t *testing.T) {
	svc, _ := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	reason := "Patient called in sick"
	actor := models.CancelledByPatient
	cancelled, err := svc.Cancel(a.ID, &reason, &actor)
	require.NoError(t, err)
	assert.Equal(t, reason, *cancelled.CancellationReason)
	assert.Equal(t, models.CancelledByPatient, *cancelled.CancelledBy)
}

func TestMarkAttended(t *testing.T) {
	svc, _ := newTestService()
	firstVisit := time.Date(2024, 1, 10, 9, 35, 0, 0, time.Local)
	svc.now = func() time.Time { return firstVisit }

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	notes := "Patient in good health"
	attended, err := svc.MarkAttended(a.ID, &notes)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAttended, attended.Status)
	require.NotNil(t, attended.AttendedAt)
	assert.Equal(t, firstVisit, *attended.AttendedAt)
	require.NotNil(t, attended.PhysicianNotes)
	assert.Equal(t, notes, *attended.PhysicianNotes)

	// Repeat call re-stamps attendedAt and overwrites notes; prior state never blocks it
	secondVisit := firstVisit.Add(2 * time.Hour)
	svc.now = func() time.Time { return secondVisit }
	attended, err = svc.MarkAttended(a.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, secondVisit, *attended.AttendedAt)
	assert.Nil(t, attended.PhysicianNotes)
}

func TestDelete(t *testing.T) {
	svc, store := newTestService()

	a, err := svc.Create(CreateInput{
		PatientID: testPatientID,
		StartAt:   at(9, 0),
		Reason:    "Consult",
		ExamType:  models.ExamGeneralConsult,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(a.ID))
	assert.Empty(t, store.appointments)

	err = svc.Delete(a.ID)
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Get(uuid.New().String())
	var notFoundErr *NotFoundError
	require.ErrorAs(t, err, &notFoundErr)
}

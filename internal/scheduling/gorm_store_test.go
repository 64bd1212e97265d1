package scheduling

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"clinic-appointment-server/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Patient{}, &models.Appointment{}))
	return db
}

func insertAppointment(t *testing.T, db *gorm.DB, start time.Time, durationMinutes int, status models.AppointmentStatus) models.Appointment {
	t.Helper()
	appointment := models.Appointment{
		PatientID:       testPatientID,
		StartAt:         start,
		DurationMinutes: durationMinutes,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
		Status:          status,
	}
	require.NoError(t, db.Create(&appointment).Error)
	return appointment
}

func TestGormStoreFindByID(t *testing.T) {
	db := newTestDB(t)
	store := NewGormAppointmentStore(db)

	created := insertAppointment(t, db, at(9, 0), 30, models.StatusPending)

	found, err := store.FindByID(created.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, 30, found.DurationMinutes)

	missing, err := store.FindByID("does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGormStoreFindByDay(t *testing.T) {
	db := newTestDB(t)
	store := NewGormAppointmentStore(db)

	inDay := insertAppointment(t, db, at(9, 0), 30, models.StatusPending)
	cancelled := insertAppointment(t, db, at(10, 0), 30, models.StatusCancelled)
	insertAppointment(t, db, at(9, 0).AddDate(0, 0, 1), 30, models.StatusPending)

	dayStart := time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)
	dayEnd := dayStart.Add(24 * time.Hour)

	found, err := store.FindByDay(dayStart, dayEnd, []models.AppointmentStatus{models.StatusCancelled}, "")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, inDay.ID, found[0].ID)

	// Without the status exclusion the cancelled record reappears
	found, err = store.FindByDay(dayStart, dayEnd, nil, "")
	require.NoError(t, err)
	assert.Len(t, found, 2)

	// excludeID removes the record under edit from the scan
	found, err = store.FindByDay(dayStart, dayEnd, nil, inDay.ID)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, cancelled.ID, found[0].ID)
}

func TestGormStoreList(t *testing.T) {
	db := newTestDB(t)
	store := NewGormAppointmentStore(db)

	insertAppointment(t, db, at(9, 0), 30, models.StatusPending)
	insertAppointment(t, db, at(10, 0), 30, models.StatusConfirmed)
	nextDay := insertAppointment(t, db, at(9, 0).AddDate(0, 0, 1), 30, models.StatusPending)

	status := models.StatusPending
	found, err := store.List(ListFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, found, 2)

	day := at(9, 0).AddDate(0, 0, 1)
	found, err = store.List(ListFilter{Day: &day})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, nextDay.ID, found[0].ID)

	found, err = store.List(ListFilter{Day: &day, Status: &status})
	require.NoError(t, err)
	require.Len(t, found, 1)

	patientID := testPatientID
	found, err = store.List(ListFilter{PatientID: &patientID})
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestGormStoreInsertAssignsID(t *testing.T) {
	db := newTestDB(t)
	store := NewGormAppointmentStore(db)

	appointment := &models.Appointment{
		PatientID:       testPatientID,
		StartAt:         at(9, 0),
		DurationMinutes: 30,
		Reason:          "Consult",
		ExamType:        models.ExamGeneralConsult,
		Status:          models.StatusPending,
	}
	require.NoError(t, store.Insert(appointment))
	assert.NotEmpty(t, appointment.ID)
	assert.False(t, appointment.CreatedAt.IsZero())
}

func TestGormStoreDeleteByID(t *testing.T) {
	db := newTestDB(t)
	store := NewGormAppointmentStore(db)

	created := insertAppointment(t, db, at(9, 0), 30, models.StatusPending)

	deleted, err := store.DeleteByID(created.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = store.DeleteByID(created.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestGormPatientStoreExists(t *testing.T) {
	db := newTestDB(t)
	store := NewGormPatientStore(db)

	patient := models.Patient{FirstName: "Ana", LastName: "Pereira"}
	require.NoError(t, db.Create(&patient).Error)

	exists, err := store.Exists(patient.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = store.Exists("does-not-exist")
	require.NoError(t, err)
	assert.False(t, exists)
}

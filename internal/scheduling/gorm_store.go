package scheduling

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"clinic-appointment-server/internal/models"
)

// GormAppointmentStore is the gorm-backed AppointmentStore.
type GormAppointmentStore struct {
	DB *gorm.DB
}

// NewGormAppointmentStore creates a new GormAppointmentStore.
func NewGormAppointmentStore(db *gorm.DB) *GormAppointmentStore {
	return &GormAppointmentStore{DB: db}
}

func (s *GormAppointmentStore) FindByID(id string) (*models.Appointment, error) {
	var appointment models.Appointment
	if err := s.DB.First(&appointment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, &StorageError{Op: "find appointment", Err: err}
	}
	return &appointment, nil
}

func (s *GormAppointmentStore) FindByDay(dayStart, dayEnd time.Time, excludeStatuses []models.AppointmentStatus, excludeID string) ([]models.Appointment, error) {
	query := s.DB.Where("start_at >= ? AND start_at < ?", dayStart, dayEnd)
	if len(excludeStatuses) > 0 {
		query = query.Where("status NOT IN ?", excludeStatuses)
	}
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, &StorageError{Op: "scan day appointments", Err: err}
	}
	return appointments, nil
}

func (s *GormAppointmentStore) List(filter ListFilter) ([]models.Appointment, error) {
	query := s.DB.Order("start_at asc")
	if filter.Day != nil {
		dayStart := time.Date(filter.Day.Year(), filter.Day.Month(), filter.Day.Day(),
			0, 0, 0, 0, filter.Day.Location())
		query = query.Where("start_at >= ? AND start_at < ?", dayStart, dayStart.AddDate(0, 0, 1))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.PhysicianID != nil {
		query = query.Where("physician_id = ?", *filter.PhysicianID)
	}
	if filter.PatientID != nil {
		query = query.Where("patient_id = ?", *filter.PatientID)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		return nil, &StorageError{Op: "list appointments", Err: err}
	}
	return appointments, nil
}

func (s *GormAppointmentStore) Insert(a *models.Appointment) error {
	if err := s.DB.Create(a).Error; err != nil {
		return &StorageError{Op: "insert appointment", Err: err}
	}
	return nil
}

func (s *GormAppointmentStore) Save(a *models.Appointment) error {
	if err := s.DB.Save(a).Error; err != nil {
		return &StorageError{Op: "save appointment", Err: err}
	}
	return nil
}

func (s *GormAppointmentStore) DeleteByID(id string) (bool, error) {
	result := s.DB.Delete(&models.Appointment{}, "id = ?", id)
	if result.Error != nil {
		return false, &StorageError{Op: "delete appointment", Err: result.Error}
	}
	return result.RowsAffected > 0, nil
}

// GormPatientStore is the gorm-backed PatientStore.
type GormPatientStore struct {
	DB *gorm.DB
}

// NewGormPatientStore creates a new GormPatientStore.
func NewGormPatientStore(db *gorm.DB) *GormPatientStore {
	return &GormPatientStore{DB: db}
}

func (s *GormPatientStore) Exists(id string) (bool, error) {
	var count int64
	if err := s.DB.Model(&models.Patient{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, &StorageError{Op: "resolve patient", Err: err}
	}
	return count > 0, nil
}

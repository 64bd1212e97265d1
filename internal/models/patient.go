package models

import (
	"time"
)

// Patient represents a patient record appointments are booked against
type Patient struct {
	BaseModel
	FirstName   string     `gorm:"size:100;not null" json:"firstName"`
	LastName    string     `gorm:"size:100;not null" json:"lastName"`
	Email       string     `gorm:"size:255;index" json:"email,omitempty"`
	PhoneNumber string     `gorm:"size:30" json:"phoneNumber,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Address     string     `gorm:"size:255" json:"address,omitempty"`

	// Relations (not always preloaded)
	Appointments []Appointment `gorm:"foreignKey:PatientID" json:"-"`
}

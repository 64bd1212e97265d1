package handlers

import (
	"time"

	"clinic-appointment-server/internal/models"
	"clinic-appointment-server/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PatientHandler handles patient record requests.
type PatientHandler struct {
	DB *gorm.DB
}

// NewPatientHandler creates a new PatientHandler.
func NewPatientHandler(db *gorm.DB) *PatientHandler {
	return &PatientHandler{DB: db}
}

// CreatePatientRequest represents the request body for registering a patient.
type CreatePatientRequest struct {
	FirstName   string     `json:"firstName" binding:"required"`
	LastName    string     `json:"lastName" binding:"required"`
	Email       string     `json:"email" binding:"omitempty,email"`
	PhoneNumber string     `json:"phoneNumber"`
	DateOfBirth *time.Time `json:"dateOfBirth"`
	Address     string     `json:"address"`
}

// CreatePatient handles registering a new patient.
func (h *PatientHandler) CreatePatient(c *gin.Context) {
	var req CreatePatientRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patient := models.Patient{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	}
	if err := h.DB.Create(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to create patient: "+err.Error())
		return
	}

	utils.Created(c, "Patient created successfully", patient)
}

// GetPatients handles fetching all patients.
func (h *PatientHandler) GetPatients(c *gin.Context) {
	var patients []models.Patient
	query := h.DB.Order("last_name asc, first_name asc")
	if search := c.Query("search"); search != "" {
		pattern := "%" + search + "%"
		query = query.Where("first_name LIKE ? OR last_name LIKE ?", pattern, pattern)
	}
	if err := query.Find(&patients).Error; err != nil {
		utils.InternalServerError(c, "Failed to fetch patients: "+err.Error())
		return
	}

	utils.Success(c, "Patients fetched successfully", patients)
}

// GetPatientByID handles fetching a single patient by ID.
func (h *PatientHandler) GetPatientByID(c *gin.Context) {
	patientID := c.Param("id")

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Patient not found")
		} else {
			utils.InternalServerError(c, "Database error: "+err.Error())
		}
		return
	}
	utils.Success(c, "Patient fetched successfully", patient)
}

// UpdatePatientRequest represents the request body for updating a patient record.
type UpdatePatientRequest struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Email       string     `json:"email,omitempty" binding:"omitempty,email"`
	PhoneNumber string     `json:"phoneNumber,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Address     string     `json:"address,omitempty"`
}

// UpdatePatient handles updating a patient record by ID.
func (h *PatientHandler) UpdatePatient(c *gin.Context) {
	patientID := c.Param("id")

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil { // Use ShouldBindJSON for partial updates
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	var patient models.Patient
	if err := h.DB.First(&patient, "id = ?", patientID).Error; err != nil {
		utils.NotFound(c, "Patient not found")
		return
	}

	if req.FirstName != "" {
		patient.FirstName = req.FirstName
	}
	if req.LastName != "" {
		patient.LastName = req.LastName
	}
	if req.Email != "" {
		patient.Email = req.Email
	}
	if req.PhoneNumber != "" {
		patient.PhoneNumber = req.PhoneNumber
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Address != "" {
		patient.Address = req.Address
	}

	if err := h.DB.Save(&patient).Error; err != nil {
		utils.InternalServerError(c, "Failed to update patient: "+err.Error())
		return
	}

	utils.Success(c, "Patient updated successfully", patient)
}

// DeletePatient handles deleting a patient record by ID.
func (h *PatientHandler) DeletePatient(c *gin.Context) {
	patientID := c.Param("id")

	result := h.DB.Delete(&models.Patient{}, "id = ?", patientID)
	if result.Error != nil {
		utils.InternalServerError(c, "Failed to delete patient: "+result.Error.Error())
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Patient not found")
		return
	}

	utils.Success(c, "Patient deleted successfully", nil)
}

package handlers

import (
	"errors"
	"time"

	"clinic-appointment-server/internal/models"
	"clinic-appointment-server/internal/scheduling"
	"clinic-appointment-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// AppointmentHandler translates HTTP requests into scheduling operations
// and typed scheduling failures back into status codes.
type AppointmentHandler struct {
	Scheduler *scheduling.Service
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(scheduler *scheduling.Service) *AppointmentHandler {
	return &AppointmentHandler{Scheduler: scheduler}
}

// respondSchedulingError maps the scheduling error taxonomy onto HTTP responses.
func respondSchedulingError(c *gin.Context, err error) {
	var notFound *scheduling.NotFoundError
	var validation *scheduling.ValidationError
	var duration *scheduling.DurationError
	var conflict *scheduling.ConflictError

	switch {
	case errors.As(err, &notFound):
		utils.NotFound(c, notFound.Error())
	case errors.As(err, &validation):
		utils.BadRequest(c, validation.Error())
	case errors.As(err, &duration):
		utils.BadRequest(c, duration.Error())
	case errors.As(err, &conflict):
		utils.Conflict(c, conflict.Error())
	default:
		utils.InternalServerError(c, err.Error())
	}
}

// CreateAppointmentRequest represents the request body for creating an appointment.
type CreateAppointmentRequest struct {
	PatientID       string          `json:"patientId" binding:"required,uuid"`
	PhysicianID     *string         `json:"physicianId" binding:"omitempty,uuid"`
	StartAt         time.Time       `json:"startAt" binding:"required"`
	DurationMinutes int             `json:"durationMinutes"`
	Reason          string          `json:"reason" binding:"required"`
	ExamType        models.ExamType `json:"examType" binding:"required,oneof=general_consult laboratory imaging specialty"`
}

// CreateAppointment handles booking a new appointment.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.Create(scheduling.CreateInput{
		PatientID:       req.PatientID,
		PhysicianID:     req.PhysicianID,
		StartAt:         req.StartAt,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		ExamType:        req.ExamType,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Created(c, "Appointment created successfully", appointment)
}

// GetAppointments handles listing appointments with optional filters:
// ?date=2024-01-10&status=pending&physicianId=...&patientId=...
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	var filter scheduling.ListFilter

	if dateStr := c.Query("date"); dateStr != "" {
		day, err := time.ParseInLocation("2006-01-02", dateStr, time.Local)
		if err != nil {
			utils.BadRequest(c, "Invalid date format, expected YYYY-MM-DD")
			return
		}
		filter.Day = &day
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.AppointmentStatus(statusStr)
		filter.Status = &status
	}
	if physicianID := c.Query("physicianId"); physicianID != "" {
		filter.PhysicianID = &physicianID
	}
	if patientID := c.Query("patientId"); patientID != "" {
		filter.PatientID = &patientID
	}

	appointments, err := h.Scheduler.List(filter)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID handles fetching a single appointment by its ID.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointment, err := h.Scheduler.Get(c.Param("id"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentRequest represents a partial appointment update.
// Omitted fields are left untouched.
type UpdateAppointmentRequest struct {
	PatientID          *string                   `json:"patientId" binding:"omitempty,uuid"`
	PhysicianID        *string                   `json:"physicianId" binding:"omitempty,uuid"`
	StartAt            *time.Time                `json:"startAt"`
	DurationMinutes    *int                      `json:"durationMinutes"`
	Reason             *string                   `json:"reason"`
	ExamType           *models.ExamType          `json:"examType" binding:"omitempty,oneof=general_consult laboratory imaging specialty"`
	PhysicianNotes     *string                   `json:"physicianNotes"`
	Status             *models.AppointmentStatus `json:"status" binding:"omitempty,oneof=pending confirmed rescheduled cancelled attended"`
	CancelledBy        *models.CancelActor       `json:"cancelledBy" binding:"omitempty,oneof=patient admin system"`
	CancellationReason *string                   `json:"cancellationReason"`
}

// UpdateAppointment handles partially updating an appointment, including
// direct status changes.
func (h *AppointmentHandler) UpdateAppointment(c *gin.Context) {
	var req UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil { // Use ShouldBindJSON for partial updates
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	appointment, err := h.Scheduler.Update(c.Param("id"), scheduling.UpdateInput{
		PatientID:          req.PatientID,
		PhysicianID:        req.PhysicianID,
		StartAt:            req.StartAt,
		DurationMinutes:    req.DurationMinutes,
		Reason:             req.Reason,
		ExamType:           req.ExamType,
		PhysicianNotes:     req.PhysicianNotes,
		Status:             req.Status,
		CancelledBy:        req.CancelledBy,
		CancellationReason: req.CancellationReason,
	})
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment updated successfully", appointment)
}

// ConfirmAppointment handles confirming an appointment.
func (h *AppointmentHandler) ConfirmAppointment(c *gin.Context) {
	appointment, err := h.Scheduler.Confirm(c.Param("id"))
	if err != nil {
		respondSchedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment confirmed successfully", appointment)
}

// RescheduleAppointmentRequest represents the request body for rescheduling an appointment.
type RescheduleAppointmentRequest struct {
	NewStartAt time.Time `json:"newStartAt" binding:"required"`
}

// RescheduleAppointment handles moving an appointment to a new start time.
func (h *AppointmentHandler) RescheduleAppointment(c *gin.Context) {
	var req RescheduleAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appointment, err := h.Scheduler.Reschedule(c.Param("id"), req.NewStartAt)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment rescheduled successfully", appointment)
}

// CancelAppointmentRequest represents the request body for cancelling an appointment.
type CancelAppointmentRequest struct {
	Reason      *string             `json:"reason"`
	CancelledBy *models.CancelActor `json:"cancelledBy" binding:"omitempty,oneof=patient admin system"`
}

// CancelAppointment handles cancelling an appointment.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	var req CancelAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	appointment, err := h.Scheduler.Cancel(c.Param("id"), req.Reason, req.CancelledBy)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment cancelled successfully", appointment)
}

// MarkAttendedRequest represents the request body for marking an appointment attended.
type MarkAttendedRequest struct {
	PhysicianNotes *string `json:"physicianNotes"`
}

// MarkAttended handles marking an appointment as attended.
func (h *AppointmentHandler) MarkAttended(c *gin.Context) {
	var req MarkAttendedRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.BadRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	appointment, err := h.Scheduler.MarkAttended(c.Param("id"), req.PhysicianNotes)
	if err != nil {
		respondSchedulingError(c, err)
		return
	}

	utils.Success(c, "Appointment marked attended", appointment)
}

// DeleteAppointment handles hard-removing an appointment record.
func (h *AppointmentHandler) DeleteAppointment(c *gin.Context) {
	if err := h.Scheduler.Delete(c.Param("id")); err != nil {
		respondSchedulingError(c, err)
		return
	}
	utils.Success(c, "Appointment deleted successfully", nil)
}

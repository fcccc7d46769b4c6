package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mediconnect-server/internal/booking"
	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/realtime"
	"mediconnect-server/internal/utils"
)

// AppointmentHandler handles appointment related requests. Booking, status
// advancement and cancellation go through the booking service; listing reads
// the database directly.
type AppointmentHandler struct {
	DB      *gorm.DB
	Booking *booking.Service
	Hub     *realtime.Hub
	Logger  *zap.Logger
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(db *gorm.DB, svc *booking.Service, hub *realtime.Hub, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{DB: db, Booking: svc, Hub: hub, Logger: logger}
}

// CreateAppointmentRequest represents the request body for booking.
type CreateAppointmentRequest struct {
	DoctorID string `json:"doctorId" binding:"required,uuid"`
	Date     string `json:"date" binding:"required,datetime=2006-01-02"`
	Time     string `json:"time" binding:"required,datetime=15:04"`
	Notes    string `json:"notes"`
}

// CreateAppointment books a slot for the authenticated patient.
func (h *AppointmentHandler) CreateAppointment(c *gin.Context) {
	var req CreateAppointmentRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Booking.Book(c.Request.Context(), booking.Request{
		PatientID:       patientID,
		DoctorID:        req.DoctorID,
		Date:            req.Date,
		Time:            req.Time,
		Notes:           req.Notes,
		RequireVerified: true, // patient-facing flow
	})
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	h.Hub.NotifyUser(appt.DoctorID, "appointment_requested", appt)
	utils.Created(c, "Appointment booked successfully", appt)
}

// GetAppointments lists appointments for the authenticated user, scoped by
// role, with optional status and date filters.
func (h *AppointmentHandler) GetAppointments(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	userRole, _ := middleware.GetUserRoleFromContext(c)

	query := h.DB.Preload("Patient").Preload("Doctor").Order("date desc, time desc")

	switch userRole {
	case models.RolePatient:
		query = query.Where("patient_id = ?", userID)
	case models.RoleDoctor:
		query = query.Where("doctor_id = ?", userID)
	case models.RoleAdmin:
		// Admins see all appointments.
	default:
		utils.Forbidden(c, "User role not permitted to view appointments")
		return
	}

	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("date = ?", date)
	}

	var appointments []models.Appointment
	if err := query.Find(&appointments).Error; err != nil {
		utils.InternalServerError(c, "Error fetching appointments")
		return
	}

	utils.Success(c, "Appointments fetched successfully", appointments)
}

// GetAppointmentByID fetches a single appointment. Accessible by the involved
// patient, the involved doctor, or an admin.
func (h *AppointmentHandler) GetAppointmentByID(c *gin.Context) {
	appointmentID := c.Param("id")

	var appointment models.Appointment
	if err := h.DB.Preload("Patient").Preload("Doctor").First(&appointment, "id = ?", appointmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found")
		} else {
			utils.InternalServerError(c, "Error fetching appointment")
		}
		return
	}

	userID, _ := middleware.GetUserIDFromContext(c)
	userRole, _ := middleware.GetUserRoleFromContext(c)

	if userRole != models.RoleAdmin && userID != appointment.PatientID && userID != appointment.DoctorID {
		utils.Forbidden(c, "You are not authorized to view this appointment")
		return
	}

	utils.Success(c, "Appointment fetched successfully", appointment)
}

// UpdateAppointmentStatusRequest represents the request body for a
// doctor-driven status change.
type UpdateAppointmentStatusRequest struct {
	Status models.AppointmentStatus `json:"status" binding:"required,oneof=confirmed completed cancelled"`
}

// UpdateAppointmentStatus advances the status of one of the doctor's own
// appointments.
func (h *AppointmentHandler) UpdateAppointmentStatus(c *gin.Context) {
	var req UpdateAppointmentStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Booking.AdvanceStatus(c.Request.Context(), doctorID, c.Param("id"), req.Status)
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	h.Hub.NotifyUser(appt.PatientID, "appointment_status_changed", appt)
	utils.Success(c, "Appointment status updated successfully", appt)
}

// CancelAppointment cancels one of the patient's own pending appointments.
func (h *AppointmentHandler) CancelAppointment(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	appt, err := h.Booking.CancelByPatient(c.Request.Context(), patientID, c.Param("id"))
	if err != nil {
		h.respondBookingError(c, err)
		return
	}

	h.Hub.NotifyUser(appt.DoctorID, "appointment_cancelled", appt)
	utils.Success(c, "Appointment cancelled successfully", appt)
}

// respondBookingError maps booking service errors to HTTP responses. Each
// failure kind keeps its precise message; store faults become an opaque 500.
func (h *AppointmentHandler) respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, booking.ErrDoctorUnavailable):
		utils.NotFound(c, err.Error())
	case errors.Is(err, booking.ErrOutsideAvailability),
		errors.Is(err, booking.ErrInvalidSlot):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, booking.ErrSlotTaken),
		errors.Is(err, booking.ErrInvalidTransition):
		utils.Conflict(c, err.Error())
	case errors.Is(err, booking.ErrNotFoundOrUnauthorized),
		errors.Is(err, booking.ErrNotFoundOrNotCancellable):
		utils.NotFound(c, err.Error())
	default:
		h.Logger.Error("booking operation failed", zap.Error(err))
		utils.InternalServerError(c, "Error processing appointment")
	}
}

package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/utils"
)

// PrescriptionHandler handles prescription requests. Prescriptions are issued
// by doctors against their own appointments.
type PrescriptionHandler struct {
	DB *gorm.DB
}

// NewPrescriptionHandler creates a new PrescriptionHandler.
func NewPrescriptionHandler(db *gorm.DB) *PrescriptionHandler {
	return &PrescriptionHandler{DB: db}
}

// CreatePrescriptionRequest represents the request body for issuing a
// prescription.
type CreatePrescriptionRequest struct {
	PatientID     string `json:"patientId" binding:"required,uuid"`
	AppointmentID string `json:"appointmentId" binding:"required,uuid"`
	Medications   string `json:"medications" binding:"required"`
	Instructions  string `json:"instructions"`
	Diagnosis     string `json:"diagnosis"`
}

// CreatePrescription issues a prescription (doctor only). The appointment
// must belong to the acting doctor and the named patient.
func (h *PrescriptionHandler) CreatePrescription(c *gin.Context) {
	var req CreatePrescriptionRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var appointment models.Appointment
	if err := h.DB.Where("id = ? AND doctor_id = ? AND patient_id = ?",
		req.AppointmentID, doctorID, req.PatientID).First(&appointment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Appointment not found or unauthorized")
		} else {
			utils.InternalServerError(c, "Error creating prescription")
		}
		return
	}

	prescription := models.Prescription{
		DoctorID:      doctorID,
		PatientID:     req.PatientID,
		AppointmentID: req.AppointmentID,
		Medications:   req.Medications,
		Instructions:  req.Instructions,
		Diagnosis:     req.Diagnosis,
	}

	if err := h.DB.Create(&prescription).Error; err != nil {
		utils.InternalServerError(c, "Error creating prescription")
		return
	}

	utils.Created(c, "Prescription created successfully", prescription)
}

// GetDoctorPrescriptions lists prescriptions issued by the authenticated doctor.
func (h *PrescriptionHandler) GetDoctorPrescriptions(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var prescriptions []models.Prescription
	if err := h.DB.Where("doctor_id = ?", doctorID).
		Order("created_at desc").Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Error fetching prescriptions")
		return
	}

	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}

// GetDoctorPrescriptionByID fetches one prescription issued by the doctor.
func (h *PrescriptionHandler) GetDoctorPrescriptionByID(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var prescription models.Prescription
	if err := h.DB.Where("id = ? AND doctor_id = ?", c.Param("id"), doctorID).First(&prescription).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Prescription not found")
		} else {
			utils.InternalServerError(c, "Error fetching prescription")
		}
		return
	}

	utils.Success(c, "Prescription fetched successfully", prescription)
}

// GetMyPrescriptions lists the authenticated patient's prescriptions.
func (h *PrescriptionHandler) GetMyPrescriptions(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var prescriptions []models.Prescription
	if err := h.DB.Where("patient_id = ?", patientID).
		Order("created_at desc").Find(&prescriptions).Error; err != nil {
		utils.InternalServerError(c, "Error fetching prescriptions")
		return
	}

	utils.Success(c, "Prescriptions fetched successfully", prescriptions)
}

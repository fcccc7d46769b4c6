package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/utils"
)

// MedicalRecordHandler handles medical record requests. A doctor may read or
// write a patient's records only if at least one appointment links them.
type MedicalRecordHandler struct {
	DB *gorm.DB
}

// NewMedicalRecordHandler creates a new MedicalRecordHandler.
func NewMedicalRecordHandler(db *gorm.DB) *MedicalRecordHandler {
	return &MedicalRecordHandler{DB: db}
}

// doctorHasAccess reports whether any appointment links the doctor and patient.
func (h *MedicalRecordHandler) doctorHasAccess(doctorID, patientID string) (bool, error) {
	var count int64
	err := h.DB.Model(&models.Appointment{}).
		Where("doctor_id = ? AND patient_id = ?", doctorID, patientID).
		Limit(1).Count(&count).Error
	return count > 0, err
}

// CreateMedicalRecordRequest represents the request body for adding a record.
type CreateMedicalRecordRequest struct {
	Diagnosis string `json:"diagnosis" binding:"required"`
	Treatment string `json:"treatment" binding:"required"`
	Notes     string `json:"notes"`
}

// CreateMedicalRecord adds a record to a patient's history (doctor only).
func (h *MedicalRecordHandler) CreateMedicalRecord(c *gin.Context) {
	var req CreateMedicalRecordRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	patientID := c.Param("patientId")

	ok, err := h.doctorHasAccess(doctorID, patientID)
	if err != nil {
		utils.InternalServerError(c, "Error adding medical record")
		return
	}
	if !ok {
		utils.Forbidden(c, "Unauthorized access to patient")
		return
	}

	record := models.MedicalRecord{
		PatientID: patientID,
		DoctorID:  doctorID,
		Diagnosis: req.Diagnosis,
		Treatment: req.Treatment,
		Notes:     req.Notes,
	}

	if err := h.DB.Create(&record).Error; err != nil {
		utils.InternalServerError(c, "Error adding medical record")
		return
	}

	utils.Created(c, "Medical record added successfully", record)
}

// GetPatientRecords lists a patient's records for a doctor who treats them.
func (h *MedicalRecordHandler) GetPatientRecords(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}
	patientID := c.Param("patientId")

	ok, err := h.doctorHasAccess(doctorID, patientID)
	if err != nil {
		utils.InternalServerError(c, "Error fetching medical records")
		return
	}
	if !ok {
		utils.Forbidden(c, "Unauthorized access to patient records")
		return
	}

	var records []models.MedicalRecord
	if err := h.DB.Where("patient_id = ?", patientID).
		Order("created_at desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Error fetching medical records")
		return
	}

	utils.Success(c, "Medical records fetched successfully", records)
}

// GetMyRecords lists the authenticated patient's own records.
func (h *MedicalRecordHandler) GetMyRecords(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var records []models.MedicalRecord
	if err := h.DB.Where("patient_id = ?", patientID).
		Order("created_at desc").Find(&records).Error; err != nil {
		utils.InternalServerError(c, "Error fetching medical records")
		return
	}

	utils.Success(c, "Medical records fetched successfully", records)
}

// GetMyRecordByID fetches one of the authenticated patient's own records.
func (h *MedicalRecordHandler) GetMyRecordByID(c *gin.Context) {
	patientID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var record models.MedicalRecord
	if err := h.DB.Where("id = ? AND patient_id = ?", c.Param("id"), patientID).First(&record).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Medical record not found")
		} else {
			utils.InternalServerError(c, "Error fetching medical record")
		}
		return
	}

	utils.Success(c, "Medical record fetched successfully", record)
}

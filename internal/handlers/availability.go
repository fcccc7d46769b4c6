package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/utils"
)

// AvailabilityHandler manages doctors' recurring weekly availability windows.
type AvailabilityHandler struct {
	DB *gorm.DB
}

// NewAvailabilityHandler creates a new AvailabilityHandler.
func NewAvailabilityHandler(db *gorm.DB) *AvailabilityHandler {
	return &AvailabilityHandler{DB: db}
}

// GetMyAvailability lists the authenticated doctor's windows.
func (h *AvailabilityHandler) GetMyAvailability(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var windows []models.AvailabilityWindow
	if err := h.DB.Where("doctor_id = ?", doctorID).
		Order("day_of_week, start_time").Find(&windows).Error; err != nil {
		utils.InternalServerError(c, "Error fetching availability")
		return
	}

	utils.Success(c, "Availability fetched successfully", windows)
}

// GetDoctorAvailability lists a doctor's windows for any authenticated user,
// so patients can see when a doctor accepts bookings.
func (h *AvailabilityHandler) GetDoctorAvailability(c *gin.Context) {
	doctorID := c.Param("doctorId")

	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", doctorID, models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Error fetching availability")
		}
		return
	}

	var windows []models.AvailabilityWindow
	if err := h.DB.Where("doctor_id = ?", doctorID).
		Order("day_of_week, start_time").Find(&windows).Error; err != nil {
		utils.InternalServerError(c, "Error fetching availability")
		return
	}

	utils.Success(c, "Availability fetched successfully", windows)
}

// SetAvailabilityRequest represents the request body for adding a window.
type SetAvailabilityRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" binding:"required,gte=0,lte=6"`
	StartTime string `json:"startTime" binding:"required,datetime=15:04"`
	EndTime   string `json:"endTime" binding:"required,datetime=15:04"`
}

// SetAvailability adds a window for the authenticated doctor. Overlapping
// windows are allowed; booking only asks whether any window covers a point.
func (h *AvailabilityHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	if req.StartTime >= req.EndTime {
		utils.BadRequest(c, "Start time must be before end time")
		return
	}

	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	window := models.AvailabilityWindow{
		DoctorID:  doctorID,
		DayOfWeek: *req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}

	if err := h.DB.Create(&window).Error; err != nil {
		utils.InternalServerError(c, "Error setting availability")
		return
	}

	utils.Created(c, "Availability set successfully", window)
}

// RemoveAvailability deletes one of the authenticated doctor's windows.
func (h *AvailabilityHandler) RemoveAvailability(c *gin.Context) {
	doctorID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	result := h.DB.Where("id = ? AND doctor_id = ?", c.Param("id"), doctorID).
		Delete(&models.AvailabilityWindow{})
	if result.Error != nil {
		utils.InternalServerError(c, "Error removing availability")
		return
	}
	if result.RowsAffected == 0 {
		utils.NotFound(c, "Availability window not found")
		return
	}

	utils.Success(c, "Availability removed successfully", nil)
}

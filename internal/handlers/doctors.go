package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/models"
	"mediconnect-server/internal/utils"
)

// DoctorHandler serves the patient-facing doctor directory. Only verified,
// active doctors are listed.
type DoctorHandler struct {
	DB *gorm.DB
}

// NewDoctorHandler creates a new DoctorHandler.
func NewDoctorHandler(db *gorm.DB) *DoctorHandler {
	return &DoctorHandler{DB: db}
}

func sanitizeAll(users []models.User) []models.UserSanitized {
	out := make([]models.UserSanitized, len(users))
	for i, u := range users {
		out[i] = u.Sanitize()
	}
	return out
}

// GetDoctors lists verified, active doctors, optionally filtered by
// specialty or name.
func (h *DoctorHandler) GetDoctors(c *gin.Context) {
	query := h.DB.Where("role = ? AND is_verified = ? AND is_active = ?",
		models.RoleDoctor, true, true)

	if specialty := c.Query("specialty"); specialty != "" {
		query = query.Where("specialty LIKE ?", "%"+specialty+"%")
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var doctors []models.User
	if err := query.Order("rating desc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Error fetching doctors")
		return
	}

	utils.Success(c, "Doctors fetched successfully", sanitizeAll(doctors))
}

// GetDoctorByID fetches a single doctor's public profile.
func (h *DoctorHandler) GetDoctorByID(c *gin.Context) {
	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", c.Param("id"), models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Error fetching doctor")
		}
		return
	}

	utils.Success(c, "Doctor fetched successfully", doctor.Sanitize())
}

package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/models"
	"mediconnect-server/internal/realtime"
	"mediconnect-server/internal/utils"
)

// AdminHandler handles admin-only operations: user management, doctor
// verification, platform analytics and notification broadcasts.
type AdminHandler struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, hub *realtime.Hub) *AdminHandler {
	return &AdminHandler{DB: db, Hub: hub}
}

// GetUsers lists all users, optionally filtered by role and active status.
func (h *AdminHandler) GetUsers(c *gin.Context) {
	query := h.DB.Order("created_at desc")

	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("is_active = ?", status == "active")
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		utils.InternalServerError(c, "Error fetching users")
		return
	}

	utils.Success(c, "Users fetched successfully", sanitizeAll(users))
}

// UserDetails bundles a user with appointment and prescription counts.
type UserDetails struct {
	models.UserSanitized
	TotalAppointments  int64 `json:"totalAppointments"`
	TotalPrescriptions int64 `json:"totalPrescriptions"`
}

// GetUserByID fetches a single user with activity counts.
func (h *AdminHandler) GetUserByID(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := h.DB.First(&user, "id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Error fetching user")
		}
		return
	}

	details := UserDetails{UserSanitized: user.Sanitize()}
	if err := h.DB.Model(&models.Appointment{}).
		Where("patient_id = ? OR doctor_id = ?", userID, userID).
		Count(&details.TotalAppointments).Error; err != nil {
		utils.InternalServerError(c, "Error fetching user")
		return
	}
	if err := h.DB.Model(&models.Prescription{}).
		Where("patient_id = ? OR doctor_id = ?", userID, userID).
		Count(&details.TotalPrescriptions).Error; err != nil {
		utils.InternalServerError(c, "Error fetching user")
		return
	}

	utils.Success(c, "User fetched successfully", details)
}

// UpdateUserStatusRequest represents the request body for activating or
// deactivating an account.
type UpdateUserStatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// UpdateUserStatus activates or deactivates a user account. Deactivated
// doctors stop being bookable immediately.
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	var req UpdateUserStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Error updating user status")
		}
		return
	}

	user.IsActive = *req.IsActive
	if err := h.DB.Save(&user).Error; err != nil {
		utils.InternalServerError(c, "Error updating user status")
		return
	}

	utils.Success(c, "User status updated successfully", user.Sanitize())
}

// DeleteUser removes a non-admin user account.
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "User not found")
		} else {
			utils.InternalServerError(c, "Error deleting user")
		}
		return
	}

	if user.Role == models.RoleAdmin {
		utils.Forbidden(c, "Cannot delete admin users")
		return
	}

	if err := h.DB.Delete(&user).Error; err != nil {
		utils.InternalServerError(c, "Error deleting user")
		return
	}

	utils.Success(c, "User deleted successfully", nil)
}

// GetPendingDoctors lists doctors awaiting verification.
func (h *AdminHandler) GetPendingDoctors(c *gin.Context) {
	var doctors []models.User
	if err := h.DB.Where("role = ? AND is_verified = ?", models.RoleDoctor, false).
		Order("created_at asc").Find(&doctors).Error; err != nil {
		utils.InternalServerError(c, "Error fetching pending doctors")
		return
	}

	utils.Success(c, "Pending doctors fetched successfully", sanitizeAll(doctors))
}

// VerifyDoctor marks a doctor as verified, making them visible and bookable
// in the patient-facing flow.
func (h *AdminHandler) VerifyDoctor(c *gin.Context) {
	var doctor models.User
	if err := h.DB.Where("id = ? AND role = ?", c.Param("id"), models.RoleDoctor).First(&doctor).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Doctor not found")
		} else {
			utils.InternalServerError(c, "Error verifying doctor")
		}
		return
	}

	doctor.IsVerified = true
	if err := h.DB.Save(&doctor).Error; err != nil {
		utils.InternalServerError(c, "Error verifying doctor")
		return
	}

	h.Hub.NotifyUser(doctor.ID, "doctor_verified", doctor.Sanitize())
	utils.Success(c, "Doctor verified successfully", doctor.Sanitize())
}

// UserAnalytics aggregates user counts for the admin dashboard.
type UserAnalytics struct {
	TotalUsers         int64 `json:"totalUsers"`
	TotalPatients      int64 `json:"totalPatients"`
	TotalDoctors       int64 `json:"totalDoctors"`
	VerifiedDoctors    int64 `json:"verifiedDoctors"`
	NewUsersLast30Days int64 `json:"newUsersLast30Days"`
}

// GetUserAnalytics returns aggregate user counts.
func (h *AdminHandler) GetUserAnalytics(c *gin.Context) {
	var analytics UserAnalytics
	err := h.DB.Raw(`
		SELECT
			COUNT(*) AS total_users,
			COUNT(CASE WHEN role = 'patient' THEN 1 END) AS total_patients,
			COUNT(CASE WHEN role = 'doctor' THEN 1 END) AS total_doctors,
			COUNT(CASE WHEN role = 'doctor' AND is_verified = true THEN 1 END) AS verified_doctors,
			COUNT(CASE WHEN created_at >= NOW() - INTERVAL 30 DAY THEN 1 END) AS new_users_last30_days
		FROM users`).Scan(&analytics).Error
	if err != nil {
		utils.InternalServerError(c, "Error fetching user analytics")
		return
	}

	utils.Success(c, "User analytics fetched successfully", analytics)
}

// AppointmentAnalytics aggregates appointment counts for the admin dashboard.
type AppointmentAnalytics struct {
	TotalAppointments      int64 `json:"totalAppointments"`
	CompletedAppointments  int64 `json:"completedAppointments"`
	CancelledAppointments  int64 `json:"cancelledAppointments"`
	AppointmentsLast30Days int64 `json:"appointmentsLast30Days"`
	UpcomingAppointments   int64 `json:"upcomingAppointments"`
}

// GetAppointmentAnalytics returns aggregate appointment counts.
func (h *AdminHandler) GetAppointmentAnalytics(c *gin.Context) {
	var analytics AppointmentAnalytics
	err := h.DB.Raw(`
		SELECT
			COUNT(*) AS total_appointments,
			COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed_appointments,
			COUNT(CASE WHEN status = 'cancelled' THEN 1 END) AS cancelled_appointments,
			COUNT(CASE WHEN created_at >= NOW() - INTERVAL 30 DAY THEN 1 END) AS appointments_last30_days,
			COUNT(CASE WHEN date >= CURDATE() AND status = 'pending' THEN 1 END) AS upcoming_appointments
		FROM appointments`).Scan(&analytics).Error
	if err != nil {
		utils.InternalServerError(c, "Error fetching appointment analytics")
		return
	}

	utils.Success(c, "Appointment analytics fetched successfully", analytics)
}

// RevenueAnalytics aggregates completed payments for the admin dashboard.
type RevenueAnalytics struct {
	TotalRevenue              float64 `json:"totalRevenue"`
	RevenueLast30Days         float64 `json:"revenueLast30Days"`
	AverageAppointmentRevenue float64 `json:"averageAppointmentRevenue"`
}

// GetRevenueAnalytics returns aggregate revenue figures.
func (h *AdminHandler) GetRevenueAnalytics(c *gin.Context) {
	var analytics RevenueAnalytics
	err := h.DB.Raw(`
		SELECT
			COALESCE(SUM(amount), 0) AS total_revenue,
			COALESCE(SUM(CASE WHEN created_at >= NOW() - INTERVAL 30 DAY THEN amount END), 0) AS revenue_last30_days,
			COALESCE(AVG(amount), 0) AS average_appointment_revenue
		FROM payments
		WHERE status = 'completed'`).Scan(&analytics).Error
	if err != nil {
		utils.InternalServerError(c, "Error fetching revenue analytics")
		return
	}

	utils.Success(c, "Revenue analytics fetched successfully", analytics)
}

// SendNotificationRequest represents the request body for a broadcast.
// Either a list of user IDs or a role must be given.
type SendNotificationRequest struct {
	Title   string   `json:"title" binding:"required"`
	Message string   `json:"message" binding:"required"`
	UserIDs []string `json:"userIds"`
	Role    string   `json:"role" binding:"omitempty,oneof=admin doctor patient"`
}

// SendNotification persists a notification per target user and pushes it to
// each user's personal room.
func (h *AdminHandler) SendNotification(c *gin.Context) {
	var req SendNotificationRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	var targets []models.User
	var err error
	switch {
	case len(req.UserIDs) > 0:
		err = h.DB.Where("id IN ?", req.UserIDs).Find(&targets).Error
	case req.Role != "":
		err = h.DB.Where("role = ?", req.Role).Find(&targets).Error
	default:
		utils.BadRequest(c, "Either userIds or role is required")
		return
	}
	if err != nil {
		utils.InternalServerError(c, "Error sending notification")
		return
	}

	for _, target := range targets {
		notification := models.Notification{
			UserID:  target.ID,
			Title:   req.Title,
			Message: req.Message,
		}
		if err := h.DB.Create(&notification).Error; err != nil {
			utils.InternalServerError(c, "Error sending notification")
			return
		}
		h.Hub.NotifyUser(target.ID, "notification", notification)
	}

	utils.Success(c, fmt.Sprintf("Notification sent to %d users", len(targets)), nil)
}

// GetNotificationHistory lists the most recent notifications sent on the
// platform.
func (h *AdminHandler) GetNotificationHistory(c *gin.Context) {
	var notifications []models.Notification
	if err := h.DB.Order("created_at desc").Limit(100).Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Error fetching notification history")
		return
	}

	utils.Success(c, "Notification history fetched successfully", notifications)
}

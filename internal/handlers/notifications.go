package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/utils"
)

// NotificationHandler serves a user's own notifications.
type NotificationHandler struct {
	DB *gorm.DB
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(db *gorm.DB) *NotificationHandler {
	return &NotificationHandler{DB: db}
}

// GetMyNotifications lists the authenticated user's notifications, newest
// first.
func (h *NotificationHandler) GetMyNotifications(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notifications []models.Notification
	if err := h.DB.Where("user_id = ?", userID).
		Order("created_at desc").Find(&notifications).Error; err != nil {
		utils.InternalServerError(c, "Error fetching notifications")
		return
	}

	utils.Success(c, "Notifications fetched successfully", notifications)
}

// MarkNotificationRead marks one of the user's notifications as read.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	userID, exists := middleware.GetUserIDFromContext(c)
	if !exists {
		utils.Unauthorized(c, "User not authenticated")
		return
	}

	var notification models.Notification
	if err := h.DB.Where("id = ? AND user_id = ?", c.Param("id"), userID).First(&notification).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.NotFound(c, "Notification not found")
		} else {
			utils.InternalServerError(c, "Error updating notification")
		}
		return
	}

	notification.IsRead = true
	if err := h.DB.Save(&notification).Error; err != nil {
		utils.InternalServerError(c, "Error updating notification")
		return
	}

	utils.Success(c, "Notification marked as read", notification)
}

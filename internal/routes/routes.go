package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"mediconnect-server/internal/booking"
	"mediconnect-server/internal/config"
	"mediconnect-server/internal/handlers"
	"mediconnect-server/internal/middleware"
	"mediconnect-server/internal/models"
	"mediconnect-server/internal/realtime"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, hub *realtime.Hub, logger *zap.Logger) {
	bookingService := booking.NewService(
		booking.NewGormDirectory(db),
		booking.NewGormAvailabilityStore(db),
		booking.NewGormAppointmentStore(db),
		logger,
	)

	authHandler := handlers.NewAuthHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db, hub)
	doctorHandler := handlers.NewDoctorHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, bookingService, hub, logger)
	availabilityHandler := handlers.NewAvailabilityHandler(db)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(db)
	prescriptionHandler := handlers.NewPrescriptionHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg))
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
			authRoutesPrivate.PUT("/profile", authHandler.UpdateProfile)
		}

		// Doctor directory (patient-facing; any authenticated user)
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID) // Authorization inside handler
			appointmentRoutes.PUT("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PUT("/:id/cancel", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CancelAppointment)
		}

		// Availability routes
		availabilityRoutes := private.Group("/availability")
		{
			availabilityRoutes.GET("", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.GetMyAvailability)
			availabilityRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.SetAvailability)
			availabilityRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleDoctor), availabilityHandler.RemoveAvailability)
			availabilityRoutes.GET("/doctor/:doctorId", availabilityHandler.GetDoctorAvailability)
		}

		// Medical record routes
		private.POST("/patients/:patientId/records", middleware.RoleAuthMiddleware(models.RoleDoctor), medicalRecordHandler.CreateMedicalRecord)
		private.GET("/patients/:patientId/records", middleware.RoleAuthMiddleware(models.RoleDoctor), medicalRecordHandler.GetPatientRecords)
		medicalRecordRoutes := private.Group("/medical-records")
		medicalRecordRoutes.Use(middleware.RoleAuthMiddleware(models.RolePatient))
		{
			medicalRecordRoutes.GET("", medicalRecordHandler.GetMyRecords)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMyRecordByID)
		}

		// Prescription routes
		prescriptionRoutes := private.Group("/prescriptions")
		{
			prescriptionRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.CreatePrescription)
			prescriptionRoutes.GET("/issued", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.GetDoctorPrescriptions)
			prescriptionRoutes.GET("/issued/:id", middleware.RoleAuthMiddleware(models.RoleDoctor), prescriptionHandler.GetDoctorPrescriptionByID)
			prescriptionRoutes.GET("", middleware.RoleAuthMiddleware(models.RolePatient), prescriptionHandler.GetMyPrescriptions)
		}

		// Notification routes
		notificationRoutes := private.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.GetMyNotifications)
			notificationRoutes.PATCH("/:id/read", notificationHandler.MarkNotificationRead)
		}

		// Admin routes
		adminRoutes := private.Group("/admin")
		adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			adminRoutes.GET("/users", adminHandler.GetUsers)
			adminRoutes.GET("/users/:id", adminHandler.GetUserByID)
			adminRoutes.PUT("/users/:id/status", adminHandler.UpdateUserStatus)
			adminRoutes.DELETE("/users/:id", adminHandler.DeleteUser)
			adminRoutes.GET("/doctors/pending", adminHandler.GetPendingDoctors)
			adminRoutes.PUT("/doctors/:id/verify", adminHandler.VerifyDoctor)
			adminRoutes.GET("/analytics/users", adminHandler.GetUserAnalytics)
			adminRoutes.GET("/analytics/appointments", adminHandler.GetAppointmentAnalytics)
			adminRoutes.GET("/analytics/revenue", adminHandler.GetRevenueAnalytics)
			adminRoutes.POST("/notifications", adminHandler.SendNotification)
			adminRoutes.GET("/notifications/history", adminHandler.GetNotificationHistory)
		}

		// Realtime notification channel
		private.GET("/ws", hub.HandleConnect)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})
}

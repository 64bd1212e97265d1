package routes

import (
	"clinic-appointment-server/internal/config"
	"clinic-appointment-server/internal/handlers"
	"clinic-appointment-server/internal/middleware"
	"clinic-appointment-server/internal/models"
	"clinic-appointment-server/internal/scheduling"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, log *logrus.Logger) {
	// Wire the scheduling core against its gorm-backed stores
	scheduler := scheduling.NewService(
		scheduling.NewGormAppointmentStore(db),
		scheduling.NewGormPatientStore(db),
		log,
	)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	patientHandler := handlers.NewPatientHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(scheduler)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}
	}

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		authRoutesPrivate := private.Group("/auth")
		{
			authRoutesPrivate.POST("/logout", authHandler.Logout)
			authRoutesPrivate.GET("/profile", authHandler.GetProfile)
		}

		// Staff account management
		userRoutes := private.Group("/users")
		{
			// Physician listing is available to any staff member for assignment pickers
			userRoutes.GET("/physicians", userHandler.GetPhysicians)

			// Admin-only routes
			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin)) // Only Admins
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Patient records
		patientRoutes := private.Group("/patients")
		{
			patientRoutes.POST("", patientHandler.CreatePatient)
			patientRoutes.GET("", patientHandler.GetPatients)
			patientRoutes.GET("/:id", patientHandler.GetPatientByID)
			patientRoutes.PUT("/:id", patientHandler.UpdatePatient)
			patientRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), patientHandler.DeletePatient)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointments)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)
			appointmentRoutes.PATCH("/:id", appointmentHandler.UpdateAppointment)
			appointmentRoutes.PATCH("/:id/confirm", appointmentHandler.ConfirmAppointment)
			appointmentRoutes.PATCH("/:id/reschedule", appointmentHandler.RescheduleAppointment)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.CancelAppointment)
			appointmentRoutes.PATCH("/:id/attend", appointmentHandler.MarkAttended)
			appointmentRoutes.DELETE("/:id", middleware.RoleAuthMiddleware(models.RoleAdmin), appointmentHandler.DeleteAppointment)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

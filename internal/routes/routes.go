package routes

import (
	"clinic-app-server/internal/config"
	"clinic-app-server/internal/handlers"
	"clinic-app-server/internal/middleware"
	"clinic-app-server/internal/models"
	"clinic-app-server/internal/notifications"
	"clinic-app-server/ws"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, hub *ws.Hub, mailer *notifications.Mailer) {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, mailer)
	scheduleHandler := handlers.NewScheduleHandler(db)
	invoiceHandler := handlers.NewInvoiceHandler(db)
	paymentHandler := handlers.NewPaymentHandler(db, cfg)
	catalogHandler := handlers.NewCatalogHandler(db)
	medicalRecordHandler := handlers.NewMedicalRecordHandler(db)
	messageHandler := handlers.NewMessageHandler(db, hub)

	staffOnly := middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin)
	adminOnly := middleware.RoleAuthMiddleware(models.RoleAdmin)

	// Public routes (no authentication required)
	public := router.Group("/api/v1")
	{
		authRoutes := public.Group("/auth")
		{
			authRoutes.POST("/register", authHandler.Register)
			authRoutes.POST("/login", authHandler.Login)
			authRoutes.POST("/refresh-token", authHandler.RefreshToken)
		}

		// Payment gateway callback; authenticated by its HMAC signature.
		public.POST("/payments/momo/ipn", paymentHandler.HandleMomoIPN)
	}

	// WebSocket endpoint; the token travels as a query parameter because
	// browsers cannot set headers on the handshake.
	router.GET("/ws", ws.ServeWS(hub, cfg))

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

		// User management routes
		userRoutes := private.Group("/users")
		{
			// Accessible by all authenticated users for booking
			userRoutes.GET("/doctors", userHandler.GetDoctors)

			// Accessible by doctors and admins
			userRoutes.GET("/doctor-patients", userHandler.GetDoctorPatients)

			adminRoutes := userRoutes.Group("")
			adminRoutes.Use(adminOnly)
			{
				adminRoutes.POST("", userHandler.CreateUser)
				adminRoutes.GET("", userHandler.GetUsers)
				adminRoutes.GET("/:id", userHandler.GetUserByID)
				adminRoutes.PUT("/:id", userHandler.UpdateUser)
				adminRoutes.DELETE("/:id", userHandler.DeleteUser)
			}
		}

		// Catalog routes: departments, service packages, medicines.
		// Listing is open to any authenticated user; mutations are admin-only.
		catalogRoutes := private.Group("")
		{
			catalogRoutes.GET("/departments", catalogHandler.GetDepartments)
			catalogRoutes.GET("/service-packages", catalogHandler.GetServicePackages)
			catalogRoutes.GET("/medicines", catalogHandler.GetMedicines)

			catalogAdmin := catalogRoutes.Group("")
			catalogAdmin.Use(adminOnly)
			{
				catalogAdmin.POST("/departments", catalogHandler.CreateDepartment)
				catalogAdmin.PUT("/departments/:id", catalogHandler.UpdateDepartment)
				catalogAdmin.DELETE("/departments/:id", catalogHandler.DeleteDepartment)

				catalogAdmin.POST("/service-packages", catalogHandler.CreateServicePackage)
				catalogAdmin.PUT("/service-packages/:id", catalogHandler.UpdateServicePackage)
				catalogAdmin.DELETE("/service-packages/:id", catalogHandler.DeleteServicePackage)

				catalogAdmin.POST("/medicines", catalogHandler.CreateMedicine)
				catalogAdmin.PUT("/medicines/:id", catalogHandler.UpdateMedicine)
				catalogAdmin.DELETE("/medicines/:id", catalogHandler.DeleteMedicine)
			}
		}

		// Appointment routes; lifecycle transitions are one endpoint per
		// event, each guarded by the transition table inside the handler.
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("", appointmentHandler.GetAppointmentsForUser)
			appointmentRoutes.GET("/:id", appointmentHandler.GetAppointmentByID)

			appointmentRoutes.PATCH("/:id/confirm", staffOnly, appointmentHandler.Confirm)
			appointmentRoutes.PATCH("/:id/cancel", appointmentHandler.Cancel)
			appointmentRoutes.PATCH("/:id/request-cancel", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.RequestCancel)
			appointmentRoutes.PATCH("/:id/approve-cancel", staffOnly, appointmentHandler.ApproveCancel)
			appointmentRoutes.PATCH("/:id/reject-cancel", staffOnly, appointmentHandler.RejectCancel)
			appointmentRoutes.PATCH("/:id/start-treatment", staffOnly, appointmentHandler.StartTreatment)
			appointmentRoutes.PATCH("/:id/complete", staffOnly, appointmentHandler.Complete)
		}

		// Doctor schedule routes
		scheduleRoutes := private.Group("/schedules")
		{
			scheduleRoutes.GET("/my", middleware.RoleAuthMiddleware(models.RoleDoctor), scheduleHandler.GetMySchedules)
			scheduleRoutes.GET("/doctor/:doctorId", scheduleHandler.GetSchedulesByDoctor)
			scheduleRoutes.GET("/date/:date", scheduleHandler.GetSchedulesByDate)

			scheduleRoutes.PATCH("/:id/check-in", middleware.RoleAuthMiddleware(models.RoleDoctor), scheduleHandler.CheckIn)
			scheduleRoutes.PATCH("/:id/check-out", middleware.RoleAuthMiddleware(models.RoleDoctor), scheduleHandler.CheckOut)

			scheduleAdmin := scheduleRoutes.Group("")
			scheduleAdmin.Use(adminOnly)
			{
				scheduleAdmin.POST("", scheduleHandler.CreateSchedule)
				scheduleAdmin.POST("/bulk", scheduleHandler.BulkCreateSchedules)
				scheduleAdmin.PUT("/:id", scheduleHandler.UpdateSchedule)
				scheduleAdmin.DELETE("/:id", scheduleHandler.DeleteSchedule)
				scheduleAdmin.POST("/bulk-delete", scheduleHandler.BulkDeleteSchedules)
				scheduleAdmin.POST("/auto-update-statuses", scheduleHandler.AutoUpdateStatuses)
			}
		}

		// Invoice routes
		invoiceRoutes := private.Group("/invoices")
		{
			invoiceRoutes.GET("/:id", invoiceHandler.GetInvoice)
			invoiceRoutes.GET("/appointment/:appointmentId", invoiceHandler.GetInvoiceByAppointment)
			invoiceRoutes.GET("/patient/:patientId", invoiceHandler.GetInvoicesByPatient)

			invoiceStaff := invoiceRoutes.Group("")
			invoiceStaff.Use(staffOnly)
			{
				invoiceStaff.POST("/:id/packages", invoiceHandler.AddPackageLine)
				invoiceStaff.DELETE("/:id/packages/:lineId", invoiceHandler.RemovePackageLine)
				invoiceStaff.POST("/:id/medicines", invoiceHandler.AddMedicineLine)
				invoiceStaff.DELETE("/:id/medicines/:lineId", invoiceHandler.RemoveMedicineLine)
				invoiceStaff.PATCH("/:id/medicines/:lineId", invoiceHandler.UpdateMedicineQuantity)
				invoiceStaff.PATCH("/:id/insurance", invoiceHandler.SetInsurance)
				invoiceStaff.PATCH("/:id/payment-method", invoiceHandler.SetPaymentMethod)

				invoiceStaff.POST("/:id/pay/cash", paymentHandler.PayCash)
			}

			// Patients initiate their own wallet payments
			invoiceRoutes.POST("/:id/pay/momo", paymentHandler.CreateMomoPayment)
		}

		// Medical record routes
		medicalRecordRoutes := private.Group("/medical-records")
		{
			medicalRecordRoutes.POST("", middleware.RoleAuthMiddleware(models.RoleDoctor), medicalRecordHandler.CreateMedicalRecord)
			medicalRecordRoutes.GET("/patient/:patientId", medicalRecordHandler.GetMedicalRecordsForPatient)
			medicalRecordRoutes.GET("/:id", medicalRecordHandler.GetMedicalRecordByID)
			medicalRecordRoutes.PUT("/:id", staffOnly, medicalRecordHandler.UpdateMedicalRecord)
			medicalRecordRoutes.DELETE("/:id", adminOnly, medicalRecordHandler.DeleteMedicalRecord)

			attachmentRoutes := medicalRecordRoutes.Group("/:id/attachments")
			attachmentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleDoctor))
			{
				attachmentRoutes.POST("", medicalRecordHandler.UploadMedicalRecordAttachment)
			}

			// Attachment IDs are globally unique; access is checked against
			// the parent record inside the handler.
			private.GET("/medical-records/attachments/:attachmentId", medicalRecordHandler.GetMedicalRecordAttachment)
		}

		// Messaging routes
		messageRoutes := private.Group("/messages")
		{
			messageRoutes.POST("/send", messageHandler.SendMessage)
			messageRoutes.GET("", messageHandler.GetMessagesForUser)
			messageRoutes.GET("/new", messageHandler.GetNewMessages)
			messageRoutes.GET("/conversations", messageHandler.GetConversations)
			messageRoutes.PATCH("/:messageId/read", messageHandler.MarkMessageAsRead)
			messageRoutes.GET("/:messageId/attachment", messageHandler.GetMessageAttachment)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}

package httpserver

func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.healthCheck)
	s.echo.GET("/metrics", s.metricsEndpoint)

	api := s.echo.Group("/api/v1")
	api.POST("/auth/login", s.login)

	protected := api.Group("")
	protected.Use(s.middleware.Session.RequireSession())

	protected.POST("/auth/logout", s.logout)
	protected.GET("/auth/me", s.me)
	protected.POST("/focus", s.focus)

	users := protected.Group("/users")
	users.GET("", s.listUsers)
	users.POST("", s.createUser)
	users.GET("/:id", s.getUser)
	users.PUT("/:id", s.updateUser)
	users.DELETE("/:id", s.deleteUser)

	departments := protected.Group("/departments")
	departments.GET("", s.listDepartments)
	departments.POST("", s.createDepartment)
	departments.GET("/:id", s.getDepartment)
	departments.PUT("/:id", s.updateDepartment)
	departments.DELETE("/:id", s.deleteDepartment)
	departments.GET("/:id/users", s.departmentMembers)

	contracts := protected.Group("/contracts")
	contracts.GET("", s.listContracts)
	contracts.POST("", s.createContract)
	contracts.GET("/:id", s.getContract)
	contracts.PUT("/:id", s.updateContract)
	contracts.DELETE("/:id", s.deleteContract)
	contracts.GET("/:id/pdf-url", s.contractPDFURL)
	contracts.GET("/:id/signatures", s.contractSignatures)
	contracts.GET("/:id/approvals", s.contractApprovals)
	contracts.GET("/:id/attachments", s.contractAttachments)
	contracts.POST("/:id/attachments", s.uploadAttachment)

	contracts.GET("/:id/signing", s.signingState)
	contracts.POST("/:id/signing/otp", s.requestSigningOTP)
	contracts.POST("/:id/signing/submit", s.submitSignature)
	contracts.POST("/:id/signing/close", s.closeSigningModal)

	protected.DELETE("/attachments/:id", s.deleteAttachment)

	notifications := protected.Group("/notifications")
	notifications.GET("", s.listNotifications)
	notifications.GET("/unread-count", s.unreadCount)
	notifications.GET("/stream", s.streamNotifications)
	notifications.PATCH("/read-all", s.markAllNotificationsRead)
	notifications.PATCH("/:id/read", s.markNotificationRead)

	approvals := protected.Group("/approvals")
	approvals.GET("/pending", s.pendingApprovals)
	approvals.GET("/pending/stream", s.streamPendingApprovals)
	approvals.POST("/:id/approve", s.approveStep)
	approvals.POST("/:id/reject", s.rejectStep)
}

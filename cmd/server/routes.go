package main

import (
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/handlers"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/middleware"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	adminSecret := svc.cfg.Admin.Secret

	// Rate limiters for the public surfaces
	submitLimiter := middleware.NewRateLimiter(5, 10)
	exportLimiter := middleware.NewRateLimiter(2, 5)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "inventario-caixas"})
	})

	api := r.Group("/api")
	{
		// Public routes used by the counting page
		public := api.Group("", submitLimiter.Middleware())
		{
			public.POST("/counts", svc.countHandler.Submit)
			public.POST("/counts/transit", svc.countHandler.SubmitTransit)
			public.GET("/stores", svc.countHandler.ListStores)
			public.GET("/assets", svc.countHandler.ListAssets)
			public.GET("/stores/:id/status", svc.countHandler.StoreStatus)
			public.GET("/system/status", svc.systemHandler.GetStatus)
			public.GET("/system/reconcile", svc.systemHandler.Reconcile)
		}

		// Admin routes carrying the credential in the request body
		api.POST("/admin/session", svc.adminHandler.CreateSession)
		api.POST("/admin/cleanup", svc.adminHandler.Cleanup)
		api.POST("/system/status", svc.systemHandler.SetManual)
		api.POST("/system/schedule", svc.systemHandler.SetSchedule)
		api.PUT("/counts/:id", svc.adminHandler.UpdateCount)
		api.PUT("/counts/transit/:id", handlers.TransitFlag(), svc.adminHandler.UpdateCount)
		api.POST("/integration/token", svc.integrationHandler.SetEnabled)
		api.PUT("/integration/token", svc.integrationHandler.RotateToken)
		api.POST("/webhook/config", svc.webhookHandler.UpdateConfig)

		// Admin routes without a body: header credential or session token
		admin := api.Group("", middleware.AdminRequired(adminSecret))
		{
			admin.GET("/counts", svc.adminHandler.ListCounts)
			admin.GET("/counts/transit", handlers.TransitFlag(), svc.adminHandler.ListCounts)
			admin.DELETE("/counts/:id", svc.adminHandler.DeleteCount)
			admin.DELETE("/counts/transit/:id", handlers.TransitFlag(), svc.adminHandler.DeleteCount)
			admin.GET("/integration/token", svc.integrationHandler.GetConfig)
			admin.GET("/integration/access-logs", svc.integrationHandler.AccessLogs)
			admin.GET("/webhook/config", svc.webhookHandler.GetConfig)
		}

		// Token-gated read-only export
		api.GET("/integration/export", exportLimiter.Middleware(), svc.integrationHandler.Export)
	}
}

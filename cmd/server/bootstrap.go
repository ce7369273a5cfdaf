package main

import (
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/config"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/handlers"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/services"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/utils"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg          *config.Config
	availability *services.AvailabilityService
	taskQueue    services.TaskQueue
	worker       *services.Worker

	countHandler       *handlers.CountHandler
	systemHandler      *handlers.SystemHandler
	adminHandler       *handlers.AdminHandler
	integrationHandler *handlers.IntegrationHandler
	webhookHandler     *handlers.WebhookConfigHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	if cfg.Admin.Secret == "" {
		logger.Warn().Msg("ADMIN_SECRET is not set: admin endpoints will fail closed")
	}

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Seed reference lists and singleton config rows
	if err := models.SeedDefaultData(); err != nil {
		logger.Warn().Err(err).Msg("Failed to seed default data")
	}

	loc := services.BusinessLocation(cfg.Schedule.Timezone)
	db := models.GetDB()

	// Webhook delivery queue (Redis-backed if enabled, otherwise in-process)
	taskQueue := services.InitTaskQueue(cfg)
	webhookService := services.NewWebhookService(db, taskQueue, time.Duration(cfg.Webhook.TimeoutSeconds)*time.Second)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(webhookService.Deliver)
	}

	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(webhookService.Deliver)
			worker.Start()
		}
	}

	availability := services.NewAvailabilityService(db, loc)
	if err := availability.StartScheduler(cfg.Schedule.ReconcileSpec); err != nil {
		logger.Fatalf("Failed to start reconciliation scheduler: %v", err)
	}

	countService := services.NewCountService(db, availability, webhookService)

	readDB, err := models.OpenReadOnly(&cfg.Database)
	if err != nil {
		logger.Warn().Err(err).Msg("Restricted DB connection unavailable, export will use the primary connection")
		readDB = nil
	}
	integrationService := services.NewIntegrationService(db, readDB, availability,
		time.Duration(cfg.Integration.TokenTTLHours)*time.Hour)

	return &appServices{
		cfg:                cfg,
		availability:       availability,
		taskQueue:          taskQueue,
		worker:             worker,
		countHandler:       handlers.NewCountHandler(countService),
		systemHandler:      handlers.NewSystemHandler(availability, cfg.Admin.Secret, loc),
		adminHandler:       handlers.NewAdminHandler(countService, cfg),
		integrationHandler: handlers.NewIntegrationHandler(integrationService, cfg.Admin.Secret),
		webhookHandler:     handlers.NewWebhookConfigHandler(webhookService, cfg.Admin.Secret),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.availability.StopScheduler()
	logger.Info().Msg("Reconciliation scheduler stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}

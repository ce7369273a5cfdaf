package services

import (
	"testing"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory database with the full schema and
// the seeded reference data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A pooled :memory: DSN would open independent databases per connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to access sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&models.Store{},
		&models.Asset{},
		&models.CountRecord{},
		&models.TransitCountRecord{},
		&models.SystemConfig{},
		&models.IntegrationConfig{},
		&models.WebhookConfig{},
		&models.IntegrationAccessLog{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	if err := models.SeedDefaults(db); err != nil {
		t.Fatalf("failed to seed test database: %v", err)
	}

	return db
}

func testLocation() *time.Location {
	return BusinessLocation("America/Sao_Paulo")
}

// newTestCountService wires a CountService with webhook dispatch going
// through a SyncQueue. The webhook row is seeded disabled, so dispatch is a
// no-op unless a test enables it.
func newTestCountService(t *testing.T) (*CountService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	availability := NewAvailabilityService(db, testLocation())
	queue := NewSyncQueue()
	webhook := NewWebhookService(db, queue, 2*time.Second)
	queue.SetProcessor(webhook.Deliver)
	return NewCountService(db, availability, webhook), db
}

func mustStore(t *testing.T, db *gorm.DB, code string) *models.Store {
	t.Helper()
	var store models.Store
	if err := db.Where("code = ?", code).First(&store).Error; err != nil {
		t.Fatalf("seed store %q missing: %v", code, err)
	}
	return &store
}

func activeAssetCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Asset{}).Where("active = ?", true).Count(&n).Error; err != nil {
		t.Fatalf("failed to count assets: %v", err)
	}
	return n
}

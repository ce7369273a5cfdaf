package models

import (
	"fmt"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/config"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func InitDB(cfg *config.DatabaseConfig) error {
	db, err := open(cfg.Driver, cfg.DSN)
	if err != nil {
		return err
	}

	DB = db
	return nil
}

// OpenReadOnly opens a second connection with the restricted credential used
// by the integration export endpoint. Returns nil when no restricted DSN is
// configured; callers then fall back to the primary connection.
func OpenReadOnly(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.ReadOnlyDSN == "" {
		return nil, nil
	}
	return open(cfg.Driver, cfg.ReadOnlyDSN)
}

func open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}

	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return db, nil
}

func AutoMigrate() error {
	return DB.AutoMigrate(
		&Store{},
		&Asset{},
		&CountRecord{},
		&TransitCountRecord{},
		&SystemConfig{},
		&IntegrationConfig{},
		&WebhookConfig{},
		&IntegrationAccessLog{},
	)
}

func GetDB() *gorm.DB {
	return DB
}

// SeedDefaultData installs the fixed reference lists and the singleton
// configuration rows if they do not exist yet.
func SeedDefaultData() error {
	return SeedDefaults(DB)
}

// SeedDefaults is the testable variant of SeedDefaultData.
func SeedDefaults(db *gorm.DB) error {
	defaultAssets := []Asset{
		{Name: "Caixa HB 623", Code: "hb_623", Active: true},
		{Name: "Caixa HB 618", Code: "hb_618", Active: true},
		{Name: "Caixa HNT G", Code: "hnt_g", Active: true},
		{Name: "Caixa HNT P", Code: "hnt_p", Active: true},
		{Name: "Caixa Chocolate", Code: "chocolate", Active: true},
		{Name: "Caixa BIN", Code: "bin", Active: true},
		{Name: "Pallets PBR", Code: "pallet_pbr", Active: true},
	}

	for _, asset := range defaultAssets {
		var count int64
		db.Model(&Asset{}).Where("code = ?", asset.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&asset).Error; err != nil {
				return err
			}
		}
	}

	defaultStores := []Store{
		{Name: "Loja 1", Code: "loja_01"},
		{Name: "Loja 2", Code: "loja_02"},
		{Name: "Loja 3", Code: "loja_03"},
		{Name: "Loja 4", Code: "loja_04"},
		{Name: "Loja 5", Code: "loja_05"},
		{Name: "Loja 6", Code: "loja_06"},
		{Name: "Loja 7", Code: "loja_07"},
		{Name: "Loja 8", Code: "loja_08"},
		{Name: "CD São Paulo", Code: "cd_sp", IsDistributionCenter: true},
		{Name: "CD Espírito Santo", Code: "cd_es", IsDistributionCenter: true},
	}

	for _, store := range defaultStores {
		var count int64
		db.Model(&Store{}).Where("code = ?", store.Code).Count(&count)
		if count == 0 {
			if err := db.Create(&store).Error; err != nil {
				return err
			}
		}
	}

	// Singleton rows: availability state, integration and webhook config.
	singletons := []interface{}{
		&SystemConfig{ID: SingletonID, Mode: ModeManual, Blocked: false},
		&IntegrationConfig{ID: SingletonID, Enabled: false},
		&WebhookConfig{ID: SingletonID, Enabled: false},
	}
	for _, row := range singletons {
		if err := db.FirstOrCreate(row, "id = ?", SingletonID).Error; err != nil {
			return err
		}
	}

	return nil
}

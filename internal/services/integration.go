package services

import (
	"crypto/subtle"
	"strings"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IntegrationService manages the time-boxed bearer token gating the
// read-only export endpoint, and serves the export itself.
type IntegrationService struct {
	db           *gorm.DB
	readDB       *gorm.DB
	availability *AvailabilityService
	tokenTTL     time.Duration

	// now is injectable for expiry tests.
	now func() time.Time
}

// NewIntegrationService wires the token service. readDB is the restricted
// connection used for export reads; pass nil to reuse the primary one.
func NewIntegrationService(db, readDB *gorm.DB, availability *AvailabilityService, tokenTTL time.Duration) *IntegrationService {
	if readDB == nil {
		readDB = db
	}
	return &IntegrationService{
		db:           db,
		readDB:       readDB,
		availability: availability,
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

func (s *IntegrationService) getConfig() (*models.IntegrationConfig, error) {
	var cfg models.IntegrationConfig
	err := s.db.Where("id = ?", models.SingletonID).First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = models.IntegrationConfig{ID: models.SingletonID}
		if createErr := s.db.Create(&cfg).Error; createErr != nil {
			return nil, response.NewUpstreamStoreError("failed to initialize integration config")
		}
		return &cfg, nil
	}
	if err != nil {
		return nil, response.NewUpstreamStoreError("failed to read integration config")
	}
	return &cfg, nil
}

// GetConfig returns the integration state with the token masked.
func (s *IntegrationService) GetConfig() (*models.IntegrationConfig, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}
	cfg.TokenMask = cfg.MaskToken()
	return cfg, nil
}

// SetEnabled toggles the integration. Activation requires the system not to
// be blocked at that moment.
func (s *IntegrationService) SetEnabled(enabled bool) (*models.IntegrationConfig, error) {
	if enabled {
		status, err := s.availability.GetStatus()
		if err != nil {
			return nil, err
		}
		if status.Blocked {
			return nil, response.NewSystemBlocked("cannot enable the integration while the system is blocked")
		}
	}

	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	cfg.Enabled = enabled
	if err := s.db.Save(cfg).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to update integration config")
	}

	logger.Info().Bool("enabled", enabled).Msg("integration toggled")
	cfg.TokenMask = cfg.MaskToken()
	return cfg, nil
}

// RotatedToken carries the freshly minted token. The full value is returned
// exactly once; reads afterwards only see the mask.
type RotatedToken struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RotateToken replaces the integration token with a new random opaque value
// valid for the configured TTL.
func (s *IntegrationService) RotateToken() (*RotatedToken, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	token := strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
	expiresAt := s.now().Add(s.tokenTTL)

	cfg.Token = token
	cfg.ExpiresAt = &expiresAt
	if err := s.db.Save(cfg).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to persist integration token")
	}

	logger.Info().Time("expires_at", expiresAt).Msg("integration token rotated")
	return &RotatedToken{Token: token, ExpiresAt: expiresAt}, nil
}

// ValidateAndExport authenticates the bearer token and returns the filtered
// count records. Every authorized read is logged and counted.
func (s *IntegrationService) ValidateAndExport(bearerToken string, filter *CountFilter, sourceIP, userAgent string) ([]models.CountRecord, error) {
	cfg, err := s.getConfig()
	if err != nil {
		return nil, err
	}

	if !cfg.Enabled {
		return nil, response.NewIntegrationDisabled("integration is disabled")
	}
	if cfg.Token == "" || bearerToken == "" ||
		subtle.ConstantTimeCompare([]byte(cfg.Token), []byte(bearerToken)) != 1 {
		return nil, response.NewUnauthorized("invalid integration token")
	}
	if cfg.ExpiresAt == nil || s.now().After(*cfg.ExpiresAt) {
		return nil, response.NewTokenExpired("integration token has expired")
	}

	now := s.now()
	access := models.IntegrationAccessLog{
		Token:     cfg.MaskToken(),
		SourceIP:  sourceIP,
		UserAgent: userAgent,
		CreatedAt: now,
	}
	if err := s.db.Create(&access).Error; err != nil {
		logger.Warn().Err(err).Msg("failed to append integration access log")
	}
	updates := map[string]interface{}{
		"connection_count": gorm.Expr("connection_count + 1"),
		"last_used_at":     now,
	}
	if err := s.db.Model(&models.IntegrationConfig{}).Where("id = ?", models.SingletonID).Updates(updates).Error; err != nil {
		logger.Warn().Err(err).Msg("failed to update integration usage counters")
	}

	var records []models.CountRecord
	query := applyCountFilter(s.readDB.Model(&models.CountRecord{}), filter)
	if err := query.Order("store_id, asset_id").Find(&records).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to export count records")
	}
	return records, nil
}

// ListAccessLogs returns recent export accesses (admin).
func (s *IntegrationService) ListAccessLogs(limit int) ([]models.IntegrationAccessLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var logs []models.IntegrationAccessLog
	if err := s.db.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to list access logs")
	}
	return logs, nil
}

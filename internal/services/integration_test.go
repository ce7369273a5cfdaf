package services

import (
	"testing"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"gorm.io/gorm"
)

func newTestIntegrationService(t *testing.T) (*IntegrationService, *CountService, *gorm.DB) {
	t.Helper()
	counts, db := newTestCountService(t)
	availability := NewAvailabilityService(db, testLocation())
	svc := NewIntegrationService(db, nil, availability, 24*time.Hour)
	return svc, counts, db
}

func TestRotateToken(t *testing.T) {
	svc, _, db := newTestIntegrationService(t)

	rotated, err := svc.RotateToken()
	if err != nil {
		t.Fatalf("RotateToken() error = %v", err)
	}
	if len(rotated.Token) != 64 {
		t.Errorf("token length = %d, expected 64 opaque hex chars", len(rotated.Token))
	}
	wantExpiry := time.Now().Add(24 * time.Hour)
	if diff := rotated.ExpiresAt.Sub(wantExpiry); diff < -time.Minute || diff > time.Minute {
		t.Errorf("ExpiresAt = %v, expected ~24h from now", rotated.ExpiresAt)
	}

	// Subsequent reads only see the mask, never the full value
	cfg, err := svc.GetConfig()
	if err != nil {
		t.Fatalf("GetConfig() error = %v", err)
	}
	if cfg.TokenMask == rotated.Token {
		t.Error("GetConfig() leaked the full token")
	}
	if cfg.TokenMask == "" {
		t.Error("TokenMask should be populated after rotation")
	}

	// A second rotation invalidates the first token
	second, err := svc.RotateToken()
	if err != nil {
		t.Fatalf("second RotateToken() error = %v", err)
	}
	if second.Token == rotated.Token {
		t.Error("rotation should mint a fresh token")
	}

	var stored models.IntegrationConfig
	db.First(&stored, models.SingletonID)
	if stored.Token != second.Token {
		t.Error("stored token should match the latest rotation")
	}
}

func TestValidateAndExport(t *testing.T) {
	svc, counts, db := newTestIntegrationService(t)

	store := mustStore(t, db, "loja_01")
	other := mustStore(t, db, "loja_02")
	if _, err := counts.SubmitCount(&SubmitCountRequest{
		StoreID: store.ID, Email: "a@example.com",
		Quantities: map[string]int{"1": 5},
	}); err != nil {
		t.Fatalf("seed SubmitCount() error = %v", err)
	}
	if _, err := counts.SubmitCount(&SubmitCountRequest{
		StoreID: other.ID, Email: "b@example.com",
	}); err != nil {
		t.Fatalf("seed SubmitCount() error = %v", err)
	}

	rotated, err := svc.RotateToken()
	if err != nil {
		t.Fatalf("RotateToken() error = %v", err)
	}

	// Disabled integration rejects even a valid token
	if _, err := svc.ValidateAndExport(rotated.Token, nil, "10.0.0.1", "curl"); !response.IsAppError(err, response.CodeIntegrationDisabled) {
		t.Errorf("export while disabled = %v, expected IntegrationDisabled", err)
	}

	if _, err := svc.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	if _, err := svc.ValidateAndExport("wrong-token", nil, "10.0.0.1", "curl"); !response.IsAppError(err, response.CodeUnauthorized) {
		t.Errorf("export with wrong token = %v, expected Unauthorized", err)
	}
	if _, err := svc.ValidateAndExport("", nil, "10.0.0.1", "curl"); !response.IsAppError(err, response.CodeUnauthorized) {
		t.Errorf("export with empty token = %v, expected Unauthorized", err)
	}

	records, err := svc.ValidateAndExport(rotated.Token, nil, "10.0.0.1", "curl")
	if err != nil {
		t.Fatalf("ValidateAndExport() error = %v", err)
	}
	if int64(len(records)) != 2*activeAssetCount(t, db) {
		t.Errorf("export returned %d rows, expected both stores' batches", len(records))
	}

	filtered, err := svc.ValidateAndExport(rotated.Token, &CountFilter{StoreID: store.ID}, "10.0.0.1", "curl")
	if err != nil {
		t.Fatalf("filtered ValidateAndExport() error = %v", err)
	}
	for _, r := range filtered {
		if r.StoreID != store.ID {
			t.Errorf("store filter leaked record for store %d", r.StoreID)
		}
	}

	assetFiltered, err := svc.ValidateAndExport(rotated.Token, &CountFilter{AssetID: 1}, "10.0.0.1", "curl")
	if err != nil {
		t.Fatalf("asset-filtered ValidateAndExport() error = %v", err)
	}
	if len(assetFiltered) != 2 {
		t.Errorf("asset filter returned %d rows, expected 2", len(assetFiltered))
	}
}

func TestValidateAndExport_Expiry(t *testing.T) {
	svc, _, _ := newTestIntegrationService(t)

	base := time.Date(2026, 4, 14, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	rotated, err := svc.RotateToken()
	if err != nil {
		t.Fatalf("RotateToken() error = %v", err)
	}
	if _, err := svc.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	// Still valid one minute before the deadline
	svc.now = func() time.Time { return base.Add(24*time.Hour - time.Minute) }
	if _, err := svc.ValidateAndExport(rotated.Token, nil, "10.0.0.1", "curl"); err != nil {
		t.Errorf("export just before expiry failed: %v", err)
	}

	// Expired one minute after
	svc.now = func() time.Time { return base.Add(24*time.Hour + time.Minute) }
	if _, err := svc.ValidateAndExport(rotated.Token, nil, "10.0.0.1", "curl"); !response.IsAppError(err, response.CodeTokenExpired) {
		t.Errorf("export after expiry = %v, expected TokenExpired", err)
	}
}

func TestValidateAndExport_AccessLogging(t *testing.T) {
	svc, _, db := newTestIntegrationService(t)

	rotated, err := svc.RotateToken()
	if err != nil {
		t.Fatalf("RotateToken() error = %v", err)
	}
	if _, err := svc.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled() error = %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := svc.ValidateAndExport(rotated.Token, nil, "10.0.0.9", "integration-client/1.0"); err != nil {
			t.Fatalf("ValidateAndExport() error = %v", err)
		}
	}

	// Rejected requests must not be logged or counted
	svc.ValidateAndExport("wrong", nil, "10.0.0.9", "integration-client/1.0")

	logs, err := svc.ListAccessLogs(0)
	if err != nil {
		t.Fatalf("ListAccessLogs() error = %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("access log has %d entries, expected 3", len(logs))
	}
	if logs[0].SourceIP != "10.0.0.9" || logs[0].UserAgent != "integration-client/1.0" {
		t.Errorf("access log entry = %+v", logs[0])
	}
	if logs[0].Token == rotated.Token {
		t.Error("access log stored the full token instead of the mask")
	}

	var cfg models.IntegrationConfig
	db.First(&cfg, models.SingletonID)
	if cfg.ConnectionCount != 3 {
		t.Errorf("ConnectionCount = %d, expected 3", cfg.ConnectionCount)
	}
	if cfg.LastUsedAt == nil {
		t.Error("LastUsedAt should be set after an authorized export")
	}
}

func TestSetEnabled_BlockedSystem(t *testing.T) {
	svc, _, db := newTestIntegrationService(t)

	availability := NewAvailabilityService(db, testLocation())
	if _, err := availability.SetManual(true); err != nil {
		t.Fatalf("SetManual() error = %v", err)
	}

	if _, err := svc.SetEnabled(true); !response.IsAppError(err, response.CodeSystemBlocked) {
		t.Errorf("SetEnabled(true) while blocked = %v, expected SystemBlocked", err)
	}

	// Disabling is always allowed
	if _, err := svc.SetEnabled(false); err != nil {
		t.Errorf("SetEnabled(false) while blocked failed: %v", err)
	}
}

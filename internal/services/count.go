package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/esc4n0rx/inventario-caixas-hb-sub000/internal/models"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/logger"
	"github.com/esc4n0rx/inventario-caixas-hb-sub000/pkg/response"
	"gorm.io/gorm"
)

// Count kinds. Standard counts go to count_records; the extra transit phase
// offered to distribution centers goes to transit_count_records.
const (
	KindStore   = "store"
	KindTransit = "transit"
)

// CountService implements the submission pipeline: validation, availability
// gate, one-submission-per-store guard, batch insert and webhook hand-off.
type CountService struct {
	db           *gorm.DB
	availability *AvailabilityService
	webhook      *WebhookService
}

func NewCountService(db *gorm.DB, availability *AvailabilityService, webhook *WebhookService) *CountService {
	return &CountService{db: db, availability: availability, webhook: webhook}
}

// SubmitCountRequest is the body of a count submission. Quantities maps
// asset ID to the counted amount; assets omitted from the map default to 0.
type SubmitCountRequest struct {
	StoreID    uint           `json:"store_id"`
	Email      string         `json:"email"`
	Quantities map[string]int `json:"quantities"`
}

// SubmitCountResult carries the persisted batch back to the submitter.
type SubmitCountResult struct {
	StoreID   uint        `json:"store_id"`
	StoreName string      `json:"store_name"`
	Kind      string      `json:"kind"`
	Records   interface{} `json:"records"`
}

// SubmitCount runs the standard pipeline against count_records.
func (s *CountService) SubmitCount(req *SubmitCountRequest) (*SubmitCountResult, error) {
	return s.submit(req, KindStore)
}

// SubmitTransitCount runs the independent transit pipeline against
// transit_count_records. Only distribution centers may use it.
func (s *CountService) SubmitTransitCount(req *SubmitCountRequest) (*SubmitCountResult, error) {
	return s.submit(req, KindTransit)
}

func (s *CountService) submit(req *SubmitCountRequest, kind string) (*SubmitCountResult, error) {
	if req.StoreID == 0 {
		return nil, response.NewInvalidInput("store_id is required")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, response.NewInvalidInput("email is required")
	}

	var store models.Store
	if err := s.db.First(&store, req.StoreID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewInvalidInput("unknown store")
		}
		return nil, response.NewUpstreamStoreError("failed to resolve store")
	}

	if kind == KindTransit && !store.IsDistributionCenter {
		return nil, response.NewForbidden("transit counts are restricted to distribution centers")
	}

	status, err := s.availability.GetStatus()
	if err != nil {
		return nil, err
	}
	if status.Blocked {
		return nil, response.NewSystemBlocked("counting is currently closed")
	}

	quantities, err := parseQuantities(req.Quantities)
	if err != nil {
		return nil, err
	}

	var assets []models.Asset
	if err := s.db.Where("active = ?", true).Order("id").Find(&assets).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to load asset list")
	}

	known := make(map[uint]bool, len(assets))
	for _, asset := range assets {
		known[asset.ID] = true
	}
	for id := range quantities {
		if !known[id] {
			return nil, response.NewInvalidInput(fmt.Sprintf("unknown asset id %d", id))
		}
	}

	now := time.Now()
	email := strings.TrimSpace(req.Email)

	// The existence check and the batch insert share one transaction, and
	// each table carries a unique (store_id, asset_id) index, so two racing
	// submissions cannot both land a complete batch.
	var result *SubmitCountResult
	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		var existing int64
		if kind == KindTransit {
			if err := tx.Model(&models.TransitCountRecord{}).Where("store_id = ?", store.ID).Count(&existing).Error; err != nil {
				return response.NewUpstreamStoreError("failed to check existing submission")
			}
		} else {
			if err := tx.Model(&models.CountRecord{}).Where("store_id = ?", store.ID).Count(&existing).Error; err != nil {
				return response.NewUpstreamStoreError("failed to check existing submission")
			}
		}
		if existing > 0 {
			return response.NewDuplicateSubmission("store has already submitted this count")
		}

		if kind == KindTransit {
			records := buildTransitRecords(&store, email, assets, quantities, now)
			if err := tx.Create(&records).Error; err != nil {
				return translateInsertError(err)
			}
			result = &SubmitCountResult{StoreID: store.ID, StoreName: store.Name, Kind: kind, Records: records}
			return nil
		}

		records := buildCountRecords(&store, email, assets, quantities, now)
		if err := tx.Create(&records).Error; err != nil {
			return translateInsertError(err)
		}
		result = &SubmitCountResult{StoreID: store.ID, StoreName: store.Name, Kind: kind, Records: records}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	lines := make([]CountLine, 0, len(assets))
	for _, asset := range assets {
		lines = append(lines, CountLine{AssetName: asset.Name, Quantity: quantities[asset.ID]})
	}
	s.webhook.DispatchCount(email, store.Name, kind, lines)

	logger.Info().
		Uint("store_id", store.ID).
		Str("kind", kind).
		Int("assets", len(assets)).
		Msg("count submitted")
	return result, nil
}

// parseQuantities converts the JSON string-keyed map to asset IDs and clamps
// negative quantities to zero.
func parseQuantities(raw map[string]int) (map[uint]int, error) {
	quantities := make(map[uint]int, len(raw))
	for key, qty := range raw {
		id, err := strconv.ParseUint(key, 10, 32)
		if err != nil || id == 0 {
			return nil, response.NewInvalidInput(fmt.Sprintf("invalid asset id %q", key))
		}
		if qty < 0 {
			qty = 0
		}
		quantities[uint(id)] = qty
	}
	return quantities, nil
}

func buildCountRecords(store *models.Store, email string, assets []models.Asset, quantities map[uint]int, now time.Time) []models.CountRecord {
	records := make([]models.CountRecord, 0, len(assets))
	for _, asset := range assets {
		records = append(records, models.CountRecord{
			StoreID:        store.ID,
			StoreName:      store.Name,
			SubmitterEmail: email,
			AssetID:        asset.ID,
			AssetName:      asset.Name,
			Quantity:       quantities[asset.ID],
			RecordedAt:     now,
		})
	}
	return records
}

func buildTransitRecords(store *models.Store, email string, assets []models.Asset, quantities map[uint]int, now time.Time) []models.TransitCountRecord {
	records := make([]models.TransitCountRecord, 0, len(assets))
	for _, asset := range assets {
		records = append(records, models.TransitCountRecord{
			StoreID:        store.ID,
			StoreName:      store.Name,
			SubmitterEmail: email,
			AssetID:        asset.ID,
			AssetName:      asset.Name,
			Quantity:       quantities[asset.ID],
			RecordedAt:     now,
		})
	}
	return records
}

func translateInsertError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return response.NewDuplicateSubmission("store has already submitted this count")
	}
	return response.NewUpstreamStoreError("failed to persist count records")
}

// StoreStatus reports whether a store has completed its submissions.
type StoreStatus struct {
	StoreID          uint  `json:"store_id"`
	AlreadySubmitted bool  `json:"already_submitted"`
	TransitSubmitted *bool `json:"transit_submitted,omitempty"`
}

// GetStoreStatus returns the submission state for one store. The transit
// flag is present only for distribution centers.
func (s *CountService) GetStoreStatus(storeID uint) (*StoreStatus, error) {
	var store models.Store
	if err := s.db.First(&store, storeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("unknown store")
		}
		return nil, response.NewUpstreamStoreError("failed to resolve store")
	}

	var count int64
	if err := s.db.Model(&models.CountRecord{}).Where("store_id = ?", storeID).Count(&count).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to check submissions")
	}

	status := &StoreStatus{StoreID: storeID, AlreadySubmitted: count > 0}

	if store.IsDistributionCenter {
		var transit int64
		if err := s.db.Model(&models.TransitCountRecord{}).Where("store_id = ?", storeID).Count(&transit).Error; err != nil {
			return nil, response.NewUpstreamStoreError("failed to check submissions")
		}
		submitted := transit > 0
		status.TransitSubmitted = &submitted
	}

	return status, nil
}

// ListStores returns the fixed store reference list.
func (s *CountService) ListStores() ([]models.Store, error) {
	var stores []models.Store
	if err := s.db.Order("id").Find(&stores).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to load stores")
	}
	return stores, nil
}

// ListAssets returns the active asset reference list.
func (s *CountService) ListAssets() ([]models.Asset, error) {
	var assets []models.Asset
	if err := s.db.Where("active = ?", true).Order("id").Find(&assets).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to load assets")
	}
	return assets, nil
}

// CountFilter narrows admin listings and the integration export.
type CountFilter struct {
	StoreID uint
	AssetID uint
	Since   *time.Time
}

func applyCountFilter(query *gorm.DB, filter *CountFilter) *gorm.DB {
	if filter == nil {
		return query
	}
	if filter.StoreID != 0 {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if filter.AssetID != 0 {
		query = query.Where("asset_id = ?", filter.AssetID)
	}
	if filter.Since != nil {
		query = query.Where("recorded_at >= ?", *filter.Since)
	}
	return query
}

// ListCounts returns count records of the given kind for the admin panel.
func (s *CountService) ListCounts(kind string, filter *CountFilter) (interface{}, error) {
	if kind == KindTransit {
		var records []models.TransitCountRecord
		query := applyCountFilter(s.db.Model(&models.TransitCountRecord{}), filter)
		if err := query.Order("store_id, asset_id").Find(&records).Error; err != nil {
			return nil, response.NewUpstreamStoreError("failed to list transit counts")
		}
		return records, nil
	}

	var records []models.CountRecord
	query := applyCountFilter(s.db.Model(&models.CountRecord{}), filter)
	if err := query.Order("store_id, asset_id").Find(&records).Error; err != nil {
		return nil, response.NewUpstreamStoreError("failed to list counts")
	}
	return records, nil
}

// UpdateQuantity edits a single record's quantity (admin). Negative values
// clamp to zero; ModifiedAt records the edit.
func (s *CountService) UpdateQuantity(kind string, id uint, quantity int) error {
	if quantity < 0 {
		quantity = 0
	}
	now := time.Now()
	updates := map[string]interface{}{"quantity": quantity, "modified_at": now}

	var tx *gorm.DB
	if kind == KindTransit {
		tx = s.db.Model(&models.TransitCountRecord{}).Where("id = ?", id).Updates(updates)
	} else {
		tx = s.db.Model(&models.CountRecord{}).Where("id = ?", id).Updates(updates)
	}
	if tx.Error != nil {
		return response.NewUpstreamStoreError("failed to update record")
	}
	if tx.RowsAffected == 0 {
		return response.NewNotFound("record not found")
	}
	return nil
}

// DeleteRecord removes a single record (admin).
func (s *CountService) DeleteRecord(kind string, id uint) error {
	var tx *gorm.DB
	if kind == KindTransit {
		tx = s.db.Delete(&models.TransitCountRecord{}, id)
	} else {
		tx = s.db.Delete(&models.CountRecord{}, id)
	}
	if tx.Error != nil {
		return response.NewUpstreamStoreError("failed to delete record")
	}
	if tx.RowsAffected == 0 {
		return response.NewNotFound("record not found")
	}
	return nil
}

// Cleanup types accepted by the bulk delete endpoint.
const (
	CleanupAll       = "all"
	CleanupInventory = "inventory"
	CleanupTransit   = "transit"
	CleanupCustom    = "custom"
)

// CleanupResult reports how many rows each table lost.
type CleanupResult struct {
	InventoryDeleted int64 `json:"inventory_deleted"`
	TransitDeleted   int64 `json:"transit_deleted"`
}

// Cleanup bulk-deletes count records (admin). Custom cleanup removes both
// kinds for a single store.
func (s *CountService) Cleanup(cleanupType string, storeID uint) (*CleanupResult, error) {
	result := &CleanupResult{}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		switch cleanupType {
		case CleanupAll:
			inv := tx.Where("1 = 1").Delete(&models.CountRecord{})
			if inv.Error != nil {
				return response.NewUpstreamStoreError("failed to delete count records")
			}
			result.InventoryDeleted = inv.RowsAffected

			trn := tx.Where("1 = 1").Delete(&models.TransitCountRecord{})
			if trn.Error != nil {
				return response.NewUpstreamStoreError("failed to delete transit records")
			}
			result.TransitDeleted = trn.RowsAffected
		case CleanupInventory:
			inv := tx.Where("1 = 1").Delete(&models.CountRecord{})
			if inv.Error != nil {
				return response.NewUpstreamStoreError("failed to delete count records")
			}
			result.InventoryDeleted = inv.RowsAffected
		case CleanupTransit:
			trn := tx.Where("1 = 1").Delete(&models.TransitCountRecord{})
			if trn.Error != nil {
				return response.NewUpstreamStoreError("failed to delete transit records")
			}
			result.TransitDeleted = trn.RowsAffected
		case CleanupCustom:
			if storeID == 0 {
				return response.NewInvalidInput("custom cleanup requires store_id")
			}
			inv := tx.Where("store_id = ?", storeID).Delete(&models.CountRecord{})
			if inv.Error != nil {
				return response.NewUpstreamStoreError("failed to delete count records")
			}
			result.InventoryDeleted = inv.RowsAffected

			trn := tx.Where("store_id = ?", storeID).Delete(&models.TransitCountRecord{})
			if trn.Error != nil {
				return response.NewUpstreamStoreError("failed to delete transit records")
			}
			result.TransitDeleted = trn.RowsAffected
		default:
			return response.NewInvalidInput("cleanup_type must be all, inventory, transit or custom")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("cleanup_type", cleanupType).
		Int64("inventory_deleted", result.InventoryDeleted).
		Int64("transit_deleted", result.TransitDeleted).
		Msg("cleanup executed")
	return result, nil
}

package models

import "time"

// Fixed primary key for the single-row configuration tables. Every read and
// write goes through this ID so there is never more than one row.
const SingletonID uint = 1

// Availability modes for the counting window.
const (
	ModeManual    = "manual"
	ModeAutomatic = "automatic"
)

// Store represents a physical location (loja) that submits exactly one
// inventory count. The list is a fixed reference set installed by seeding.
type Store struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	Name                 string    `gorm:"size:200;not null" json:"name"`
	Code                 string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	IsDistributionCenter bool      `gorm:"default:false" json:"is_distribution_center"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Asset represents a countable box type (ativo); fixed reference list.
type Asset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	Code      string    `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Active    bool      `gorm:"default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CountRecord is one counted line: a (store, asset) pair with a quantity.
// A full submission inserts one row per active asset in a single batch.
// The composite unique index backs the one-submission-per-store guarantee:
// two racing submissions cannot both land a complete batch.
type CountRecord struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StoreID        uint       `gorm:"uniqueIndex:idx_count_store_asset;index;not null" json:"store_id"`
	StoreName      string     `gorm:"size:200" json:"store_name"`
	SubmitterEmail string     `gorm:"size:255;not null" json:"submitter_email"`
	AssetID        uint       `gorm:"uniqueIndex:idx_count_store_asset;not null" json:"asset_id"`
	AssetName      string     `gorm:"size:200" json:"asset_name"`
	Quantity       int        `gorm:"not null;default:0" json:"quantity"`
	RecordedAt     time.Time  `gorm:"index" json:"recorded_at"`
	ModifiedAt     *time.Time `json:"modified_at"`
}

// TransitCountRecord mirrors CountRecord for the extra "transit" count phase
// offered to distribution centers. Separate table, independent guard.
type TransitCountRecord struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	StoreID        uint       `gorm:"uniqueIndex:idx_transit_store_asset;index;not null" json:"store_id"`
	StoreName      string     `gorm:"size:200" json:"store_name"`
	SubmitterEmail string     `gorm:"size:255;not null" json:"submitter_email"`
	AssetID        uint       `gorm:"uniqueIndex:idx_transit_store_asset;not null" json:"asset_id"`
	AssetName      string     `gorm:"size:200" json:"asset_name"`
	Quantity       int        `gorm:"not null;default:0" json:"quantity"`
	RecordedAt     time.Time  `gorm:"index" json:"recorded_at"`
	ModifiedAt     *time.Time `json:"modified_at"`
}

// SystemConfig is the single-row availability state: whether submissions are
// blocked, and whether that flag is managed manually or derived from the
// scheduled window. In automatic mode all four window fields must be set
// before the blocked flag can be derived.
type SystemConfig struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Mode            string    `gorm:"size:20;default:manual" json:"mode"` // manual, automatic
	Blocked         bool      `gorm:"default:false" json:"blocked"`
	WindowStartDate string    `gorm:"size:10" json:"window_start_date"` // 2006-01-02
	WindowStartTime string    `gorm:"size:5" json:"window_start_time"`  // 15:04
	WindowEndDate   string    `gorm:"size:10" json:"window_end_date"`
	WindowEndTime   string    `gorm:"size:5" json:"window_end_time"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// IntegrationConfig is the single-row state of the token-gated export API.
type IntegrationConfig struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Enabled         bool       `gorm:"default:false" json:"enabled"`
	Token           string     `gorm:"size:100" json:"-"`
	TokenMask       string     `gorm:"-" json:"token_mask"`
	ExpiresAt       *time.Time `json:"expires_at"`
	LastUsedAt      *time.Time `json:"last_used_at"`
	ConnectionCount int        `gorm:"default:0" json:"connection_count"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// WebhookConfig is the single-row outbound webhook target.
type WebhookConfig struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"size:500" json:"url"`
	Token     string    `gorm:"size:255" json:"-"`
	TokenSet  bool      `gorm:"-" json:"token_set"`
	Enabled   bool      `gorm:"default:false" json:"enabled"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IntegrationAccessLog is an append-only record of authorized reads of the
// integration export endpoint.
type IntegrationAccessLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Token     string    `gorm:"size:100" json:"token"`
	SourceIP  string    `gorm:"size:50" json:"source_ip"`
	UserAgent string    `gorm:"size:500" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName overrides
func (Store) TableName() string                { return "stores" }
func (Asset) TableName() string                { return "assets" }
func (CountRecord) TableName() string          { return "count_records" }
func (TransitCountRecord) TableName() string   { return "transit_count_records" }
func (SystemConfig) TableName() string         { return "system_config" }
func (IntegrationConfig) TableName() string    { return "integration_config" }
func (WebhookConfig) TableName() string        { return "webhook_config" }
func (IntegrationAccessLog) TableName() string { return "integration_access_logs" }

// MaskToken returns the integration token masked for display.
func (c *IntegrationConfig) MaskToken() string {
	if len(c.Token) <= 8 {
		return "****"
	}
	return c.Token[:4] + "****" + c.Token[len(c.Token)-4:]
}

// HasWindow reports whether all four window fields are present.
func (c *SystemConfig) HasWindow() bool {
	return c.WindowStartDate != "" && c.WindowStartTime != "" &&
		c.WindowEndDate != "" && c.WindowEndTime != ""
}

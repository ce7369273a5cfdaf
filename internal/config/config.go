package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Database    DatabaseConfig    `yaml:"database"`
	Admin       AdminConfig       `yaml:"admin"`
	JWT         JWTConfig         `yaml:"jwt"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Webhook     WebhookHTTPConfig `yaml:"webhook"`
	Integration IntegrationConfig `yaml:"integration"`
	Redis       RedisConfig       `yaml:"redis"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite, mysql, postgres
	DSN    string `yaml:"dsn"`
	// ReadOnlyDSN is a restricted credential used by the integration export
	// endpoint when set; the privileged DSN serves everything else.
	ReadOnlyDSN string `yaml:"readonly_dsn"`
}

// AdminConfig holds the shared admin secret. The secret may be either a
// plain value or a bcrypt hash. An empty secret makes every admin-gated
// endpoint fail closed.
type AdminConfig struct {
	Secret string `yaml:"secret"`
}

type JWTConfig struct {
	Secret     string `yaml:"secret"`
	ExpireHour int    `yaml:"expire_hour"`
}

type ScheduleConfig struct {
	// Timezone is the business timezone used for counting-window
	// comparisons, e.g. "America/Sao_Paulo".
	Timezone string `yaml:"timezone"`
	// ReconcileSpec is the cron spec for the availability reconciliation job.
	ReconcileSpec string `yaml:"reconcile_spec"`
}

// WebhookHTTPConfig controls outbound webhook delivery behavior. The target
// URL and token live in the database (WebhookConfig row), not here.
type WebhookHTTPConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

type IntegrationConfig struct {
	TokenTTLHours int `yaml:"token_ttl_hours"`
}

// RedisConfig for optional async webhook delivery queue
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

var GlobalConfig *Config

func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config.yaml"
	}

	var cfg *Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg = DefaultConfig()
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, err
		}

		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, err
		}
		cfg = &fileCfg
	}

	cfg.overrideFromEnv()
	cfg.applyDefaults()
	GlobalConfig = cfg
	return cfg, nil
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8080",
			Mode: "debug",
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "inventario.db",
		},
		JWT: JWTConfig{
			ExpireHour: 12,
		},
		Schedule: ScheduleConfig{
			Timezone:      "America/Sao_Paulo",
			ReconcileSpec: "* * * * *",
		},
		Webhook: WebhookHTTPConfig{
			TimeoutSeconds: 8,
		},
		Integration: IntegrationConfig{
			TokenTTLHours: 24,
		},
		Redis: RedisConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			DB:      0,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func (c *Config) overrideFromEnv() {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		c.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		c.Server.Port = port
	}
	if mode := os.Getenv("SERVER_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		c.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		c.Database.DSN = dsn
	}
	if dsn := os.Getenv("DB_READONLY_DSN"); dsn != "" {
		c.Database.ReadOnlyDSN = dsn
	}
	if secret := os.Getenv("ADMIN_SECRET"); secret != "" {
		c.Admin.Secret = secret
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		c.JWT.Secret = secret
	}
	if tz := os.Getenv("BUSINESS_TIMEZONE"); tz != "" {
		c.Schedule.Timezone = tz
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if timeout := os.Getenv("WEBHOOK_TIMEOUT_SECONDS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Webhook.TimeoutSeconds = secs
		}
	}
	// Redis URL override (format: redis://:password@host:port/db)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		c.Redis.Enabled = true
		c.parseRedisURL(redisURL)
	}
}

// applyDefaults fills zero values left by a partial config file.
func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Server.Host == "" {
		c.Server.Host = def.Server.Host
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Mode == "" {
		c.Server.Mode = def.Server.Mode
	}
	if c.Database.Driver == "" {
		c.Database.Driver = def.Database.Driver
	}
	if c.Database.DSN == "" {
		c.Database.DSN = def.Database.DSN
	}
	if c.JWT.ExpireHour <= 0 {
		c.JWT.ExpireHour = def.JWT.ExpireHour
	}
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = def.Schedule.Timezone
	}
	if c.Schedule.ReconcileSpec == "" {
		c.Schedule.ReconcileSpec = def.Schedule.ReconcileSpec
	}
	if c.Webhook.TimeoutSeconds <= 0 {
		c.Webhook.TimeoutSeconds = def.Webhook.TimeoutSeconds
	}
	if c.Integration.TokenTTLHours <= 0 {
		c.Integration.TokenTTLHours = def.Integration.TokenTTLHours
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

// parseRedisURL parses a Redis URL and sets config values
// Format: redis://:password@host:port/db
func (c *Config) parseRedisURL(redisURL string) {
	url := strings.TrimPrefix(redisURL, "redis://")

	if atIdx := strings.Index(url, "@"); atIdx != -1 {
		authPart := url[:atIdx]
		url = url[atIdx+1:]
		// Password format: :password or user:password
		if colonIdx := strings.Index(authPart, ":"); colonIdx != -1 {
			c.Redis.Password = authPart[colonIdx+1:]
		}
	}

	if slashIdx := strings.LastIndex(url, "/"); slashIdx != -1 {
		dbStr := url[slashIdx+1:]
		url = url[:slashIdx]
		if db, err := strconv.Atoi(dbStr); err == nil {
			c.Redis.DB = db
		}
	}

	c.Redis.Addr = url
}

func (c *Config) Save(configPath string) error {
	if configPath == "" {
		configPath = "config.yaml"
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

package config

import (
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Backend    BackendConfig    `yaml:"backend"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Session    SessionConfig    `yaml:"session"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Jobs       JobsConfig       `yaml:"jobs"`
	Notify     NotifyConfig     `yaml:"notify"`
	DevBackend DevBackendConfig `yaml:"dev_backend"`
}

// BackendConfig points at the rental REST API.
type BackendConfig struct {
	BaseURL           string `yaml:"base_url"`
	TimeoutSeconds    int    `yaml:"timeout_seconds"`
	EnrichConcurrency int    `yaml:"enrich_concurrency"`
}

// ServerConfig contains BFF HTTP server settings
type ServerConfig struct {
	Host         string `yaml:"host"`
	Port         int    `yaml:"port"`
	CookieName   string `yaml:"cookie_name"`
	CookieSecure bool   `yaml:"cookie_secure"`
}

// DatabaseConfig contains PostgreSQL connection settings for the session store
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

const (
	SessionStoreMemory   = "memory"
	SessionStoreFile     = "file"
	SessionStorePostgres = "postgres"
)

type SessionConfig struct {
	Store string `yaml:"store"` // "memory", "file" or "postgres"
	// FilePath is used by the file store and by rentalctl.
	FilePath string `yaml:"file_path"`
	// EncryptionKey is 64 hex characters; when set, tokens are sealed at rest.
	EncryptionKey string `yaml:"encryption_key"`
	TTLHours      int    `yaml:"ttl_hours"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	FlagOverdueBookings string `yaml:"flag_overdue_bookings"`
	DigestStaleDisputes string `yaml:"digest_stale_disputes"`
	PruneSessions       string `yaml:"prune_sessions"`
}

// JobsConfig holds the service account the sweep jobs log in with.
type JobsConfig struct {
	Email                  string `yaml:"email"`
	Password               string `yaml:"password"`
	OpsEmail               string `yaml:"ops_email"`
	OpenDisputeMaxAgeHours int    `yaml:"open_dispute_max_age_hours"`
}

type NotifyConfig struct {
	SendGridAPIKey string `yaml:"sendgrid_api_key"`
	FromEmail      string `yaml:"from_email"`
	FromName       string `yaml:"from_name"`
}

// DevBackendConfig configures the in-memory backend used for local runs.
type DevBackendConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	JWTSecret string `yaml:"jwt_secret"`
}

// Load reads configuration from a YAML file. A .env file in the working
// directory, when present, is applied to the environment first.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	if val := os.Getenv("BACKEND_BASE_URL"); val != "" {
		c.Backend.BaseURL = val
	}

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Server.Port)
	}

	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		fmt.Sscanf(val, "%d", &c.Database.Port)
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}
	if val := os.Getenv("DB_SSL_MODE"); val != "" {
		c.Database.SSLMode = val
	}

	// Session
	if val := os.Getenv("SESSION_STORE"); val != "" {
		c.Session.Store = val
	}
	if val := os.Getenv("SESSION_FILE"); val != "" {
		c.Session.FilePath = val
	}
	if val := os.Getenv("SESSION_ENCRYPTION_KEY"); val != "" {
		c.Session.EncryptionKey = val
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	if val := os.Getenv("SENDGRID_API_KEY"); val != "" {
		c.Notify.SendGridAPIKey = val
	}

	// Jobs
	if val := os.Getenv("JOBS_EMAIL"); val != "" {
		c.Jobs.Email = val
	}
	if val := os.Getenv("JOBS_PASSWORD"); val != "" {
		c.Jobs.Password = val
	}

	if val := os.Getenv("DEV_JWT_SECRET"); val != "" {
		c.DevBackend.JWTSecret = val
	}

	// Set defaults for log if not configured
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid and fills defaults
func (c *Config) Validate() error {
	// Backend validation
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("backend base_url must be an absolute http(s) URL: %q", c.Backend.BaseURL)
	}
	c.Backend.BaseURL = strings.TrimRight(c.Backend.BaseURL, "/")
	if c.Backend.TimeoutSeconds <= 0 {
		c.Backend.TimeoutSeconds = 15
	}
	if c.Backend.EnrichConcurrency <= 0 {
		c.Backend.EnrichConcurrency = 4
	}

	// Server validation
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.CookieName == "" {
		c.Server.CookieName = "camrent_session"
	}

	// Session validation
	switch c.Session.Store {
	case "":
		c.Session.Store = SessionStoreMemory
	case SessionStoreMemory, SessionStoreFile:
	case SessionStorePostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database host is required for the postgres session store")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database user is required for the postgres session store")
		}
		if c.Database.Database == "" {
			return fmt.Errorf("database name is required for the postgres session store")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}
	if c.Session.FilePath == "" {
		c.Session.FilePath = ".camrent-session.json"
	}
	if c.Session.EncryptionKey != "" {
		if _, err := c.Session.Key(); err != nil {
			return err
		}
	}
	if c.Session.TTLHours <= 0 {
		c.Session.TTLHours = 12
	}
	if c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	// Scheduler defaults
	if c.Scheduler.FlagOverdueBookings == "" {
		c.Scheduler.FlagOverdueBookings = "0 */15 * * * *" // every 15 minutes
	}
	if c.Scheduler.DigestStaleDisputes == "" {
		c.Scheduler.DigestStaleDisputes = "0 0 8 * * *" // 8 AM UTC
	}
	if c.Scheduler.PruneSessions == "" {
		c.Scheduler.PruneSessions = "0 30 * * * *" // hourly
	}

	if c.Jobs.OpenDisputeMaxAgeHours <= 0 {
		c.Jobs.OpenDisputeMaxAgeHours = 72
	}
	if c.Notify.FromName == "" {
		c.Notify.FromName = "CamRent"
	}

	if c.DevBackend.Port == 0 {
		c.DevBackend.Port = 5080
	}

	return nil
}

// Key decodes the session encryption key.
func (s SessionConfig) Key() (*[32]byte, error) {
	raw, err := hex.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("session encryption_key must be hex: %w", err)
	}
	if len(raw) != 32 {
		return nil, fmt.Errorf("session encryption_key must decode to 32 bytes, got %d", len(raw))
	}
	var key [32]byte
	copy(key[:], raw)
	return &key, nil
}

// GetDatabaseConnectionString returns a PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.Database.User),
		url.QueryEscape(c.Database.Password),
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the BFF listen address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDevBackendAddress() string {
	return fmt.Sprintf("%s:%d", c.DevBackend.Host, c.DevBackend.Port)
}

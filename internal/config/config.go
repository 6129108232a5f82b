package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Search    SearchConfig    `yaml:"search"`
	Security  SecurityConfig  `yaml:"security"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Cleanup   CleanupConfig   `yaml:"cleanup"`
	Listing   ListingConfig   `yaml:"listing"`
	Seed      SeedConfig      `yaml:"seed"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         string   `yaml:"port"`
	AllowOrigins []string `yaml:"allow_origins"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Type     string         `yaml:"type"`
	MySQL    MySQLConfig    `yaml:"mysql"`
	Postgres PostgresConfig `yaml:"postgres"`
	LogSQL   bool           `yaml:"log_sql"`
}

// MySQLConfig contains MySQL connection settings
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// PostgresConfig contains PostgreSQL connection settings
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// SearchConfig contains search engine settings
type SearchConfig struct {
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
}

// MeilisearchConfig contains Meilisearch connection settings. An empty host disables indexing.
type MeilisearchConfig struct {
	Host   string `yaml:"host"`
	APIKey string `yaml:"api_key"`
	Index  string `yaml:"index"`
}

// SecurityConfig holds the process secrets. They are passed to constructors explicitly.
type SecurityConfig struct {
	ContactEncryptionKey string `yaml:"contact_encryption_key"`
	JWTSecret            string `yaml:"jwt_secret"`
}

// RateLimitConfig throttles contact disclosures per buyer
type RateLimitConfig struct {
	Enabled              bool `yaml:"enabled"`
	DisclosuresPerMinute int  `yaml:"disclosures_per_minute"`
	Burst                int  `yaml:"burst"`
}

// SchedulerConfig contains cron settings
type SchedulerConfig struct {
	DailyRunEnabled bool   `yaml:"daily_run_enabled"`
	DailyRunTime    string `yaml:"daily_run_time"`
}

// CleanupConfig controls the admin-triggered purge of long-removed listings
type CleanupConfig struct {
	RetentionDays    int  `yaml:"retention_days"`
	MaxDeletionCount int  `yaml:"max_deletion_count"`
	DryRun           bool `yaml:"dry_run"`
}

// ListingConfig contains paging defaults for the read path
type ListingConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// SeedConfig controls the demo-data seeding routine
type SeedConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SellerID string `yaml:"seller_id"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	LogRequests bool   `yaml:"log_requests"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "3001",
			AllowOrigins: []string{"http://localhost:5173"},
		},
		Database: DatabaseConfig{
			Type: "mysql",
		},
		Search: SearchConfig{
			Meilisearch: MeilisearchConfig{Index: "listings"},
		},
		RateLimit: RateLimitConfig{
			Enabled:              true,
			DisclosuresPerMinute: 20,
			Burst:                5,
		},
		Scheduler: SchedulerConfig{
			DailyRunEnabled: true,
			DailyRunTime:    "02:00",
		},
		Cleanup: CleanupConfig{
			RetentionDays:    90,
			MaxDeletionCount: 1000,
		},
		Listing: ListingConfig{
			DefaultPageSize: 20,
			MaxPageSize:     100,
		},
		Seed: SeedConfig{
			Enabled:  false,
			SellerID: "admin-001",
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			LogRequests: true,
		},
	}
}

// LoadConfig loads configuration from a YAML file
func LoadConfig(filepath string) (*Config, error) {
	// Start with default config
	config := DefaultConfig()

	// If file doesn't exist, return default config
	if _, err := os.Stat(filepath); os.IsNotExist(err) {
		return config, nil
	}

	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides file values with environment variables when they are set.
func (c *Config) ApplyEnv() {
	setString(&c.Database.Type, "DB_TYPE")
	setString(&c.Search.Meilisearch.Host, "MEILISEARCH_HOST")
	setString(&c.Search.Meilisearch.APIKey, "MEILISEARCH_KEY")
	setString(&c.Security.ContactEncryptionKey, "CONTACT_ENCRYPTION_KEY")
	setString(&c.Security.JWTSecret, "JWT_SECRET")
	setString(&c.Server.Port, "PORT")

	switch c.Database.Type {
	case "postgres":
		setString(&c.Database.Postgres.Host, "DB_HOST")
		setInt(&c.Database.Postgres.Port, "DB_PORT")
		setString(&c.Database.Postgres.User, "DB_USER")
		setString(&c.Database.Postgres.Password, "DB_PASSWORD")
		setString(&c.Database.Postgres.Database, "DB_NAME")
	default:
		setString(&c.Database.MySQL.Host, "DB_HOST")
		setInt(&c.Database.MySQL.Port, "DB_PORT")
		setString(&c.Database.MySQL.User, "DB_USER")
		setString(&c.Database.MySQL.Password, "DB_PASSWORD")
		setString(&c.Database.MySQL.Database, "DB_NAME")
	}
}

// Validate checks the settings the service cannot start without.
func (c *Config) Validate() error {
	if c.Security.ContactEncryptionKey == "" {
		return errors.New("security.contact_encryption_key is required")
	}
	if c.Security.JWTSecret == "" {
		return errors.New("security.jwt_secret is required")
	}
	switch c.Database.Type {
	case "mysql", "postgres":
	default:
		return fmt.Errorf("unsupported database type %q", c.Database.Type)
	}
	if c.Listing.DefaultPageSize <= 0 || c.Listing.MaxPageSize < c.Listing.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.Listing.DefaultPageSize, c.Listing.MaxPageSize)
	}
	return nil
}

// DisclosureInterval returns the token refill interval for the disclosure limiter.
func (c *RateLimitConfig) DisclosureInterval() time.Duration {
	if c.DisclosuresPerMinute <= 0 {
		return time.Minute
	}
	return time.Minute / time.Duration(c.DisclosuresPerMinute)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

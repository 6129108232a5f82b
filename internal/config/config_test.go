package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverlaysFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.yaml")
	data := []byte(`
database:
  type: postgres
  postgres:
    host: pg
    port: 5433
security:
  contact_encryption_key: k
  jwt_secret: s
listing:
  default_page_size: 10
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, "pg", cfg.Database.Postgres.Host)
	assert.Equal(t, 5433, cfg.Database.Postgres.Port)
	assert.Equal(t, 10, cfg.Listing.DefaultPageSize)
	assert.Equal(t, 100, cfg.Listing.MaxPageSize, "unset keys keep defaults")
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("DB_TYPE", "mysql")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("CONTACT_ENCRYPTION_KEY", "key-from-env")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "db.internal", cfg.Database.MySQL.Host)
	assert.Equal(t, 3307, cfg.Database.MySQL.Port)
	assert.Equal(t, "from-env", cfg.Security.JWTSecret)
	assert.Equal(t, "key-from-env", cfg.Security.ContactEncryptionKey)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.Validate(), "secrets are required")

	cfg.Security.ContactEncryptionKey = "k"
	cfg.Security.JWTSecret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Database.Type = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestDisclosureInterval(t *testing.T) {
	rl := RateLimitConfig{DisclosuresPerMinute: 20}
	assert.Equal(t, 3*time.Second, rl.DisclosureInterval())

	rl.DisclosuresPerMinute = 0
	assert.Equal(t, time.Minute, rl.DisclosureInterval())
}

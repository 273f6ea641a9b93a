package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, DefaultDatabasePath, c.DatabasePath)
	assert.False(t, c.InMemory)
	assert.Equal(t, int64(5*1024*1024), c.StoreQuotaBytes)
	assert.Equal(t, int64(4*1024*1024), c.MaxVaultBytes)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
}

func TestLoadConfig_UsesDefaultsBeforeParsing(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })
	os.Args = []string{"diary"}

	cfg := LoadConfig()

	require.NotNil(t, cfg, "LoadConfig must not return nil")
	assert.Equal(t, DefaultDatabasePath, cfg.DatabasePath)
	assert.Equal(t, int64(DefaultStoreQuotaBytes), cfg.StoreQuotaBytes)
}

func TestLoadConfig_Precedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := writeTempJSON(t, "", "", map[string]any{
		"database_path":   "from-json.db",
		"log_level":       "info",
		"max_vault_bytes": 1000,
	})
	t.Setenv("DIARY_LOG_LEVEL", "debug")
	t.Setenv("DIARY_MAX_VAULT_BYTES", "2000")

	os.Args = []string{"diary", "-c", path, "-s", "3000"}

	cfg := LoadConfig()

	assert.Equal(t, "from-json.db", cfg.DatabasePath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, int64(3000), cfg.MaxVaultBytes)
}

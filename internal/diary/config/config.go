package config

// Config holds runtime settings for the diary CLI.
//
// Fields:
//   - DatabasePath: SQLite file backing the key/value store.
//   - InMemory: use a throwaway in-memory store instead of the file.
//   - StoreQuotaBytes: total capacity of the key/value area (<= 0 means unlimited).
//   - MaxVaultBytes: soft per-user ceiling checked before a vault write.
//   - LogLevel / LogFormat: see internal/logging.New.
type Config struct {
	DatabasePath    string
	InMemory        bool
	StoreQuotaBytes int64
	MaxVaultBytes   int64
	LogLevel        string
	LogFormat       string
}

const (
	DefaultDatabasePath    = "diary.db"
	DefaultStoreQuotaBytes = 5 * 1024 * 1024
	DefaultMaxVaultBytes   = 4 * 1024 * 1024
)

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DatabasePath = DefaultDatabasePath
	c.InMemory = false
	c.StoreQuotaBytes = DefaultStoreQuotaBytes
	c.MaxVaultBytes = DefaultMaxVaultBytes
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present), the environment and command-line flags. Later sources
// take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseEnv(cfg, nil)
	parseFlags(cfg)
	return cfg
}

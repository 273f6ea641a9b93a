package config

import (
	"context"

	"github.com/sethvargo/go-envconfig"
)

// envConfig mirrors the DIARY_* environment variables.
type envConfig struct {
	DatabasePath    string `env:"DIARY_DB_PATH"`
	InMemory        bool   `env:"DIARY_IN_MEMORY"`
	StoreQuotaBytes int64  `env:"DIARY_STORE_QUOTA_BYTES"`
	MaxVaultBytes   int64  `env:"DIARY_MAX_VAULT_BYTES"`
	LogLevel        string `env:"DIARY_LOG_LEVEL"`
	LogFormat       string `env:"DIARY_LOG_FORMAT"`
}

// parseEnv overlays cfg with DIARY_* variables. A nil lookuper reads the
// process environment. Malformed values panic, like the other layers.
func parseEnv(cfg *Config, lookuper envconfig.Lookuper) {
	if lookuper == nil {
		lookuper = envconfig.OsLookuper()
	}

	var ec envConfig
	if err := envconfig.ProcessWith(context.Background(), &envconfig.Config{
		Target:   &ec,
		Lookuper: lookuper,
	}); err != nil {
		panic(err)
	}

	JsonConfig(ec).apply(cfg)
}

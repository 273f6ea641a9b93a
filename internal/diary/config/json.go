package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/diarykeeper/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// mean "not set" and leave the current value untouched.
type JsonConfig struct {
	DatabasePath    string `json:"database_path"`
	InMemory        bool   `json:"in_memory"`
	StoreQuotaBytes int64  `json:"store_quota_bytes"`
	MaxVaultBytes   int64  `json:"max_vault_bytes"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`
}

// parseJson overlays cfg with values from the JSON file named by -c or
// -config. Without either flag nothing is loaded. Read or unmarshal errors
// panic; the caller decides whether to recover.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc JsonConfig) apply(cfg *Config) {
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.InMemory {
		cfg.InMemory = true
	}
	if jc.StoreQuotaBytes != 0 {
		cfg.StoreQuotaBytes = jc.StoreQuotaBytes
	}
	if jc.MaxVaultBytes != 0 {
		cfg.MaxVaultBytes = jc.MaxVaultBytes
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFormat != "" {
		cfg.LogFormat = jc.LogFormat
	}
}

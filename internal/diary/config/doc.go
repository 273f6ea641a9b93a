// Package config loads runtime configuration for the diary CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. DIARY_* environment variables (sethvargo/go-envconfig).
//  4. Command-line flags, which override everything else.
//
// # JSON schema
//
//	{
//	  "database_path": "data/diary.db",
//	  "store_quota_bytes": 5242880,
//	  "max_vault_bytes": 4194304,
//	  "log_level": "info",
//	  "log_format": "json"
//	}
//
// Malformed input in any layer panics; cmd/diary lets that terminate the
// process before the store is opened.
package config

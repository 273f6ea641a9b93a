package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/diarykeeper/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags:
//
//	-d string   path of the SQLite store file
//	-m          use an in-memory store (nothing is persisted)
//	-q int      store quota in bytes
//	-s int      per-user vault size ceiling in bytes
//	-l string   log level (debug, info, warn, error)
//	-f string   log format (text, json)
//
// Only these flags are parsed out of os.Args (see flagx.FilterArgs), so the
// -c flag handled by parseJson does not interfere.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-m", "-q", "-s", "-l", "-f"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path of the diary store file")
	fs.BoolVar(&cfg.InMemory, "m", cfg.InMemory, "use an in-memory store")
	fs.Int64Var(&cfg.StoreQuotaBytes, "q", cfg.StoreQuotaBytes, "store quota in bytes")
	fs.Int64Var(&cfg.MaxVaultBytes, "s", cfg.MaxVaultBytes, "per-user vault size ceiling in bytes")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogFormat, "f", cfg.LogFormat, "log format (text or json)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}

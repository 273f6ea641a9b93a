// Package cli provides the interactive diary command-line client.
//
// It wires configuration, the local key/value store and the diary services
// into a REPL. Typical flow: pick or create a profile, log in with its
// secret code, write entries, and export or import password-protected
// backups.
//
// Commands:
//   - profiles, create, login <name>, logout, forgot, delete-profile
//   - list [YYYY-MM[-DD]], write [ruled|plain], edit <id>, show <id>,
//     attach <id> <image>
//   - export [file], export-all [file], import <file> [merge|replace]
//   - usage, help, exit | quit
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli

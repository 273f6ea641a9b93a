// Package services contains the diary's application services.
//
//   - EntryVault: per-user encrypted entry collections.
//   - UserRegistry: the profile list and passcode reset.
//   - BackupCodec: export, password wrapping and parsing of backup files.
//   - MergeEngine: applies a backup to the device in replace or merge mode.
//   - ResetFlow: the forgotten-passcode state machine.
//
// Everything persists through a kv.Store. Read paths degrade to empty
// results and log the cause; write paths return errors.
package services

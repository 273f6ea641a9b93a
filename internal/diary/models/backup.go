package models

import "time"

// BackupVersion is written into every exported backup.
const BackupVersion = "1.0.0"

// BackupData is the plain backup payload. Version, Users and Entries must be
// present; an empty list counts as present, a missing key does not.
type BackupData struct {
	Version    string       `json:"version" validate:"required"`
	ExportDate time.Time    `json:"exportDate"`
	Users      []User       `json:"users" validate:"required"`
	Entries    []DiaryEntry `json:"entries" validate:"required"`
	Encrypted  bool         `json:"encrypted,omitempty"`
}

// Envelope is the on-disk form of a password-protected backup. Data holds
// the cipher output of the serialized BackupData.
type Envelope struct {
	Version   string `json:"version"`
	Encrypted bool   `json:"encrypted"`
	Data      string `json:"data"`
}

// ImportMode selects how a backup is applied to the device.
type ImportMode string

const (
	ImportReplace ImportMode = "replace"
	ImportMerge   ImportMode = "merge"
)

// ParseImportMode maps user input to an ImportMode; empty input means merge.
func ParseImportMode(s string) (ImportMode, bool) {
	switch ImportMode(s) {
	case "", ImportMerge:
		return ImportMerge, true
	case ImportReplace:
		return ImportReplace, true
	}
	return "", false
}

// ImportResult summarizes an import.
type ImportResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	ImportedUsers   int    `json:"importedUsers"`
	ImportedEntries int    `json:"importedEntries"`
}

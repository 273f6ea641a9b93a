// Package common contains shared constants and sentinel errors used across
// diarykeeper components.
package common

// Store key layout. Both families live in the same key/value area.
const (
	// UsersKey holds the cipher output of the JSON array of all users.
	UsersKey = "diary_users"

	// EntriesKeyPrefix is followed by a user id; the value is the cipher
	// output of that user's JSON array of diary entries.
	EntriesKeyPrefix = "diary_entries_"
)

// EntriesKey returns the vault key for the given user.
func EntriesKey(userID string) string {
	return EntriesKeyPrefix + userID
}

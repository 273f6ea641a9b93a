// Package common defines shared constants and sentinel errors used across
// the store, services and CLI layers. Callers should use errors.Is to match
// these values.
package common

import (
	"errors"
	"fmt"
)

// Cipher and decoding errors.
var (
	// ErrDecryptionFailed indicates the ciphertext is structurally malformed.
	// A wrong key does not produce this error; it yields garbage instead.
	ErrDecryptionFailed = errors.New("failed to decrypt data")

	// ErrEmptyKey indicates an empty cipher key was supplied.
	ErrEmptyKey = errors.New("cipher key must not be empty")

	// ErrInvalidFormat indicates a backup is missing version, users or entries.
	ErrInvalidFormat = errors.New("invalid backup file format")

	// ErrIncorrectPasswordOrCorrupt is the single user-facing condition for a
	// wrapped backup that could not be decrypted or parsed.
	ErrIncorrectPasswordOrCorrupt = errors.New("failed to decrypt backup: incorrect password or corrupted file")

	// ErrPasswordRequired indicates an encrypted backup was opened without a password.
	ErrPasswordRequired = errors.New("please enter the backup password")

	// ErrWeakPassword indicates a backup password is shorter than the minimum.
	ErrWeakPassword = errors.New("password must be at least 4 characters long")
)

// Storage errors.
var (
	// ErrQuotaExceeded indicates the key/value area has no room for the write.
	ErrQuotaExceeded = errors.New("storage quota exceeded")

	// ErrTooLarge indicates a vault exceeds the per-user soft ceiling.
	ErrTooLarge = errors.New("diary is too large to save")

	// ErrStoreUnavailable indicates the key/value area could not be read.
	ErrStoreUnavailable = errors.New("storage is unavailable")
)

// User errors.
var (
	// ErrUserNotFound indicates the user id is not in the registry.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidSecret indicates the secret code does not match.
	ErrInvalidSecret = errors.New("invalid secret code")

	// ErrPasscodeResetRequired indicates the profile was imported without a
	// secret code and must go through the reset flow first.
	ErrPasscodeResetRequired = errors.New("passcode reset required")

	// ErrInvalidResetStep indicates a reset flow call made out of order.
	ErrInvalidResetStep = errors.New("invalid passcode reset step")

	// ErrSecurityAnswerMismatch indicates a wrong answer during passcode reset.
	ErrSecurityAnswerMismatch = errors.New("incorrect security answer")

	// ErrValidation indicates a model failed validation.
	ErrValidation = errors.New("validation error")
)

// QuotaError carries the store usage estimate for a rejected write.
type QuotaError struct {
	Key      string
	Required int64
	Usage    int64
	Quota    int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: writing %q needs %d bytes, store uses about %d of %d bytes",
		ErrQuotaExceeded, e.Key, e.Required, e.Usage, e.Quota)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// TooLargeError reports a vault rejected by the pre-flight size check.
type TooLargeError struct {
	UserID string
	Size   int64
	Limit  int64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds the %d byte limit", ErrTooLarge, e.Size, e.Limit)
}

func (e *TooLargeError) Unwrap() error { return ErrTooLarge }

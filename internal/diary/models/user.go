// Package models defines the diary data model: users, entries and backups.
package models

import (
	"strings"
	"time"
)

// PlaceholderSecret marks a user imported without a secret code. Such a
// profile cannot log in until the passcode reset flow assigns a real secret.
const PlaceholderSecret = "__NEEDS_PASSCODE_RESET__"

// MinSecretLength is the shortest accepted secret code or backup password.
const MinSecretLength = 4

// User is a local profile. Name is not unique; ID is.
type User struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	SecretCode       string    `json:"secretCode"`
	Avatar           string    `json:"avatar"`
	CreatedAt        time.Time `json:"createdAt"`
	SecurityQuestion string    `json:"securityQuestion"`
	SecurityAnswer   string    `json:"securityAnswer"`
}

// NeedsPasscodeReset reports whether the user holds no usable secret.
func (u User) NeedsPasscodeReset() bool {
	return u.SecretCode == "" || u.SecretCode == PlaceholderSecret
}

// MatchesName compares names the way profile lookup does: trimmed and
// case-insensitive.
func (u User) MatchesName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(u.Name), strings.TrimSpace(name))
}

// MatchesAnswer compares a security answer trimmed and case-insensitively.
func (u User) MatchesAnswer(answer string) bool {
	return strings.EqualFold(strings.TrimSpace(u.SecurityAnswer), strings.TrimSpace(answer))
}

// NewUser is the input for profile creation.
type NewUser struct {
	Name             string `validate:"required"`
	SecretCode       string `validate:"required,min=4"`
	Avatar           string
	SecurityQuestion string `validate:"required"`
	SecurityAnswer   string `validate:"required"`
}

// Normalize trims surrounding whitespace from the free-text fields.
func (n NewUser) Normalize() NewUser {
	n.Name = strings.TrimSpace(n.Name)
	n.SecurityQuestion = strings.TrimSpace(n.SecurityQuestion)
	n.SecurityAnswer = strings.TrimSpace(n.SecurityAnswer)
	return n
}

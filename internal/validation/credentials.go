package validation

import (
	"errors"
	"net/mail"
	"strings"
	"unicode/utf8"
)

var (
	ErrEmailRequired = errors.New("email address is required")
	ErrEmailInvalid  = errors.New("invalid email address format")
	ErrEmailTooLong  = errors.New("email address is too long (max 254 characters)")

	ErrPasswordTooShort = errors.New("password must be at least 12 characters")
	ErrPasswordTooLong  = errors.New("password must not exceed 72 bytes")
	ErrPasswordCommon   = errors.New("password is too common, please choose a stronger one")

	ErrNameTooLong = errors.New("name is too long (max 100 characters)")
)

// Substrings that make a password trivially guessable
var commonPasswordPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidateEmail accepts a bare RFC 5322 address, e.g. "ana@example.com".
// Display-name forms such as "Ana <ana@example.com>" are rejected.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	// RFC 5321 path limit
	if len(email) > 254 {
		return ErrEmailTooLong
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return ErrEmailInvalid
	}

	return nil
}

// ValidatePassword enforces 12 characters minimum and the 72 byte bcrypt input limit.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < 12 {
		return ErrPasswordTooShort
	}

	// bcrypt silently ignores everything past 72 bytes
	if len(password) > 72 {
		return ErrPasswordTooLong
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lower, pattern) {
			return ErrPasswordCommon
		}
	}

	return nil
}

// ValidateName checks the optional display name. Empty is allowed.
func ValidateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > 100 {
		return ErrNameTooLong
	}
	return nil
}

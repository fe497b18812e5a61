package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		email string
		want  error
	}{
		{email: "ana@example.com", want: nil},
		{email: "ana+memos@sub.example.com", want: nil},
		{email: "", want: ErrEmailRequired},
		{email: "not-an-email", want: ErrEmailInvalid},
		{email: "Ana <ana@example.com>", want: ErrEmailInvalid},
		{email: strings.Repeat("a", 250) + "@example.com", want: ErrEmailTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.ErrorIs(t, ValidateEmail(tt.email), tt.want)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     error
	}{
		{name: "ok", password: "correct horse battery", want: nil},
		{name: "short", password: "short", want: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("x", 73), want: ErrPasswordTooLong},
		{name: "common", password: "MyPassword-is-long", want: ErrPasswordCommon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, ValidatePassword(tt.password), tt.want)
		})
	}
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName(""))
	assert.NoError(t, ValidateName("Ana"))
	assert.ErrorIs(t, ValidateName(strings.Repeat("n", 101)), ErrNameTooLong)
}

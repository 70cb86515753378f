package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// User Creation Tests
// =============================================================================

func TestNewUser_ValidInput(t *testing.T) {
	user, err := NewUser("trainee@example.com", "Alex Trainee", "$2a$10$hash")
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "trainee@example.com", user.Email)
	assert.Equal(t, "Alex Trainee", user.FullName)
	assert.False(t, user.Disabled)
	assert.NotZero(t, user.CreatedAt)
	assert.NotZero(t, user.UpdatedAt)
}

func TestNewUser_NormalizesEmail(t *testing.T) {
	user, err := NewUser("  Trainee@Example.COM ", "", "$2a$10$hash")
	require.NoError(t, err)

	assert.Equal(t, "trainee@example.com", user.Email)
}

func TestNewUser_InvalidEmail(t *testing.T) {
	_, err := NewUser("not-an-email", "", "$2a$10$hash")
	assert.ErrorIs(t, err, ErrEmailInvalid)
}

func TestCheckActive(t *testing.T) {
	user := &User{Disabled: false}
	assert.NoError(t, user.CheckActive())

	user.Disabled = true
	assert.ErrorIs(t, user.CheckActive(), ErrUserDisabled)
}

// =============================================================================
// Email Validation Tests
// =============================================================================

func TestValidateEmail_Empty(t *testing.T) {
	assert.ErrorIs(t, ValidateEmail(""), ErrEmailRequired)
}

func TestValidateEmail_Invalid(t *testing.T) {
	testCases := []string{
		"plain",
		"missing-at.example.com",
		"no-domain@",
		"@no-local.com",
		"no-tld@example",
	}
	for _, email := range testCases {
		t.Run(email, func(t *testing.T) {
			assert.ErrorIs(t, ValidateEmail(email), ErrEmailInvalid)
		})
	}
}

func TestValidateEmail_Valid(t *testing.T) {
	testCases := []string{
		"trainee@example.com",
		"first.last+tag@sub.example.co",
		"u_1@example.io",
	}
	for _, email := range testCases {
		t.Run(email, func(t *testing.T) {
			assert.NoError(t, ValidateEmail(email))
		})
	}
}

// =============================================================================
// Password Validation Tests
// =============================================================================

func TestValidatePassword_Empty(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword(""), ErrPasswordRequired)
}

func TestValidatePassword_TooShort(t *testing.T) {
	assert.ErrorIs(t, ValidatePassword("1234567"), ErrPasswordTooShort)
}

func TestValidatePassword_Valid(t *testing.T) {
	assert.NoError(t, ValidatePassword("12345678"))
}

// Package domain contains the core domain types and validation logic.
// This is part of the Functional Core - all functions are pure with no I/O.
package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Errors
// =============================================================================

var (
	// Email validation errors
	ErrEmailRequired = errors.New("email is required")
	ErrEmailInvalid  = errors.New("email is not a valid address")

	// Password validation errors
	ErrPasswordRequired = errors.New("password is required")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")

	// Account state errors
	ErrUserDisabled = errors.New("user account is disabled")
)

// =============================================================================
// User
// =============================================================================

// User represents a registered account.
// HashedPassword is a bcrypt hash; the plaintext never appears in domain types.
type User struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name,omitempty"`
	HashedPassword string    `json:"-"`
	Disabled       bool      `json:"disabled"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a new user with the given email and bcrypt password hash.
// Returns an error if validation fails.
func NewUser(email, fullName, hashedPassword string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &User{
		ID:             "usr_" + uuid.New().String()[:8],
		Email:          NormalizeEmail(email),
		FullName:       fullName,
		HashedPassword: hashedPassword,
		Disabled:       false,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// CheckActive returns an error if the user is disabled.
func (u *User) CheckActive() error {
	if u.Disabled {
		return ErrUserDisabled
	}
	return nil
}

// =============================================================================
// Validation Functions (Pure)
// =============================================================================

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidateEmail validates an email address.
func ValidateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !emailRegex.MatchString(email) {
		return ErrEmailInvalid
	}
	return nil
}

// NormalizeEmail lowercases and trims an email address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePassword validates a plaintext password before hashing.
func ValidatePassword(password string) error {
	if password == "" {
		return ErrPasswordRequired
	}
	if len(password) < 8 {
		return ErrPasswordTooShort
	}
	return nil
}

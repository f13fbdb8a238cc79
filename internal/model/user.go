package model

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// User is a participant who lists and borrows items.
type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	Rating        float64   `json:"rating"`
	Reviews       int       `json:"reviews"`
	ItemsShared   int       `json:"items_shared"`
	ItemsBorrowed int       `json:"items_borrowed"`
	Location      string    `json:"location"`
	Bio           string    `json:"bio"`
	JoinedDate    string    `json:"joined_date"`
	CreatedAt     time.Time `json:"created_at"`
}

// Roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Profile defaults for new accounts.
const (
	DefaultLocation = "Not specified"
	DefaultBio      = "New to BORROW"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// RoleAtLeast checks if role meets or exceeds the minimum required role.
func RoleAtLeast(role, minimum string) bool {
	levels := map[string]int{
		RoleAdmin: 2,
		RoleUser:  1,
	}
	return levels[role] >= levels[minimum] && levels[minimum] > 0
}

// ValidatePassword checks password requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	return nil
}

// NormalizeEmail lowercases and trims an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare address.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: invalid email address", ErrInvalidInput)
	}
	return nil
}

// JoinedDate formats an account creation time the way profiles display it.
func JoinedDate(t time.Time) string {
	return t.Format("Jan 2006")
}

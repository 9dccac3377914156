package domain

import (
	"strings"
	"time"

	"github.com/spec-kit/registration-portal/internal/crypto"
)

// Role enumerates portal operator roles. The set is closed: tokens carrying
// anything else are rejected at verification time.
type Role string

const (
	RoleInstructor        Role = "instructor"
	RoleFinance           Role = "finance"
	RoleManagement        Role = "management"
	RoleRegistrationAdmin Role = "registration_admin"
)

// ParseRole normalizes and validates a caller-supplied role string.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	switch role {
	case RoleInstructor, RoleFinance, RoleManagement, RoleRegistrationAdmin:
		return role, true
	}
	return "", false
}

// User is an operator identity. Email is held encrypted at rest with a
// companion lookup hash for equality search. Rows are deactivated, never
// deleted, while login history references them.
type User struct {
	ID           string
	Username     string
	FullName     string
	Email        crypto.EncryptedField
	EmailHash    crypto.LookupHash
	PasswordHash string
	Role         Role
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

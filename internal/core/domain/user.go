package domain

import (
	"strings"
	"time"
)

// Role values stored in the role collection.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// ProfileStatus is the account-activation state kept on a user's profile.
type ProfileStatus string

const (
	StatusPending ProfileStatus = "pendente"
	StatusActive  ProfileStatus = "ativo"
	StatusBlocked ProfileStatus = "bloqueado"
)

// ParseProfileStatus accepts the stored values and their English aliases.
func ParseProfileStatus(s string) (ProfileStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(StatusPending), "pending":
		return StatusPending, nil
	case string(StatusActive), "active":
		return StatusActive, nil
	case string(StatusBlocked), "blocked":
		return StatusBlocked, nil
	}
	return "", ErrInvalidStatus
}

// Identity is the identity provider's user record. Read-only for the vault.
type Identity struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	EmailConfirmedAt *time.Time `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Credentials is the identity provider's private view of a user, including the
// password hash and any pending email change.
type Credentials struct {
	Identity
	PasswordHash string
	PendingEmail string
}

// Profile carries the account status of one identity.
type Profile struct {
	ID        string        `json:"id"`
	Status    ProfileStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// RoleAssignment grants a role to one identity. A missing row means RoleUser.
type RoleAssignment struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserUpdate is a change request for the signed-in identity. Nil fields are
// left untouched.
type UserUpdate struct {
	Email    *string
	Password *string
}

// ManagedUser is the admin screens' join of a profile with its identity.
type ManagedUser struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Status    ProfileStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

package models

import (
	"time"
)

// Role is the coarse access level attached to an auth token
type Role string

const (
	RoleAthlete   Role = "athlete"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// AuthToken is a bearer token row. Tokens are provisioned externally; the
// service only reads them.
type AuthToken struct {
	Token      string     `json:"-"` // never serialize
	UserID     string     `json:"user_id"`
	Role       Role       `json:"role"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// MaskedToken returns a short prefix for safe logging
func (t *AuthToken) MaskedToken() string {
	if len(t.Token) < 8 {
		return "***"
	}
	return t.Token[:8] + "..."
}

// AuthUser is the authenticated caller attached to the request context
type AuthUser struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the caller has the admin role
func (u *AuthUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanManage reports whether the caller may review participants and edit
// the given competition: its organizer, or an admin
func (u *AuthUser) CanManage(c *Competition) bool {
	if u == nil || c == nil {
		return false
	}
	return u.IsAdmin() || c.OrganizerID == u.UserID
}

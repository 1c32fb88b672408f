package models

import (
	"fmt"
	"strings"
	"time"
)

// Role is the canonical role enumeration. Boundary adapters must normalize
// incoming role strings with NormalizeRole; nothing downstream handles
// alternate spellings.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
	RoleUser      Role = "user"
	RoleAgent     Role = "agent"
)

// NormalizeRole maps the role spellings seen at the boundary ("super_user",
// mixed case) onto the canonical enumeration. Unrecognized strings are an
// error, never a permissive default.
func NormalizeRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "admin":
		return RoleAdmin, nil
	case "superuser", "super_user":
		return RoleSuperuser, nil
	case "user":
		return RoleUser, nil
	case "agent":
		return RoleAgent, nil
	default:
		return "", fmt.Errorf("unrecognized role %q", raw)
	}
}

// User represents an account in the reporting program
type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	Name         string    `json:"name" db:"name"`
	Role         Role      `json:"role" db:"role"`
	SiteIDs      []string  `json:"site_ids" db:"-"` // Stored in user_sites join table
	Active       bool      `json:"active" db:"active"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Actor is the authenticated principal attached to a request by the auth
// middleware. Site assignment restricts visibility only; validation rights
// are role-based.
type Actor struct {
	UserID  string
	Role    Role
	SiteIDs []string
}

// CanSee reports whether the actor may view data for the given site.
// Admins see every site regardless of assignment.
func (a *Actor) CanSee(siteID string) bool {
	if a.Role == RoleAdmin {
		return true
	}
	for _, id := range a.SiteIDs {
		if id == siteID {
			return true
		}
	}
	return false
}

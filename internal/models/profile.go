package models

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Role string

// Profile roles
const (
	RoleClient    Role = "client"
	RoleAdmin     Role = "admin"
	RoleDeveloper Role = "developer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleAdmin, RoleDeveloper:
		return true
	}
	return false
}

// Label is the human readable role name shown on the dashboard.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrator"
	case RoleDeveloper:
		return "Developer"
	case RoleClient:
		return "Client"
	default:
		return "Unknown"
	}
}

// Profile is the account record kept for every identity. ID always equals the
// owning identity's ID.
type Profile struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	FullName    *string   `json:"full_name"`
	AvatarURL   *string   `json:"avatar_url"`
	CompanyName *string   `json:"company_name"`
	Phone       *string   `json:"phone"`
	Role        Role      `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProfileUpdate is a partial profile write. A nil field is left untouched, a
// pointer to "" clears the column.
type ProfileUpdate struct {
	FullName    *string `json:"full_name,omitempty"`
	CompanyName *string `json:"company_name,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

func (u ProfileUpdate) IsEmpty() bool {
	return u.FullName == nil && u.CompanyName == nil && u.Phone == nil && u.AvatarURL == nil
}

func (p *Profile) HasRole(role Role) bool {
	return p != nil && p.Role == role
}

func (p *Profile) HasAnyRole(roles ...Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

func (p *Profile) IsAdmin() bool {
	return p.HasRole(RoleAdmin)
}

// HasAdminAccess reports whether the profile may use the back-office endpoints.
func (p *Profile) HasAdminAccess() bool {
	return p.HasAnyRole(RoleAdmin, RoleDeveloper)
}

func (p *Profile) IsComplete() bool {
	if p == nil {
		return false
	}
	return !blank(p.FullName) && strings.TrimSpace(p.Email) != ""
}

// Completion returns the share of filled-in contact fields as a percentage.
func (p *Profile) Completion() int {
	if p == nil {
		return 0
	}
	email := p.Email
	fields := []*string{p.FullName, &email, p.CompanyName, p.Phone, p.AvatarURL}
	filled := 0
	for _, f := range fields {
		if !blank(f) {
			filled++
		}
	}
	return int(math.Round(float64(filled) / float64(len(fields)) * 100))
}

// DisplayName prefers the profile's full name, then the identity's email.
func DisplayName(identity *Identity, profile *Profile) string {
	if identity == nil {
		return "Guest"
	}
	if profile != nil && !blank(profile.FullName) {
		return *profile.FullName
	}
	if identity.Email != "" {
		return identity.Email
	}
	return "Unknown User"
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

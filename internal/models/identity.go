package models

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the auth service's user record. This system never writes it.
type Identity struct {
	ID           uuid.UUID      `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

func (i *Identity) FullName() string {
	return i.metadataString("full_name")
}

func (i *Identity) CompanyName() string {
	return i.metadataString("company_name")
}

func (i *Identity) metadataString(key string) string {
	if i == nil || i.UserMetadata == nil {
		return ""
	}
	if v, ok := i.UserMetadata[key].(string); ok {
		return v
	}
	return ""
}

// Session is a time-bounded proof of authentication issued by the auth service.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	ExpiresAt    int64     `json:"expires_at"`
	User         *Identity `json:"user"`
}

// Expired reports whether the access token expires within margin of now.
func (s *Session) Expired(now time.Time, margin time.Duration) bool {
	if s == nil || s.ExpiresAt == 0 {
		return false
	}
	return !now.Add(margin).Before(time.Unix(s.ExpiresAt, 0))
}

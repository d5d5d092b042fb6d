package dto

import (
	"time"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

type SignUpRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FullName        string `json:"full_name"`
	CompanyName     string `json:"company_name"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordChangeRequest is used both to finish a password reset and to change
// the password from the account page.
type PasswordChangeRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type AuthResponse struct {
	User    *UserResponse    `json:"user"`
	Session *TokenResponse   `json:"session"`
	Profile *ProfileResponse `json:"profile,omitempty"`
	// ConfirmationRequired is set when sign-up succeeded but the e-mail
	// address must be confirmed before a session is issued.
	ConfirmationRequired bool `json:"confirmation_required,omitempty"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func NewTokenResponse(s *models.Session) *TokenResponse {
	if s == nil {
		return nil
	}
	return &TokenResponse{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		ExpiresAt:    s.ExpiresAt,
	}
}

func NewUserResponse(i *models.Identity) *UserResponse {
	if i == nil {
		return nil
	}
	resp := &UserResponse{ID: i.ID, Email: i.Email}
	if !i.CreatedAt.IsZero() {
		created := i.CreatedAt
		resp.CreatedAt = &created
	}
	return resp
}

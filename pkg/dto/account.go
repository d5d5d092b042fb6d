package dto

import "github.com/dimitrije/adme-site/internal/models"

type UpdateProfileRequest struct {
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
	Phone       *string `json:"phone"`
	AvatarURL   *string `json:"avatar_url"`
}

type ProfileResponse struct {
	*models.Profile
	RoleLabel  string `json:"role_label"`
	Completion int    `json:"completion"`
	IsComplete bool   `json:"is_complete"`
}

type AccountResponse struct {
	User        *UserResponse    `json:"user"`
	Profile     *ProfileResponse `json:"profile"`
	DisplayName string           `json:"display_name"`
	IsAdmin     bool             `json:"is_admin"`
	// Session is only set when the tokens were refreshed during the request.
	Session *TokenResponse `json:"session,omitempty"`
}

func NewProfileResponse(p *models.Profile) *ProfileResponse {
	if p == nil {
		return nil
	}
	return &ProfileResponse{
		Profile:    p,
		RoleLabel:  p.Role.Label(),
		Completion: p.Completion(),
		IsComplete: p.IsComplete(),
	}
}

// ErrorResponse is the body of every non-2xx reply written by the handlers.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

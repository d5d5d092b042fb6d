package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

const tableProfiles = "profiles"

type ProfileStore struct {
	client *Client
}

func NewProfileStore(client *Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := s.client.do(ctx, request{
		op:     "profiles.get",
		method: http.MethodGet,
		table:  tableProfiles,
		query:  url.Values{"select": {"*"}, "id": {eq(id)}},
		single: true,
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *ProfileStore) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	role := p.Role
	if role == "" {
		role = models.RoleClient
	}

	var profile models.Profile
	err := s.client.do(ctx, request{
		op:     "profiles.create",
		method: http.MethodPost,
		table:  tableProfiles,
		query:  url.Values{"select": {"*"}},
		body: map[string]any{
			"id":           p.ID,
			"email":        p.Email,
			"full_name":    p.FullName,
			"avatar_url":   p.AvatarURL,
			"company_name": p.CompanyName,
			"phone":        p.Phone,
			"role":         role,
		},
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	return &profile, nil
}

// profilePatch sends only the fields being changed; "" becomes null.
func profilePatch(u models.ProfileUpdate) map[string]any {
	patch := map[string]any{}
	set := func(column string, v *string) {
		if v == nil {
			return
		}
		if *v == "" {
			patch[column] = nil
			return
		}
		patch[column] = *v
	}
	set("full_name", u.FullName)
	set("company_name", u.CompanyName)
	set("phone", u.Phone)
	set("avatar_url", u.AvatarURL)
	patch["updated_at"] = "now"
	return patch
}

func (s *ProfileStore) Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	var profile models.Profile
	err := s.client.do(ctx, request{
		op:       "profiles.update",
		method:   http.MethodPatch,
		table:    tableProfiles,
		query:    url.Values{"select": {"*"}, "id": {eq(id)}},
		body:     profilePatch(u),
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return &profile, nil
}

func (s *ProfileStore) SetRoleByEmail(ctx context.Context, email string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, apperr.New(apperr.KindValidation, "profiles.set_role", fmt.Sprintf("invalid role %q", role))
	}

	var profile models.Profile
	err := s.client.do(ctx, request{
		op:       "profiles.set_role",
		method:   http.MethodPatch,
		table:    tableProfiles,
		query:    url.Values{"select": {"*"}, "email": {eq(email)}},
		body:     map[string]any{"role": role, "updated_at": "now"},
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &profile)
	if err != nil {
		return nil, fmt.Errorf("failed to set role: %w", err)
	}
	return &profile, nil
}

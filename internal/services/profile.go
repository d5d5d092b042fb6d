package services

import (
	"context"
	"fmt"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/database"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const profileColumns = `id, email, full_name, avatar_url, company_name, phone, role, created_at, updated_at`

type ProfileService struct {
	db *database.DB
}

func NewProfileService(db *database.DB) *ProfileService {
	return &ProfileService{db: db}
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.AvatarURL, &p.CompanyName,
		&p.Phone, &p.Role, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProfileService) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		SELECT `+profileColumns+`
		FROM profiles WHERE id = $1
	`, id))
	if err != nil {
		return nil, classify("profiles.get", apperr.KindUnknown, err)
	}
	return profile, nil
}

// Create inserts a new profile row. A profile that already exists for the id
// is reported as apperr.KindConflict.
func (s *ProfileService) Create(ctx context.Context, p *models.Profile) (*models.Profile, error) {
	role := p.Role
	if role == "" {
		role = models.RoleClient
	}

	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, avatar_url, company_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+profileColumns,
		p.ID, p.Email, p.FullName, p.AvatarURL, p.CompanyName, p.Phone, role,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create profile: %w", classify("profiles.create", apperr.KindWriteFailure, err))
	}
	return profile, nil
}

// Update applies the non-nil fields of u. An empty string clears the column.
func (s *ProfileService) Update(ctx context.Context, id uuid.UUID, u models.ProfileUpdate) (*models.Profile, error) {
	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET
			full_name = CASE WHEN $2::text IS NULL THEN full_name ELSE NULLIF($2, '') END,
			company_name = CASE WHEN $3::text IS NULL THEN company_name ELSE NULLIF($3, '') END,
			phone = CASE WHEN $4::text IS NULL THEN phone ELSE NULLIF($4, '') END,
			avatar_url = CASE WHEN $5::text IS NULL THEN avatar_url ELSE NULLIF($5, '') END,
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+profileColumns,
		id, u.FullName, u.CompanyName, u.Phone, u.AvatarURL,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", classify("profiles.update", apperr.KindWriteFailure, err))
	}
	return profile, nil
}

func (s *ProfileService) SetRoleByEmail(ctx context.Context, email string, role models.Role) (*models.Profile, error) {
	if !role.Valid() {
		return nil, apperr.New(apperr.KindValidation, "profiles.set_role", fmt.Sprintf("invalid role %q", role))
	}

	profile, err := scanProfile(s.db.Pool.QueryRow(ctx, `
		UPDATE profiles SET role = $1, updated_at = NOW()
		WHERE email = $2
		RETURNING `+profileColumns,
		role, email,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to set role: %w", classify("profiles.set_role", apperr.KindWriteFailure, err))
	}
	return profile, nil
}

package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/dimitrije/adme-site/internal/database"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateProfile creates a test profile with default values
func (f *Fixtures) CreateProfile(t *testing.T, opts ...ProfileOption) *models.Profile {
	t.Helper()
	f.counter++

	name := fmt.Sprintf("Test User %d", f.counter)
	profile := &models.Profile{
		ID:       uuid.New(),
		Email:    fmt.Sprintf("user%d@example.com", f.counter),
		FullName: &name,
		Role:     models.RoleClient,
	}

	for _, opt := range opts {
		opt(profile)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO profiles (id, email, full_name, company_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`, profile.ID, profile.Email, profile.FullName, profile.CompanyName, profile.Phone, profile.Role).Scan(
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create profile: %v", err)
	}

	return profile
}

// ProfileOption configures a test profile
type ProfileOption func(*models.Profile)

func WithEmail(email string) ProfileOption {
	return func(p *models.Profile) {
		p.Email = email
	}
}

func WithRole(role models.Role) ProfileOption {
	return func(p *models.Profile) {
		p.Role = role
	}
}

func WithCompany(company string) ProfileOption {
	return func(p *models.Profile) {
		p.CompanyName = &company
	}
}

// CreateService creates a catalogue entry
func (f *Fixtures) CreateService(t *testing.T, name string, order int, active bool) *models.Service {
	t.Helper()

	service := &models.Service{
		Name:         name,
		Features:     []string{"Discovery", "Delivery"},
		IsActive:     active,
		DisplayOrder: order,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO services (name, features, is_active, display_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, service.Name, service.Features, service.IsActive, service.DisplayOrder).Scan(
		&service.ID, &service.CreatedAt, &service.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	return service
}

// CreateProject creates a project owned by client
func (f *Fixtures) CreateProject(t *testing.T, client *models.Profile, title string) *models.Project {
	t.Helper()

	project := &models.Project{
		ClientID: &client.ID,
		Title:    title,
		Status:   models.ProjectStatusInquiry,
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (client_id, title, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, project.ClientID, project.Title, project.Status).Scan(
		&project.ID, &project.CreatedAt, &project.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	return project
}

// NewInquiry returns an unsaved contact inquiry
func NewInquiry(name, email string) *models.ContactInquiry {
	subject := "Website redesign"
	return &models.ContactInquiry{
		Name:    name,
		Email:   email,
		Subject: &subject,
		Message: "We would like a quote for a new marketing site.",
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
)

// Service is an entry of the public services catalogue.
type Service struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Description      *string   `json:"description"`
	ShortDescription *string   `json:"short_description"`
	PriceRange       *string   `json:"price_range"`
	DurationEstimate *string   `json:"duration_estimate"`
	Features         []string  `json:"features"`
	IsActive         bool      `json:"is_active"`
	DisplayOrder     int       `json:"display_order"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ProjectStatus string

const (
	ProjectStatusInquiry    ProjectStatus = "inquiry"
	ProjectStatusProposal   ProjectStatus = "proposal"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusInquiry, ProjectStatusProposal, ProjectStatusInProgress,
		ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	}
	return false
}

type Project struct {
	ID            uuid.UUID     `json:"id"`
	ClientID      *uuid.UUID    `json:"client_id"`
	Title         string        `json:"title"`
	Description   *string       `json:"description"`
	Status        ProjectStatus `json:"status"`
	BudgetRange   *string       `json:"budget_range"`
	ServiceType   *string       `json:"service_type"`
	StartDate     *time.Time    `json:"start_date"`
	Deadline      *time.Time    `json:"deadline"`
	CompletedDate *time.Time    `json:"completed_date"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// ProjectUpdate changes a project's lifecycle fields. Nil fields are left untouched.
type ProjectUpdate struct {
	Status        *ProjectStatus `json:"status,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Deadline      *time.Time     `json:"deadline,omitempty"`
	CompletedDate *time.Time     `json:"completed_date,omitempty"`
}

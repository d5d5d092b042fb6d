package dto

import (
	"time"

	"github.com/dimitrije/adme-site/internal/models"
)

type CreateProjectRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	BudgetRange string     `json:"budget_range"`
	ServiceType string     `json:"service_type"`
	Deadline    *time.Time `json:"deadline"`
}

type UpdateProjectRequest struct {
	Status        *models.ProjectStatus `json:"status"`
	Description   *string               `json:"description"`
	Deadline      *time.Time            `json:"deadline"`
	CompletedDate *time.Time            `json:"completed_date"`
}

type ProjectListResponse struct {
	Projects []models.Project `json:"projects"`
}

type ServiceListResponse struct {
	Services []models.Service `json:"services"`
}

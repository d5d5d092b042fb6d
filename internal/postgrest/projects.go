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

const tableProjects = "projects"

type ProjectStore struct {
	client *Client
}

func NewProjectStore(client *Client) *ProjectStore {
	return &ProjectStore{client: client}
}

func (s *ProjectStore) list(ctx context.Context, op string, query url.Values) ([]models.Project, error) {
	query.Set("select", "*")
	query.Set("order", "created_at.desc")

	projects := []models.Project{}
	err := s.client.do(ctx, request{
		op:     op,
		method: http.MethodGet,
		table:  tableProjects,
		query:  query,
	}, &projects)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *ProjectStore) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	return s.list(ctx, "projects.list_by_client", url.Values{"client_id": {eq(clientID)}})
}

func (s *ProjectStore) ListAll(ctx context.Context) ([]models.Project, error) {
	return s.list(ctx, "projects.list", url.Values{})
}

func (s *ProjectStore) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	status := p.Status
	if status == "" {
		status = models.ProjectStatusInquiry
	}

	var project models.Project
	err := s.client.do(ctx, request{
		op:     "projects.create",
		method: http.MethodPost,
		table:  tableProjects,
		query:  url.Values{"select": {"*"}},
		body: map[string]any{
			"client_id":    p.ClientID,
			"title":        p.Title,
			"description":  p.Description,
			"status":       status,
			"budget_range": p.BudgetRange,
			"service_type": p.ServiceType,
			"start_date":   p.StartDate,
			"deadline":     p.Deadline,
		},
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &project)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return &project, nil
}

func (s *ProjectStore) Update(ctx context.Context, id uuid.UUID, u models.ProjectUpdate) (*models.Project, error) {
	patch := map[string]any{"updated_at": "now"}
	if u.Status != nil {
		patch["status"] = *u.Status
	}
	if u.Description != nil {
		patch["description"] = *u.Description
	}
	if u.Deadline != nil {
		patch["deadline"] = *u.Deadline
	}
	if u.CompletedDate != nil {
		patch["completed_date"] = *u.CompletedDate
	}

	var project models.Project
	err := s.client.do(ctx, request{
		op:       "projects.update",
		method:   http.MethodPatch,
		table:    tableProjects,
		query:    url.Values{"select": {"*"}, "id": {eq(id)}},
		body:     patch,
		single:   true,
		returnIt: true,
		fallback: apperr.KindWriteFailure,
	}, &project)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return &project, nil
}

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

const projectColumns = `id, client_id, title, description, status, budget_range, service_type, start_date, deadline, completed_date, created_at, updated_at`

type ProjectService struct {
	db *database.DB
}

func NewProjectService(db *database.DB) *ProjectService {
	return &ProjectService{db: db}
}

func scanProject(row pgx.Row) (*models.Project, error) {
	var p models.Project
	err := row.Scan(
		&p.ID, &p.ClientID, &p.Title, &p.Description, &p.Status, &p.BudgetRange,
		&p.ServiceType, &p.StartDate, &p.Deadline, &p.CompletedDate,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProjectService) list(ctx context.Context, op, query string, args ...any) ([]models.Project, error) {
	rows, err := s.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", classify(op, apperr.KindUnknown, err))
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

func (s *ProjectService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]models.Project, error) {
	return s.list(ctx, "projects.list_by_client", `
		SELECT `+projectColumns+`
		FROM projects
		WHERE client_id = $1
		ORDER BY created_at DESC
	`, clientID)
}

func (s *ProjectService) ListAll(ctx context.Context) ([]models.Project, error) {
	return s.list(ctx, "projects.list", `
		SELECT `+projectColumns+`
		FROM projects
		ORDER BY created_at DESC
	`)
}

func (s *ProjectService) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	status := p.Status
	if status == "" {
		status = models.ProjectStatusInquiry
	}

	project, err := scanProject(s.db.Pool.QueryRow(ctx, `
		INSERT INTO projects (client_id, title, description, status, budget_range, service_type, start_date, deadline)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+projectColumns,
		p.ClientID, p.Title, p.Description, status, p.BudgetRange, p.ServiceType, p.StartDate, p.Deadline,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", classify("projects.create", apperr.KindWriteFailure, err))
	}
	return project, nil
}

func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, u models.ProjectUpdate) (*models.Project, error) {
	project, err := scanProject(s.db.Pool.QueryRow(ctx, `
		UPDATE projects SET
			status = COALESCE($2, status),
			description = COALESCE($3, description),
			deadline = COALESCE($4, deadline),
			completed_date = COALESCE($5, completed_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+projectColumns,
		id, u.Status, u.Description, u.Deadline, u.CompletedDate,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", classify("projects.update", apperr.KindWriteFailure, err))
	}
	return project, nil
}

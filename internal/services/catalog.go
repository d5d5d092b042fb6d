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

const serviceColumns = `id, name, description, short_description, price_range, duration_estimate, features, is_active, display_order, created_at, updated_at`

type CatalogService struct {
	db *database.DB
}

func NewCatalogService(db *database.DB) *CatalogService {
	return &CatalogService{db: db}
}

func scanService(row pgx.Row) (*models.Service, error) {
	var svc models.Service
	err := row.Scan(
		&svc.ID, &svc.Name, &svc.Description, &svc.ShortDescription, &svc.PriceRange,
		&svc.DurationEstimate, &svc.Features, &svc.IsActive, &svc.DisplayOrder,
		&svc.CreatedAt, &svc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

func (s *CatalogService) ListActive(ctx context.Context) ([]models.Service, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE is_active = TRUE
		ORDER BY display_order, name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", classify("services.list", apperr.KindUnknown, err))
	}
	defer rows.Close()

	services := []models.Service{}
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, *svc)
	}
	return services, rows.Err()
}

func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := scanService(s.db.Pool.QueryRow(ctx, `
		SELECT `+serviceColumns+`
		FROM services WHERE id = $1
	`, id))
	if err != nil {
		return nil, classify("services.get", apperr.KindUnknown, err)
	}
	return svc, nil
}

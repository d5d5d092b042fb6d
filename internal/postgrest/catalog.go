package postgrest

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/google/uuid"
)

const tableServices = "services"

type CatalogStore struct {
	client *Client
}

func NewCatalogStore(client *Client) *CatalogStore {
	return &CatalogStore{client: client}
}

func (s *CatalogStore) ListActive(ctx context.Context) ([]models.Service, error) {
	services := []models.Service{}
	err := s.client.do(ctx, request{
		op:     "services.list",
		method: http.MethodGet,
		table:  tableServices,
		query: url.Values{
			"select":    {"*"},
			"is_active": {"is.true"},
			"order":     {"display_order.asc,name.asc"},
		},
	}, &services)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	return services, nil
}

func (s *CatalogStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	var svc models.Service
	err := s.client.do(ctx, request{
		op:     "services.get",
		method: http.MethodGet,
		table:  tableServices,
		query:  url.Values{"select": {"*"}, "id": {eq(id)}},
		single: true,
	}, &svc)
	if err != nil {
		return nil, err
	}
	return &svc, nil
}

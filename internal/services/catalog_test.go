package services

import (
	"context"
	"testing"
	"time"

	"github.com/dimitrije/adme-site/internal/apperr"
	"github.com/dimitrije/adme-site/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serviceRowColumns = []string{
	"id", "name", "description", "short_description", "price_range", "duration_estimate",
	"features", "is_active", "display_order", "created_at", "updated_at",
}

func setupCatalogService(t *testing.T) (*CatalogService, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewCatalogService(&database.DB{Pool: mock}), mock
}

func TestCatalogService_ListActive(t *testing.T) {
	svc, mock := setupCatalogService(t)
	now := time.Now()

	rows := pgxmock.NewRows(serviceRowColumns).
		AddRow(uuid.New(), "Web Development", strPtr("Full-stack sites"), strPtr("Sites"), strPtr("$5k-$20k"),
			strPtr("4-8 weeks"), []string{"Responsive", "SEO"}, true, 1, now, now).
		AddRow(uuid.New(), "Consulting", (*string)(nil), (*string)(nil), (*string)(nil),
			(*string)(nil), []string{}, true, 2, now, now)
	mock.ExpectQuery(`SELECT .+ FROM services\s+WHERE is_active = TRUE`).
		WillReturnRows(rows)

	services, err := svc.ListActive(context.Background())

	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Web Development", services[0].Name)
	assert.Equal(t, []string{"Responsive", "SEO"}, services[0].Features)
	assert.Nil(t, services[1].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCatalogService_GetByID_NotFound(t *testing.T) {
	svc, mock := setupCatalogService(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM services WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.GetByID(context.Background(), id)

	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

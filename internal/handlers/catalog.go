package handlers

import (
	"net/http"

	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type CatalogHandler struct {
	catalog CatalogServiceInterface
}

func NewCatalogHandler(catalog CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) List(c *drift.Context) {
	services, err := h.catalog.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to list services")
		return
	}
	_ = c.JSON(http.StatusOK, dto.ServiceListResponse{Services: services})
}

func (h *CatalogHandler) Get(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid service id")
		return
	}

	service, err := h.catalog.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "failed to get service")
		return
	}
	if !service.IsActive {
		c.NotFound("service not found")
		return
	}
	_ = c.JSON(http.StatusOK, service)
}

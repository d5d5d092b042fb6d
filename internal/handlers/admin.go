package handlers

import (
	"net/http"
	"strconv"

	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

// AdminHandler serves the back-office inquiry triage.
type AdminHandler struct {
	inquiries InquiryServiceInterface
}

func NewAdminHandler(inquiries InquiryServiceInterface) *AdminHandler {
	return &AdminHandler{inquiries: inquiries}
}

func (h *AdminHandler) ListInquiries(c *drift.Context) {
	filter := models.InquiryFilter{Status: models.InquiryStatus(c.QueryParam("status"))}
	if filter.Status != "" && !filter.Status.Valid() {
		c.BadRequest("invalid status")
		return
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 || limit > 500 {
			c.BadRequest("limit must be between 1 and 500")
			return
		}
		filter.Limit = limit
	}

	ctx := postgrest.WithAccessToken(c.Request.Context(), accessToken(c))
	inquiries, err := h.inquiries.List(ctx, filter)
	if err != nil {
		respondError(c, err, "failed to list inquiries")
		return
	}
	_ = c.JSON(http.StatusOK, dto.InquiryListResponse{Inquiries: inquiries})
}

func (h *AdminHandler) UpdateInquiry(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid inquiry id")
		return
	}

	var req dto.UpdateInquiryRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Status != nil && !req.Status.Valid() {
		c.BadRequest("invalid status")
		return
	}
	if req.Priority != nil && !req.Priority.Valid() {
		c.BadRequest("invalid priority")
		return
	}
	if req.Status == nil && req.Priority == nil && req.AssignedTo == nil {
		c.BadRequest("no fields to update")
		return
	}

	ctx := postgrest.WithAccessToken(c.Request.Context(), accessToken(c))
	inquiry, err := h.inquiries.Update(ctx, id, models.InquiryUpdate{
		Status:     req.Status,
		Priority:   req.Priority,
		AssignedTo: req.AssignedTo,
	})
	if err != nil {
		respondError(c, err, "failed to update inquiry")
		return
	}
	_ = c.JSON(http.StatusOK, inquiry)
}

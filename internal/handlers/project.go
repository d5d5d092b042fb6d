package handlers

import (
	"net/http"
	"strings"

	"github.com/dimitrije/adme-site/internal/middleware"
	"github.com/dimitrije/adme-site/internal/models"
	"github.com/dimitrije/adme-site/internal/postgrest"
	"github.com/dimitrije/adme-site/internal/sanitize"
	"github.com/dimitrije/adme-site/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProjectHandler struct {
	projects  ProjectServiceInterface
	sanitizer *sanitize.Sanitizer
}

func NewProjectHandler(projects ProjectServiceInterface, sanitizer *sanitize.Sanitizer) *ProjectHandler {
	return &ProjectHandler{projects: projects, sanitizer: sanitizer}
}

func (h *ProjectHandler) List(c *drift.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return
	}

	ctx := postgrest.WithAccessToken(c.Request.Context(), session.AccessToken)
	projects, err := h.projects.ListByClient(ctx, session.User.ID)
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}
	_ = c.JSON(http.StatusOK, dto.ProjectListResponse{Projects: projects})
}

// Create opens a project request for the caller. It always starts in the
// inquiry stage.
func (h *ProjectHandler) Create(c *drift.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	title := h.sanitizer.Text(req.Title)
	if title == "" {
		c.BadRequest("title is required")
		return
	}
	if len(title) > 200 {
		c.BadRequest("title must be at most 200 characters")
		return
	}

	clientID := session.User.ID
	ctx := postgrest.WithAccessToken(c.Request.Context(), session.AccessToken)
	project, err := h.projects.Create(ctx, &models.Project{
		ClientID:    &clientID,
		Title:       title,
		Description: h.sanitizer.Optional(req.Description),
		BudgetRange: h.sanitizer.Optional(req.BudgetRange),
		ServiceType: h.sanitizer.Optional(req.ServiceType),
		Deadline:    req.Deadline,
		Status:      models.ProjectStatusInquiry,
	})
	if err != nil {
		respondError(c, err, "failed to create project")
		return
	}
	_ = c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) ListAll(c *drift.Context) {
	ctx := postgrest.WithAccessToken(c.Request.Context(), accessToken(c))
	projects, err := h.projects.ListAll(ctx)
	if err != nil {
		respondError(c, err, "failed to list projects")
		return
	}
	_ = c.JSON(http.StatusOK, dto.ProjectListResponse{Projects: projects})
}

func (h *ProjectHandler) Update(c *drift.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.BadRequest("invalid project id")
		return
	}

	var req dto.UpdateProjectRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	if req.Status != nil && !req.Status.Valid() {
		c.BadRequest("invalid project status")
		return
	}

	update := models.ProjectUpdate{
		Status:        req.Status,
		Description:   h.sanitizer.Pointer(req.Description),
		Deadline:      req.Deadline,
		CompletedDate: req.CompletedDate,
	}
	if update.Status == nil && update.Description == nil && update.Deadline == nil && update.CompletedDate == nil {
		c.BadRequest("no fields to update")
		return
	}

	ctx := postgrest.WithAccessToken(c.Request.Context(), accessToken(c))
	project, err := h.projects.Update(ctx, id, update)
	if err != nil {
		respondError(c, err, "failed to update project")
		return
	}
	_ = c.JSON(http.StatusOK, project)
}

func accessToken(c *drift.Context) string {
	if s := middleware.GetSession(c); s != nil {
		return strings.TrimSpace(s.AccessToken)
	}
	return ""
}

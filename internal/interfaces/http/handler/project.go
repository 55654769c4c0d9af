package handler

import (
	"context"

	projectapp "github.com/fablecraft/backend/internal/application/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ProjectUseCases is the project service as seen by the HTTP layer
type ProjectUseCases interface {
	Create(ctx context.Context, ownerID uuid.UUID, req projectapp.CreateProjectRequest) (*projectapp.ProjectResponse, error)
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error)
	List(ctx context.Context, ownerID uuid.UUID, filter projectapp.ProjectListFilter) ([]projectapp.ProjectResponse, int64, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req projectapp.UpdateProjectRequest) (*projectapp.ProjectResponse, error)
	Archive(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error)
	Restore(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectResponse, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Stats(ctx context.Context, ownerID, id uuid.UUID) (*projectapp.ProjectStatsResponse, error)
}

// ProjectHandler handles project-related HTTP requests
type ProjectHandler struct {
	BaseHandler
	projectService ProjectUseCases
}

// NewProjectHandler creates a new ProjectHandler
func NewProjectHandler(projectService ProjectUseCases) *ProjectHandler {
	return &ProjectHandler{projectService: projectService}
}

// Create creates a new project
// POST /projects
func (h *ProjectHandler) Create(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req projectapp.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), ownerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, project)
}

// GetByID retrieves a project by ID
// GET /projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	ownerID, id, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetByID(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// List lists the caller's projects with filtering and pagination
// GET /projects
func (h *ProjectHandler) List(c *gin.Context) {
	ownerID, err := getOwnerID(c)
	if err != nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var filter projectapp.ProjectListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	projects, total, err := h.projectService.List(c.Request.Context(), ownerID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page, pageSize := effectivePaging(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, projects, total, page, pageSize)
}

// Update updates a project
// PUT /projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	ownerID, id, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	var req projectapp.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	project, err := h.projectService.Update(c.Request.Context(), ownerID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Archive marks a project read-only for new entries
// POST /projects/:id/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	h.transition(c, h.projectService.Archive)
}

// Restore returns an archived project to active
// POST /projects/:id/restore
func (h *ProjectHandler) Restore(c *gin.Context) {
	h.transition(c, h.projectService.Restore)
}

func (h *ProjectHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID, uuid.UUID) (*projectapp.ProjectResponse, error)) {
	ownerID, id, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	project, err := apply(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, project)
}

// Delete removes a project with all of its entries
// DELETE /projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	ownerID, id, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.Delete(c.Request.Context(), ownerID, id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Stats returns entry counts per kind
// GET /projects/:id/stats
func (h *ProjectHandler) Stats(c *gin.Context) {
	ownerID, id, ok := h.ownerAndUUID(c, "id")
	if !ok {
		return
	}

	stats, err := h.projectService.Stats(c.Request.Context(), ownerID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stats)
}

// effectivePaging mirrors the defaults the repositories apply
func effectivePaging(page, pageSize int) (int, int) {
	f := shared.DefaultFilter()
	if page > 0 {
		f.Page = page
	}
	if pageSize > 0 {
		f.PageSize = pageSize
	}
	f = f.Normalize()
	return f.Page, f.PageSize
}

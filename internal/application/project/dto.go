package project

import (
	"time"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/google/uuid"
)

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Title    string `json:"title" binding:"required,notblank,max=200"`
	Genre    string `json:"genre" binding:"max=100"`
	Synopsis string `json:"synopsis" binding:"max=10000"`
	Status   string `json:"status" binding:"omitempty,oneof=draft active"`
}

// UpdateProjectRequest represents a partial project update
type UpdateProjectRequest struct {
	Title         *string `json:"title" binding:"omitempty,notblank,max=200"`
	Genre         *string `json:"genre" binding:"omitempty,max=100"`
	Synopsis      *string `json:"synopsis" binding:"omitempty,max=10000"`
	Status        *string `json:"status" binding:"omitempty,oneof=draft active"`
	CoverImageKey *string `json:"cover_image_key" binding:"omitempty,max=500"`
}

// ProjectListFilter represents list query parameters
type ProjectListFilter struct {
	Search   string `form:"search"`
	Status   string `form:"status" binding:"omitempty,oneof=draft active archived"`
	Page     int    `form:"page" binding:"min=0"`
	PageSize int    `form:"page_size" binding:"min=0,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID            uuid.UUID  `json:"id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Genre         string     `json:"genre"`
	Synopsis      string     `json:"synopsis"`
	Status        string     `json:"status"`
	CoverImageKey string     `json:"cover_image_key,omitempty"`
	ArchivedAt    *time.Time `json:"archived_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Version       int        `json:"version"`
}

// ProjectStatsResponse reports entry counts per kind
type ProjectStatsResponse struct {
	ProjectID uuid.UUID        `json:"project_id"`
	Counts    map[string]int64 `json:"counts"`
	Total     int64            `json:"total"`
}

// ToProjectResponse converts a domain project to a response
func ToProjectResponse(p *project.Project) *ProjectResponse {
	return &ProjectResponse{
		ID:            p.ID,
		OwnerID:       p.OwnerID,
		Title:         p.Title,
		Slug:          p.Slug,
		Genre:         p.Genre,
		Synopsis:      p.Synopsis,
		Status:        string(p.Status),
		CoverImageKey: p.CoverImageKey,
		ArchivedAt:    p.ArchivedAt,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		Version:       p.Version,
	}
}

// ToProjectStatsResponse fills zero counts for kinds with no entries
func ToProjectStatsResponse(projectID uuid.UUID, counts map[worldbible.Kind]int64) *ProjectStatsResponse {
	resp := &ProjectStatsResponse{
		ProjectID: projectID,
		Counts:    make(map[string]int64, len(worldbible.AllKinds())),
	}
	for _, kind := range worldbible.AllKinds() {
		n := counts[kind]
		resp.Counts[string(kind)] = n
		resp.Total += n
	}
	return resp
}

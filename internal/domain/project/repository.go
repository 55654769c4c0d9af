package project

import (
	"context"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectRepository defines persistence operations for projects.
// Every method is scoped to the owning user.
type ProjectRepository interface {
	// FindByID finds a project by ID for the owner
	FindByID(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)

	// FindAll lists the owner's projects with filtering and pagination
	FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]Project, error)

	// Count counts the owner's projects matching the filter
	Count(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates a project
	Save(ctx context.Context, project *Project) error

	// Delete removes a project and, through the schema, all of its entries
	Delete(ctx context.Context, ownerID, id uuid.UUID) error

	// ImageKeys lists the image keys stored on the project's entries
	ImageKeys(ctx context.Context, ownerID, id uuid.UUID) ([]string, error)

	// ExistsBySlug checks slug uniqueness for the owner, ignoring excludeID
	ExistsBySlug(ctx context.Context, ownerID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error)
}

package worldbible

import (
	"context"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntryRepository defines persistence operations for entries of one kind.
// Every method is scoped to an owner and a project.
type EntryRepository[A Attributes] interface {
	// FindByID finds an entry by ID within the project
	FindByID(ctx context.Context, ownerID, projectID, id uuid.UUID) (*Entry[A], error)

	// FindAll lists entries with filtering and pagination.
	// Supported filter keys: "tag".
	FindAll(ctx context.Context, ownerID, projectID uuid.UUID, filter shared.Filter) ([]Entry[A], error)

	// Count counts entries matching the filter
	Count(ctx context.Context, ownerID, projectID uuid.UUID, filter shared.Filter) (int64, error)

	// Save creates or updates an entry
	Save(ctx context.Context, entry *Entry[A]) error

	// Delete removes a single entry
	Delete(ctx context.Context, ownerID, projectID, id uuid.UUID) error

	// DeleteMany removes the given entries in one transaction and returns how many were removed
	DeleteMany(ctx context.Context, ownerID, projectID uuid.UUID, ids []uuid.UUID) (int64, error)

	// ExistsByName checks case-insensitive name uniqueness, ignoring excludeID
	ExistsByName(ctx context.Context, ownerID, projectID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error)
}

// StatsReader reports entry counts across all kinds
type StatsReader interface {
	// CountByKind returns the number of entries per kind in a project
	CountByKind(ctx context.Context, ownerID, projectID uuid.UUID) (map[Kind]int64, error)
}

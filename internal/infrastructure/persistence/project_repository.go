package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProjectRepository implements project.ProjectRepository using GORM
type GormProjectRepository struct {
	db *gorm.DB
}

// NewGormProjectRepository creates a new GormProjectRepository
func NewGormProjectRepository(db *gorm.DB) *GormProjectRepository {
	return &GormProjectRepository{db: db}
}

// FindByID finds a project by ID for the owner
func (r *GormProjectRepository) FindByID(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := OwnerScope(ownerID)(r.db.WithContext(ctx)).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, translateNotFound(err)
	}
	p.MarkPersisted()
	return &p, nil
}

// FindAll lists the owner's projects.
// Supported filter keys: "status".
func (r *GormProjectRepository) FindAll(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) ([]project.Project, error) {
	filter = filter.Normalize()
	var projects []project.Project

	query := r.applyFilter(r.owned(ctx, ownerID), filter).
		Order(projectSort.orderClause(filter)).
		Order("id ASC")

	if err := query.Offset(filter.Offset()).Limit(filter.PageSize).Find(&projects).Error; err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].MarkPersisted()
	}
	return projects, nil
}

// Count counts the owner's projects matching the filter
func (r *GormProjectRepository) Count(ctx context.Context, ownerID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilter(r.owned(ctx, ownerID), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormProjectRepository) owned(ctx context.Context, ownerID uuid.UUID) *gorm.DB {
	return OwnerScope(ownerID)(r.db.WithContext(ctx).Model(&project.Project{}))
}

func (r *GormProjectRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(genre) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		if s, ok := status.(string); ok && s != "" {
			query = query.Where("status = ?", s)
		}
	}
	return query
}

// Save creates or updates a project
func (r *GormProjectRepository) Save(ctx context.Context, p *project.Project) error {
	return saveVersioned(ctx, r.db, p, p.ID, p.OwnerID, p.Version)
}

// Delete removes a project and every entry that belongs to it in one transaction
func (r *GormProjectRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, kind := range worldbible.AllKinds() {
			stmt := fmt.Sprintf("DELETE FROM %s WHERE owner_id = ? AND project_id = ?", kind.Table())
			if err := tx.Exec(stmt, ownerID, id).Error; err != nil {
				return fmt.Errorf("delete %s: %w", kind.Table(), err)
			}
		}
		result := OwnerScope(ownerID)(tx).Where("id = ?", id).Delete(&project.Project{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// ImageKeys lists the non-empty image keys of every entry in the project
func (r *GormProjectRepository) ImageKeys(ctx context.Context, ownerID, id uuid.UUID) ([]string, error) {
	keys := make([]string, 0)
	for _, kind := range worldbible.AllKinds() {
		var found []string
		err := ProjectScope(ownerID, id)(r.db.WithContext(ctx).Table(kind.Table())).
			Where("image_key <> ''").
			Pluck("image_key", &found).Error
		if err != nil {
			return nil, fmt.Errorf("image keys of %s: %w", kind.Table(), err)
		}
		keys = append(keys, found...)
	}
	return keys, nil
}

// ExistsBySlug checks slug uniqueness for the owner, ignoring excludeID
func (r *GormProjectRepository) ExistsBySlug(ctx context.Context, ownerID uuid.UUID, slug string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.owned(ctx, ownerID).Where("slug = ?", slug)
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

var _ project.ProjectRepository = (*GormProjectRepository)(nil)

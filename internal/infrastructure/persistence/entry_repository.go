package persistence

import (
	"context"
	"strings"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormEntryRepository implements worldbible.EntryRepository for one kind.
// The kind, and with it the table, comes from the type parameter.
type GormEntryRepository[A worldbible.Attributes] struct {
	db   *gorm.DB
	sort sortSpec
}

// NewGormEntryRepository creates a repository for entries with attributes A
func NewGormEntryRepository[A worldbible.Attributes](db *gorm.DB) *GormEntryRepository[A] {
	var attrs A
	return &GormEntryRepository[A]{db: db, sort: entrySort(attrs.Kind().Table())}
}

// FindByID finds an entry by ID within the project
func (r *GormEntryRepository[A]) FindByID(ctx context.Context, ownerID, projectID, id uuid.UUID) (*worldbible.Entry[A], error) {
	var entry worldbible.Entry[A]
	if err := ProjectScope(ownerID, projectID)(r.db.WithContext(ctx)).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, translateNotFound(err)
	}
	entry.MarkPersisted()
	return &entry, nil
}

// FindAll lists entries with search, tag filter, sorting and pagination
func (r *GormEntryRepository[A]) FindAll(ctx context.Context, ownerID, projectID uuid.UUID, filter shared.Filter) ([]worldbible.Entry[A], error) {
	filter = filter.Normalize()
	var entries []worldbible.Entry[A]

	query := r.applyFilter(r.scoped(ctx, ownerID, projectID), filter).
		Order(r.sort.orderClause(filter)).
		Order("id ASC")

	if err := query.Offset(filter.Offset()).Limit(filter.PageSize).Find(&entries).Error; err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i].MarkPersisted()
	}
	return entries, nil
}

// Count counts entries matching the filter
func (r *GormEntryRepository[A]) Count(ctx context.Context, ownerID, projectID uuid.UUID, filter shared.Filter) (int64, error) {
	var count int64
	if err := r.applyFilter(r.scoped(ctx, ownerID, projectID), filter).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormEntryRepository[A]) scoped(ctx context.Context, ownerID, projectID uuid.UUID) *gorm.DB {
	return ProjectScope(ownerID, projectID)(r.db.WithContext(ctx).Model(&worldbible.Entry[A]{}))
}

func (r *GormEntryRepository[A]) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsPattern(search)
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\'`, pattern, pattern)
	}
	if raw, ok := filter.Filters["tag"]; ok {
		if tag, ok := raw.(string); ok && strings.TrimSpace(tag) != "" {
			query = r.whereTag(query, strings.TrimSpace(tag))
		}
	}
	return query
}

// whereTag matches one tag. Postgres stores text[] and can test membership;
// sqlite stores the array literal as text, where every element is quoted.
func (r *GormEntryRepository[A]) whereTag(query *gorm.DB, tag string) *gorm.DB {
	if isPostgres(r.db) {
		return query.Where("? = ANY(tags)", tag)
	}
	return query.Where("tags LIKE ?", `%"`+tag+`"%`)
}

// Save creates or updates an entry
func (r *GormEntryRepository[A]) Save(ctx context.Context, entry *worldbible.Entry[A]) error {
	return saveVersioned(ctx, r.db, entry, entry.ID, entry.OwnerID, entry.Version)
}

// Delete removes a single entry
func (r *GormEntryRepository[A]) Delete(ctx context.Context, ownerID, projectID, id uuid.UUID) error {
	result := ProjectScope(ownerID, projectID)(r.db.WithContext(ctx)).Where("id = ?", id).Delete(&worldbible.Entry[A]{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteMany removes the given entries in one transaction
func (r *GormEntryRepository[A]) DeleteMany(ctx context.Context, ownerID, projectID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := ProjectScope(ownerID, projectID)(tx).Where("id IN ?", ids).Delete(&worldbible.Entry[A]{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ExistsByName checks case-insensitive name uniqueness within the project
func (r *GormEntryRepository[A]) ExistsByName(ctx context.Context, ownerID, projectID uuid.UUID, name string, excludeID *uuid.UUID) (bool, error) {
	var count int64
	query := r.scoped(ctx, ownerID, projectID).Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name)))
	if excludeID != nil {
		query = query.Where("id <> ?", *excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GormStatsReader counts entries of every kind for a project
type GormStatsReader struct {
	db *gorm.DB
}

// NewGormStatsReader creates a new GormStatsReader
func NewGormStatsReader(db *gorm.DB) *GormStatsReader {
	return &GormStatsReader{db: db}
}

// CountByKind returns the entry count per kind; kinds without entries report zero
func (r *GormStatsReader) CountByKind(ctx context.Context, ownerID, projectID uuid.UUID) (map[worldbible.Kind]int64, error) {
	counts := make(map[worldbible.Kind]int64, len(worldbible.AllKinds()))
	for _, kind := range worldbible.AllKinds() {
		var n int64
		if err := ProjectScope(ownerID, projectID)(r.db.WithContext(ctx).Table(kind.Table())).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[kind] = n
	}
	return counts, nil
}

var (
	_ worldbible.EntryRepository[worldbible.CharacterAttributes] = (*GormEntryRepository[worldbible.CharacterAttributes])(nil)
	_ worldbible.StatsReader                                     = (*GormStatsReader)(nil)
)

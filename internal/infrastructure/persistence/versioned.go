package persistence

import (
	"context"
	"errors"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// versionedModel is an aggregate that knows whether it has a stored row
type versionedModel interface {
	IsPersisted() bool
	MarkPersisted()
}

// saveVersioned inserts an aggregate that has never been stored and updates
// a loaded one with an optimistic lock. Domain mutations bump the version
// before the save, so an update only succeeds while the stored version is
// still lower; a concurrent writer who got there first makes it a conflict.
func saveVersioned(ctx context.Context, db *gorm.DB, model versionedModel, id, ownerID uuid.UUID, version int) error {
	tx := db.WithContext(ctx)
	if !model.IsPersisted() {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		model.MarkPersisted()
		return nil
	}

	result := OwnerScope(ownerID)(tx.Model(model)).
		Where("version < ?", version).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var count int64
	if err := OwnerScope(ownerID)(tx.Model(model)).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return shared.ErrNotFound
	}
	return shared.ErrConcurrencyConflict
}

// translateNotFound maps gorm's not-found error onto the domain sentinel
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}

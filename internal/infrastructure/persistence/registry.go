package persistence

import (
	worldbibleapp "github.com/fablecraft/backend/internal/application/worldbible"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// NewWorldBibleRegistry builds one entry service per kind over GORM
// repositories. images and publisher may be nil.
func NewWorldBibleRegistry(
	db *gorm.DB,
	projects worldbibleapp.ProjectFinder,
	images worldbibleapp.ImageStore,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *worldbibleapp.Registry {
	return worldbibleapp.NewRegistry(
		entryService[worldbible.CharacterAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.LocationAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.ItemAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.MagicSystemAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.OrganizationAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.TimelineEventAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.LanguageAttributes](db, projects, images, publisher, logger),
		entryService[worldbible.CreatureAttributes](db, projects, images, publisher, logger),
	)
}

func entryService[A worldbible.Attributes](
	db *gorm.DB,
	projects worldbibleapp.ProjectFinder,
	images worldbibleapp.ImageStore,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) worldbibleapp.EntryService {
	return worldbibleapp.NewService[A](NewGormEntryRepository[A](db), projects, images, publisher, logger)
}

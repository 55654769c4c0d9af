package cache

import (
	"context"

	"github.com/fablecraft/backend/internal/domain/project"
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/fablecraft/backend/internal/domain/worldbible"
	"go.uber.org/zap"
)

// OwnerInvalidator drops an owner's cached responses when their projects
// or entries change
type OwnerInvalidator struct {
	store  ResponseStore
	logger *zap.Logger
}

// NewOwnerInvalidator creates the event handler
func NewOwnerInvalidator(store ResponseStore, logger *zap.Logger) *OwnerInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OwnerInvalidator{store: store, logger: logger}
}

// EventTypes lists every project and entry event
func (i *OwnerInvalidator) EventTypes() []string {
	return append(project.AllEventTypes(), worldbible.AllEventTypes()...)
}

// Handle invalidates the event owner's keys
func (i *OwnerInvalidator) Handle(ctx context.Context, event shared.DomainEvent) error {
	removed, err := i.store.InvalidateOwner(ctx, event.OwnerID().String())
	if err != nil {
		return err
	}
	if removed > 0 {
		i.logger.Debug("Response cache invalidated",
			zap.String("event_type", event.EventType()),
			zap.String("owner_id", event.OwnerID().String()),
			zap.Int("removed", removed),
		)
	}
	return nil
}

var _ shared.EventHandler = (*OwnerInvalidator)(nil)

package worldbible

import (
	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event type constants for world bible entries
const (
	EventTypeEntryCreated = "EntryCreated"
	EventTypeEntryUpdated = "EntryUpdated"
	EventTypeEntryDeleted = "EntryDeleted"
)

// AggregateTypeEntry is the aggregate type name used in events
const AggregateTypeEntry = "Entry"

// EntryEvent is emitted when an entry of any kind changes
type EntryEvent struct {
	shared.BaseDomainEvent
	Kind      Kind      `json:"kind"`
	ProjectID uuid.UUID `json:"project_id"`
	Name      string    `json:"name"`
}

func newEntryEvent(eventType string, kind Kind, id, ownerID, projectID uuid.UUID, name string) *EntryEvent {
	return &EntryEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeEntry, id, ownerID),
		Kind:            kind,
		ProjectID:       projectID,
		Name:            name,
	}
}

// AllEventTypes lists every entry event type
func AllEventTypes() []string {
	return []string{EventTypeEntryCreated, EventTypeEntryUpdated, EventTypeEntryDeleted}
}

package project

import (
	"github.com/fablecraft/backend/internal/domain/shared"
)

// Event type constants for projects
const (
	EventTypeProjectCreated  = "ProjectCreated"
	EventTypeProjectUpdated  = "ProjectUpdated"
	EventTypeProjectArchived = "ProjectArchived"
	EventTypeProjectRestored = "ProjectRestored"
	EventTypeProjectDeleted  = "ProjectDeleted"
)

// AggregateTypeProject is the aggregate type name used in events
const AggregateTypeProject = "Project"

// ProjectEvent is emitted on every project lifecycle change
type ProjectEvent struct {
	shared.BaseDomainEvent
	Title  string        `json:"title"`
	Slug   string        `json:"slug"`
	Status ProjectStatus `json:"status"`
}

func newProjectEvent(eventType string, p *Project) *ProjectEvent {
	return &ProjectEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProject, p.ID, p.OwnerID),
		Title:           p.Title,
		Slug:            p.Slug,
		Status:          p.Status,
	}
}

// AllEventTypes lists every project event type
func AllEventTypes() []string {
	return []string{
		EventTypeProjectCreated,
		EventTypeProjectUpdated,
		EventTypeProjectArchived,
		EventTypeProjectRestored,
		EventTypeProjectDeleted,
	}
}

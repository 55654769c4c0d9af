package project

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProjectStatus represents the lifecycle state of a fiction project
type ProjectStatus string

const (
	StatusDraft    ProjectStatus = "draft"
	StatusActive   ProjectStatus = "active"
	StatusArchived ProjectStatus = "archived"
)

// IsValid reports whether the status is known
func (s ProjectStatus) IsValid() bool {
	switch s {
	case StatusDraft, StatusActive, StatusArchived:
		return true
	}
	return false
}

const (
	maxTitleLength    = 200
	maxGenreLength    = 100
	maxSynopsisLength = 10000
)

// Project is the aggregate root for a piece of fiction and its world bible
type Project struct {
	shared.OwnedAggregateRoot
	Title         string        `gorm:"type:varchar(200);not null"`
	Slug          string        `gorm:"type:varchar(100);not null;index"`
	Genre         string        `gorm:"type:varchar(100)"`
	Synopsis      string        `gorm:"type:text"`
	Status        ProjectStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	CoverImageKey string        `gorm:"type:varchar(500)"`
	ArchivedAt    *time.Time
}

// TableName returns the table name for GORM
func (Project) TableName() string {
	return "projects"
}

// NewProject creates a draft project owned by the given user
func NewProject(ownerID uuid.UUID, title string) (*Project, error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Project owner cannot be empty")
	}
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	p := &Project{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		Title:              title,
		Slug:               Slugify(title),
		Status:             StatusDraft,
	}
	p.AddDomainEvent(newProjectEvent(EventTypeProjectCreated, p))
	return p, nil
}

// Rename changes the title and regenerates the slug
func (p *Project) Rename(title string) error {
	title = strings.TrimSpace(title)
	if err := validateTitle(title); err != nil {
		return err
	}
	p.Title = title
	p.Slug = Slugify(title)
	p.markUpdated()
	return nil
}

// AssignSlug replaces the generated slug, used when the base slug is taken
func (p *Project) AssignSlug(slug string) {
	p.Slug = slug
}

// SetDetails updates genre and synopsis
func (p *Project) SetDetails(genre, synopsis string) error {
	genre = strings.TrimSpace(genre)
	if utf8.RuneCountInString(genre) > maxGenreLength {
		return shared.NewDomainError("INVALID_GENRE", "Genre cannot exceed 100 characters")
	}
	if utf8.RuneCountInString(synopsis) > maxSynopsisLength {
		return shared.NewDomainError("INVALID_SYNOPSIS", "Synopsis cannot exceed 10000 characters")
	}
	p.Genre = genre
	p.Synopsis = strings.TrimSpace(synopsis)
	p.markUpdated()
	return nil
}

// SetCoverImage stores the object key of the cover image
func (p *Project) SetCoverImage(key string) {
	p.CoverImageKey = strings.TrimSpace(key)
	p.markUpdated()
}

// Activate moves a draft project into active writing
func (p *Project) Activate() error {
	if p.Status == StatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Project is already active")
	}
	if p.Status == StatusArchived {
		return shared.NewDomainError("INVALID_STATE", "Archived projects must be restored first")
	}
	p.Status = StatusActive
	p.markUpdated()
	return nil
}

// Archive freezes the project; entries can no longer be added
func (p *Project) Archive() error {
	if p.Status == StatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Project is already archived")
	}
	now := time.Now()
	p.Status = StatusArchived
	p.ArchivedAt = &now
	p.MarkModified()
	p.AddDomainEvent(newProjectEvent(EventTypeProjectArchived, p))
	return nil
}

// Restore brings an archived project back as active
func (p *Project) Restore() error {
	if p.Status != StatusArchived {
		return shared.NewDomainError("NOT_ARCHIVED", "Project is not archived")
	}
	p.Status = StatusActive
	p.ArchivedAt = nil
	p.MarkModified()
	p.AddDomainEvent(newProjectEvent(EventTypeProjectRestored, p))
	return nil
}

// IsArchived reports whether the project is archived
func (p *Project) IsArchived() bool {
	return p.Status == StatusArchived
}

// MarkDeleted records the deletion event before the row is removed
func (p *Project) MarkDeleted() {
	p.AddDomainEvent(newProjectEvent(EventTypeProjectDeleted, p))
}

func (p *Project) markUpdated() {
	p.MarkModified()
	p.AddDomainEvent(newProjectEvent(EventTypeProjectUpdated, p))
}

func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Project title cannot be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return shared.NewDomainError("INVALID_TITLE", "Project title cannot exceed 200 characters")
	}
	return nil
}

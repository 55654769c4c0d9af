package worldbible

import (
	"strings"
	"unicode/utf8"

	"github.com/fablecraft/backend/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	maxNameLength        = 200
	maxDescriptionLength = 20000
	maxTags              = 50
	maxImageKeyLength    = 500
)

// Attributes is implemented by the kind-specific part of an entry.
// Implementations are plain value types so the zero value can answer Kind.
type Attributes interface {
	// Kind returns the entry kind the attributes belong to
	Kind() Kind
	// Validate checks kind-specific constraints
	Validate() error
	// Fields lists the attributes in display order
	Fields() []Field
}

// Field is a single named attribute, used for export and prompt building
type Field struct {
	Key    string
	Label  string
	Text   string
	List   []string
	IsList bool
}

// Details holds the fields shared by every entry kind
type Details struct {
	Name        string
	Description string
	Tags        shared.StringList
	ImageKey    string
}

// Entry is a world bible record of one kind, scoped to a project and owner
type Entry[A Attributes] struct {
	shared.OwnedAggregateRoot
	ProjectID   uuid.UUID         `gorm:"type:uuid;not null;index"`
	Name        string            `gorm:"type:varchar(200);not null"`
	Description string            `gorm:"type:text"`
	Tags        shared.StringList
	ImageKey    string            `gorm:"type:varchar(500)"`
	Attributes  A                 `gorm:"embedded"`
}

// TableName resolves the per-kind table
func (Entry[A]) TableName() string {
	var attrs A
	return attrs.Kind().Table()
}

// Kind returns the kind of the entry
func (e *Entry[A]) Kind() Kind {
	return e.Attributes.Kind()
}

// Concrete entry types
type (
	Character     = Entry[CharacterAttributes]
	Location      = Entry[LocationAttributes]
	Item          = Entry[ItemAttributes]
	MagicSystem   = Entry[MagicSystemAttributes]
	Organization  = Entry[OrganizationAttributes]
	TimelineEvent = Entry[TimelineEventAttributes]
	Language      = Entry[LanguageAttributes]
	Creature      = Entry[CreatureAttributes]
)

// NewEntry validates and creates a new entry
func NewEntry[A Attributes](ownerID, projectID uuid.UUID, details Details, attrs A) (*Entry[A], error) {
	if ownerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_OWNER", "Entry owner cannot be empty")
	}
	if projectID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROJECT", "Entry project cannot be empty")
	}
	details = details.normalized()
	if err := details.validate(); err != nil {
		return nil, err
	}
	if err := attrs.Validate(); err != nil {
		return nil, err
	}

	e := &Entry[A]{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ownerID),
		ProjectID:          projectID,
		Attributes:         attrs,
	}
	e.applyDetails(details)
	e.AddDomainEvent(newEntryEvent(EventTypeEntryCreated, e.Kind(), e.ID, e.OwnerID, e.ProjectID, e.Name))
	return e, nil
}

// Update replaces the shared details and the attributes
func (e *Entry[A]) Update(details Details, attrs A) error {
	details = details.normalized()
	if err := details.validate(); err != nil {
		return err
	}
	if err := attrs.Validate(); err != nil {
		return err
	}
	e.applyDetails(details)
	e.Attributes = attrs
	e.MarkModified()
	e.AddDomainEvent(newEntryEvent(EventTypeEntryUpdated, e.Kind(), e.ID, e.OwnerID, e.ProjectID, e.Name))
	return nil
}

// SetImage records the object key of the entry image
func (e *Entry[A]) SetImage(key string) error {
	key = strings.TrimSpace(key)
	if len(key) > maxImageKeyLength {
		return shared.NewDomainError("INVALID_IMAGE_KEY", "Image key is too long")
	}
	e.ImageKey = key
	e.MarkModified()
	e.AddDomainEvent(newEntryEvent(EventTypeEntryUpdated, e.Kind(), e.ID, e.OwnerID, e.ProjectID, e.Name))
	return nil
}

// MarkDeleted records the deletion event before the row is removed
func (e *Entry[A]) MarkDeleted() {
	e.AddDomainEvent(newEntryEvent(EventTypeEntryDeleted, e.Kind(), e.ID, e.OwnerID, e.ProjectID, e.Name))
}

// CurrentDetails returns the shared fields as a Details value
func (e *Entry[A]) CurrentDetails() Details {
	return Details{
		Name:        e.Name,
		Description: e.Description,
		Tags:        e.Tags,
		ImageKey:    e.ImageKey,
	}
}

func (e *Entry[A]) applyDetails(d Details) {
	e.Name = d.Name
	e.Description = d.Description
	e.Tags = d.Tags
	e.ImageKey = d.ImageKey
}

func (d Details) normalized() Details {
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.ImageKey = strings.TrimSpace(d.ImageKey)
	d.Tags = shared.NewStringList(d.Tags...)
	return d
}

func (d Details) validate() error {
	if d.Name == "" {
		return shared.NewDomainError("INVALID_NAME", "Name cannot be empty")
	}
	if utf8.RuneCountInString(d.Name) > maxNameLength {
		return shared.NewDomainError("INVALID_NAME", "Name cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Description cannot exceed 20000 characters")
	}
	if len(d.Tags) > maxTags {
		return shared.NewDomainError("INVALID_TAGS", "An entry cannot have more than 50 tags")
	}
	if len(d.ImageKey) > maxImageKeyLength {
		return shared.NewDomainError("INVALID_IMAGE_KEY", "Image key is too long")
	}
	return nil
}

package shared

import (
	"time"

	"github.com/google/uuid"
)

// AggregateRoot is anything that queues domain events until it is saved
type AggregateRoot interface {
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseEntity carries identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch bumps the update timestamp without a new version
func (e *BaseEntity) Touch() {
	e.UpdatedAt = time.Now()
}

func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

// BaseAggregateRoot adds the optimistic-locking version and the pending
// event queue. Version starts at 1 and is compared on every update.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int           `gorm:"not null;default:1"`
	domainEvents []DomainEvent `gorm:"-"`
	persisted    bool
}

func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity(), Version: 1}
}

// GetVersion returns the version the aggregate was loaded or created with
func (a *BaseAggregateRoot) GetVersion() int { return a.Version }

// MarkModified records a user-visible change: new timestamp, next version
func (a *BaseAggregateRoot) MarkModified() {
	a.Touch()
	a.Version++
}

// MarkPersisted records that the aggregate has a stored row. Repositories
// call it after loading or inserting.
func (a *BaseAggregateRoot) MarkPersisted() { a.persisted = true }

// IsPersisted reports whether the next save must update an existing row
func (a *BaseAggregateRoot) IsPersisted() bool { return a.persisted }

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent { return a.domainEvents }

func (a *BaseAggregateRoot) ClearDomainEvents() { a.domainEvents = nil }

// OwnedAggregateRoot scopes an aggregate to the user who owns it.
// Every query against an owned aggregate must filter by OwnerID.
type OwnedAggregateRoot struct {
	BaseAggregateRoot
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
}

func NewOwnedAggregateRoot(ownerID uuid.UUID) OwnedAggregateRoot {
	return OwnedAggregateRoot{BaseAggregateRoot: NewBaseAggregateRoot(), OwnerID: ownerID}
}

// IsOwnedBy reports whether the aggregate belongs to the given user
func (o *OwnedAggregateRoot) IsOwnedBy(userID uuid.UUID) bool {
	return o.OwnerID == userID
}

package shared

import (
	"time"

	"github.com/google/uuid"
)

// StoreAggregateRoot is embedded by every store-scoped aggregate. It carries
// the identity and audit columns, the version column for optimistic locking,
// and the pending domain events raised since the last save. Events live only
// in memory; the repository never persists them.
type StoreAggregateRoot struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time
	UpdatedAt time.Time

	domainEvents []DomainEvent `gorm:"-"`
}

// NewStoreAggregateRoot mints an aggregate root for the given store
func NewStoreAggregateRoot(storeID uuid.UUID) StoreAggregateRoot {
	now := time.Now()
	return StoreAggregateRoot{
		ID:        uuid.New(),
		StoreID:   storeID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddDomainEvent queues an event for publication after the next save
func (a *StoreAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the pending domain events
func (a *StoreAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the pending domain events
func (a *StoreAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}

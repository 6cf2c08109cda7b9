// Package domain holds the identity, aggregate and event building blocks shared
// by every bounded context.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity carries identity and timestamps.
type BaseEntity struct {
	id        uuid.UUID
	createdAt time.Time
	updatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh ID stamped at now (UTC).
func NewBaseEntity() BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{id: uuid.New(), createdAt: now, updatedAt: now}
}

// RehydrateBaseEntity recreates an entity from persisted state.
func RehydrateBaseEntity(id uuid.UUID, createdAt, updatedAt time.Time) BaseEntity {
	return BaseEntity{id: id, createdAt: createdAt, updatedAt: updatedAt}
}

func (e BaseEntity) ID() uuid.UUID        { return e.id }
func (e BaseEntity) CreatedAt() time.Time { return e.createdAt }
func (e BaseEntity) UpdatedAt() time.Time { return e.updatedAt }

// Touch moves updatedAt to now.
func (e *BaseEntity) Touch() {
	e.updatedAt = time.Now().UTC()
}

// BaseAggregateRoot records uncommitted events and an optimistic version.
type BaseAggregateRoot struct {
	BaseEntity
	events  []DomainEvent
	version int
}

// NewBaseAggregateRoot creates an aggregate root with a fresh identity.
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: NewBaseEntity()}
}

// RehydrateBaseAggregateRoot recreates an aggregate root from persisted state.
func RehydrateBaseAggregateRoot(entity BaseEntity, version int) BaseAggregateRoot {
	return BaseAggregateRoot{BaseEntity: entity, version: version}
}

// AddDomainEvent queues an event for publication.
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.events = append(a.events, event)
}

// DomainEvents returns the queued events without clearing them.
func (a *BaseAggregateRoot) DomainEvents() []DomainEvent {
	return a.events
}

// PullDomainEvents returns the queued events and clears the queue.
func (a *BaseAggregateRoot) PullDomainEvents() []DomainEvent {
	events := a.events
	a.events = nil
	return events
}

// Version returns the persisted version.
func (a *BaseAggregateRoot) Version() int {
	return a.version
}

// IncrementVersion bumps the version after a successful write.
func (a *BaseAggregateRoot) IncrementVersion() {
	a.version++
}

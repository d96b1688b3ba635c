// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"ecoleta_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Points Domain Events
// =============================================================================

// PointRegistered is published after a collection point is persisted.
type PointRegistered struct {
	BaseEvent
	PointID uuid.UUID `json:"pointId"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	UF      string    `json:"uf"`
	City    string    `json:"city"`
	ItemIDs []string  `json:"itemIds"`
}

func (e PointRegistered) EventName() string { return "points.point.registered" }

// PointImageAttached is published when a photo is stored for a point.
type PointImageAttached struct {
	BaseEvent
	PointID  uuid.UUID `json:"pointId"`
	ImageKey string    `json:"imageKey"`
}

func (e PointImageAttached) EventName() string { return "points.point.image_attached" }

// =============================================================================
// Catalog Domain Events
// =============================================================================

// ItemCreated is published when an admin adds an item category.
type ItemCreated struct {
	BaseEvent
	ItemID uuid.UUID `json:"itemId"`
	Title  string    `json:"title"`
}

func (e ItemCreated) EventName() string { return "catalog.item.created" }

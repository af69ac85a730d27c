// Package events defines the real-time event catalogue and the publisher
// contract used to fan committed changes out to connected editors.
//
// Delivery is at-most-once. A client that misses an event re-fetches state.
package events

import (
	"context"
	"time"
)

// DefaultRoom is the room every collaborator joins today.
const DefaultRoom = "main"

// Event names understood by the client.
const (
	WorkerAssigned            = "worker-assigned"
	WorkerUnassigned          = "worker-unassigned"
	WorkerPresenceUpdated     = "worker-presence-updated"
	WorkerTypeChanged         = "worker-type-changed"
	WorkerOriginalPostUpdated = "worker-original-post-updated"
	PlanCreated               = "plan-created"
	PlanUpdated               = "plan-updated"
	PlanDeleted               = "plan-deleted"
	PostUpdated               = "post-updated"
	PostDeleted               = "post-deleted"
)

// Event is one broadcast message. Payload is serialized as-is.
type Event struct {
	Room    string    `json:"room"`
	Name    string    `json:"event"`
	Payload any       `json:"data"`
	At      time.Time `json:"at"`
}

// Publisher delivers events to every subscriber of a room.
// Implementations must not block the caller on slow subscribers.
type Publisher interface {
	Publish(ctx context.Context, room, name string, payload any) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, room, name string, payload any) error

func (f PublisherFunc) Publish(ctx context.Context, room, name string, payload any) error {
	return f(ctx, room, name, payload)
}

// Nop discards every event.
var Nop Publisher = PublisherFunc(func(context.Context, string, string, any) error { return nil })

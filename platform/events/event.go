// Package events provides the in-process event bus the modules use to talk
// to each other without direct imports.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish delivers the event to every handler registered for its name.
	// Delivery is asynchronous; handler errors never reach the publisher.
	Publish(ctx context.Context, event Event)

	// PublishSync delivers the event and waits for all handlers, returning
	// their joined errors.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler under an event name, which must match
	// what the event's EventName method returns.
	Subscribe(eventName string, handler Handler)
}

// Event is implemented by every domain event.
type Event interface {
	// EventName uniquely identifies the event type.
	EventName() string
	// OccurredAt returns when the event happened.
	OccurredAt() time.Time
}

// Handler consumes events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function to the Handler interface.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// BaseEvent carries the fields shared by all events. Embed it and implement
// EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a new event with the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now().UTC()}
}

// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"consultancy_site_backend/platform/events"

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
// Contact Domain Events
// =============================================================================

// ContactSubmitted is published when a visitor submits the contact form.
// The sync engine reacts by pushing the submission to the CRM out-of-band.
type ContactSubmitted struct {
	BaseEvent
	SubmissionID uuid.UUID `json:"submissionId"`
	Email        string    `json:"email"`
}

func (e ContactSubmitted) EventName() string { return "contacts.submission.created" }

// =============================================================================
// User Domain Events
// =============================================================================

// UserRegistered is published when a new user account is created.
type UserRegistered struct {
	BaseEvent
	UserID uuid.UUID `json:"userId"`
	Email  string    `json:"email"`
}

func (e UserRegistered) EventName() string { return "users.registered" }

// =============================================================================
// Order Domain Events
// =============================================================================

// OrderPlaced is published after an order is persisted and its fulfillment
// mode decided. Notification handlers use it for confirmation emails.
type OrderPlaced struct {
	BaseEvent
	OrderID         uuid.UUID `json:"orderId"`
	OrderNumber     string    `json:"orderNumber"`
	CustomerEmail   string    `json:"customerEmail"`
	CustomerName    string    `json:"customerName"`
	TotalCents      int64     `json:"totalCents"`
	FulfillmentMode string    `json:"fulfillmentMode"`
	PaymentURL      string    `json:"paymentUrl,omitempty"`
}

func (e OrderPlaced) EventName() string { return "orders.placed" }

// =============================================================================
// Sync Domain Events
// =============================================================================

// SyncFailed is published when a CRM sync attempt leaves an entity in a
// failed state. Operators get an alert with the verbatim diagnostic.
type SyncFailed struct {
	BaseEvent
	EntityType string    `json:"entityType"`
	EntityID   uuid.UUID `json:"entityId"`
	Diagnostic string    `json:"diagnostic"`
}

func (e SyncFailed) EventName() string { return "sync.failed" }

package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/sync"
)

// FulfillmentMode is the terminal outcome of order fulfillment, decided once
// at creation time and stored for later display.
type FulfillmentMode string

const (
	// ModePaidRedirect means the CRM issued a production invoice with a
	// payment link the customer is redirected to.
	ModePaidRedirect FulfillmentMode = "paid_redirect"
	// ModeSandboxDemo means the CRM returned sandbox identifiers; the
	// payment link is not real and must not be shown as payable.
	ModeSandboxDemo FulfillmentMode = "sandbox_demo"
	// ModeDeferredInvoice means no usable invoice exists yet; the business
	// invoices manually later.
	ModeDeferredInvoice FulfillmentMode = "deferred_invoice"
)

// OrderItem is a line item priced against the catalog at order time.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ServiceID      uuid.UUID
	Title          string
	PillarName     string
	Quantity       int
	UnitPriceCents int64
}

// Order is a placed order with its customer snapshot, fulfillment outcome
// and the CRM sync sub-record for the customer contact.
type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	FirstName       string
	LastName        string
	Email           string
	Phone           *string
	Company         *string
	Notes           *string
	TotalCents      int64
	FulfillmentMode FulfillmentMode
	PaymentURL      *string
	CRMInvoiceID    *string
	Sync            sync.Record
	Items           []OrderItem
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ItemParams is a resolved line item ready for persistence.
type ItemParams struct {
	ServiceID      uuid.UUID
	Title          string
	PillarName     string
	Quantity       int
	UnitPriceCents int64
}

// CreateParams carries the fields needed to persist an order.
type CreateParams struct {
	OrderNumber string
	FirstName   string
	LastName    string
	Email       string
	Phone       *string
	Company     *string
	Notes       *string
	TotalCents  int64
	Items       []ItemParams
}

// FulfillmentResult is the orchestrator's decision persisted on the order.
type FulfillmentResult struct {
	Mode         FulfillmentMode
	PaymentURL   *string
	CRMInvoiceID *string
}

// ListParams contains filters and pagination for the admin order list.
type ListParams struct {
	Search string
	Mode   *FulfillmentMode
	Offset int
	Limit  int
}

// Reader provides read access to orders.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Order, error)
	GetByNumber(ctx context.Context, orderNumber string) (Order, error)
	List(ctx context.Context, params ListParams) ([]Order, int, error)
}

// Writer provides write access to orders.
type Writer interface {
	Create(ctx context.Context, params CreateParams) (Order, error)
	SaveFulfillment(ctx context.Context, id uuid.UUID, result FulfillmentResult) error
	SaveSync(ctx context.Context, id uuid.UUID, rec sync.Record) error
}

// Repository combines read and write access.
type Repository interface {
	Reader
	Writer
}

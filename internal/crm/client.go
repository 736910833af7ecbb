// Package crm isolates the SuiteDash CRM integration behind a small,
// capability-aware client interface. Everything vendor-specific (request
// shapes, auth headers, placeholder-id conventions) stays inside this package.
package crm

import (
	"context"
	"strings"
)

// Profile is the contact data pushed to the CRM. Email is the idempotency key:
// upserting the same email twice must not create a second remote contact.
type Profile struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Company   string
}

// Contact is the remote contact as known by the CRM.
type Contact struct {
	ID    string
	Email string
}

// LineItem is a single order line forwarded to invoice creation.
type LineItem struct {
	Title      string
	PillarName string
	Quantity   int
	// UnitPriceCents is the catalog price in cents.
	UnitPriceCents int64
}

// Invoice is the remote invoice created for an order.
type Invoice struct {
	ID         string
	PaymentURL string
}

// Client is the capability-abstracted CRM adapter. Implementations must be
// safe for concurrent use and hold no mutable state beyond construction-time
// configuration.
type Client interface {
	// UpsertContact creates or updates a remote contact keyed by email.
	// Returns ErrNotConfigured without network I/O when unconfigured.
	UpsertContact(ctx context.Context, profile Profile) (Contact, error)

	// CreateInvoice creates an invoice for the given contact. Callers should
	// check SupportsInvoicing first; calling it on a client without the
	// capability fails fast with ErrCapabilityUnavailable.
	CreateInvoice(ctx context.Context, contactID string, items []LineItem) (Invoice, error)

	// IsConfigured reports whether CRM credentials are present.
	IsConfigured() bool

	// SupportsInvoicing reports whether invoice creation is available
	// (credentials present and the plan includes invoicing).
	SupportsInvoicing() bool

	// IsProduction reports whether the client talks to a production CRM
	// environment. False means every identifier it returns is a demo/sandbox
	// identifier regardless of its shape.
	IsProduction() bool
}

// sandboxPrefixes are the vendor's placeholder-id conventions for
// non-production identifiers. Kept as a compatibility shim for older
// responses that carry no explicit environment flag.
var sandboxPrefixes = []string{"demo-", "demo_", "sandbox-", "sandbox_", "test-", "test_"}

// IsSandboxID reports whether an identifier matches the vendor's
// placeholder-id convention for non-production environments.
func IsSandboxID(id string) bool {
	lowered := strings.ToLower(strings.TrimSpace(id))
	for _, prefix := range sandboxPrefixes {
		if strings.HasPrefix(lowered, prefix) {
			return true
		}
	}
	return false
}

package crm

import "context"

// DisabledClient is the Client used when no CRM credentials are configured.
// Every operation short-circuits with ErrNotConfigured and performs no
// network I/O.
type DisabledClient struct{}

func (DisabledClient) UpsertContact(context.Context, Profile) (Contact, error) {
	return Contact{}, ErrNotConfigured
}

func (DisabledClient) CreateInvoice(context.Context, string, []LineItem) (Invoice, error) {
	return Invoice{}, ErrNotConfigured
}

func (DisabledClient) IsConfigured() bool { return false }

func (DisabledClient) SupportsInvoicing() bool { return false }

func (DisabledClient) IsProduction() bool { return false }

// Compile-time check that DisabledClient implements Client.
var _ Client = DisabledClient{}

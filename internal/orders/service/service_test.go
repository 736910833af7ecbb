package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	catalogrepo "consultancy_site_backend/internal/catalog/repository"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/orders/repository"
	"consultancy_site_backend/internal/orders/transport"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"
	"consultancy_site_backend/platform/events"
	"consultancy_site_backend/platform/logger"
)

// fakeRepo keeps orders in memory and can simulate order-number collisions.
type fakeRepo struct {
	orders         map[uuid.UUID]repository.Order
	collisionsLeft int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: make(map[uuid.UUID]repository.Order)}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Order, error) {
	if r.collisionsLeft > 0 {
		r.collisionsLeft--
		return repository.Order{}, repository.ErrDuplicateOrderNumber
	}
	order := repository.Order{
		ID:              uuid.New(),
		OrderNumber:     params.OrderNumber,
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		Email:           params.Email,
		Phone:           params.Phone,
		Company:         params.Company,
		Notes:           params.Notes,
		TotalCents:      params.TotalCents,
		FulfillmentMode: repository.ModeDeferredInvoice,
		Sync:            syncengine.NewRecord(),
		CreatedAt:       time.Now().UTC(),
		UpdatedAt:       time.Now().UTC(),
	}
	for _, item := range params.Items {
		order.Items = append(order.Items, repository.OrderItem{
			ID:             uuid.New(),
			OrderID:        order.ID,
			ServiceID:      item.ServiceID,
			Title:          item.Title,
			PillarName:     item.PillarName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	r.orders[order.ID] = order
	return order, nil
}

func (r *fakeRepo) SaveFulfillment(_ context.Context, id uuid.UUID, result repository.FulfillmentResult) error {
	order, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	order.FulfillmentMode = result.Mode
	order.PaymentURL = result.PaymentURL
	order.CRMInvoiceID = result.CRMInvoiceID
	r.orders[id] = order
	return nil
}

func (r *fakeRepo) SaveSync(_ context.Context, id uuid.UUID, rec syncengine.Record) error {
	order, ok := r.orders[id]
	if !ok {
		return apperr.NotFound("order not found")
	}
	order.Sync = rec
	r.orders[id] = order
	return nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Order, error) {
	order, ok := r.orders[id]
	if !ok {
		return repository.Order{}, apperr.NotFound("order not found")
	}
	return order, nil
}

func (r *fakeRepo) GetByNumber(_ context.Context, orderNumber string) (repository.Order, error) {
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return repository.Order{}, apperr.NotFound("order not found")
}

func (r *fakeRepo) List(_ context.Context, _ repository.ListParams) ([]repository.Order, int, error) {
	out := make([]repository.Order, 0, len(r.orders))
	for _, order := range r.orders {
		out = append(out, order)
	}
	return out, len(out), nil
}

// fakeCatalog serves offerings from a fixed map.
type fakeCatalog struct {
	offerings map[uuid.UUID]catalogrepo.Offering
}

func (c *fakeCatalog) GetOffering(_ context.Context, id uuid.UUID) (catalogrepo.Offering, error) {
	offering, ok := c.offerings[id]
	if !ok {
		return catalogrepo.Offering{}, apperr.NotFound("service not found")
	}
	return offering, nil
}

func (c *fakeCatalog) GetOfferingsByIDs(_ context.Context, ids []uuid.UUID) ([]catalogrepo.Offering, error) {
	var out []catalogrepo.Offering
	for _, id := range ids {
		if offering, ok := c.offerings[id]; ok {
			out = append(out, offering)
		}
	}
	return out, nil
}

func (c *fakeCatalog) ListOfferings(_ context.Context) ([]catalogrepo.Offering, error) {
	var out []catalogrepo.Offering
	for _, offering := range c.offerings {
		out = append(out, offering)
	}
	return out, nil
}

func (c *fakeCatalog) ListActiveOfferings(_ context.Context) ([]catalogrepo.Offering, error) {
	var out []catalogrepo.Offering
	for _, offering := range c.offerings {
		if offering.IsActive {
			out = append(out, offering)
		}
	}
	return out, nil
}

// stubClient is a scriptable CRM client.
type stubClient struct {
	configured   bool
	invoicing    bool
	production   bool
	contactID    string
	upsertErr    error
	invoice      crm.Invoice
	invoiceErr   error
	invoiceCalls int
}

func (c *stubClient) UpsertContact(_ context.Context, profile crm.Profile) (crm.Contact, error) {
	if c.upsertErr != nil {
		return crm.Contact{}, c.upsertErr
	}
	return crm.Contact{ID: c.contactID, Email: profile.Email}, nil
}

func (c *stubClient) CreateInvoice(_ context.Context, _ string, _ []crm.LineItem) (crm.Invoice, error) {
	c.invoiceCalls++
	if c.invoiceErr != nil {
		return crm.Invoice{}, c.invoiceErr
	}
	return c.invoice, nil
}

func (c *stubClient) IsConfigured() bool      { return c.configured }
func (c *stubClient) SupportsInvoicing() bool { return c.invoicing }
func (c *stubClient) IsProduction() bool      { return c.production }

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *fakeRepo
	client   *stubClient
	bus      *recordingBus
	audit    uuid.UUID
	retainer uuid.UUID
}

func newFixture(client *stubClient) *fixture {
	auditID := uuid.New()
	retainerID := uuid.New()
	inactiveID := uuid.New()
	catalog := &fakeCatalog{offerings: map[uuid.UUID]catalogrepo.Offering{
		auditID: {
			ID: auditID, Title: "Strategy Audit", PillarName: "Consulting",
			PriceCents: 150000, IsActive: true,
		},
		retainerID: {
			ID: retainerID, Title: "Monthly Retainer", PillarName: "Consulting",
			PriceCents: 500000, IsActive: true,
		},
		inactiveID: {
			ID: inactiveID, Title: "Legacy Package", PillarName: "Consulting",
			PriceCents: 10000, IsActive: false,
		},
	}}

	log := logger.New("test")
	repo := newFakeRepo()
	bus := &recordingBus{}
	engine := syncengine.NewEngine(client, log)
	svc := New(repo, catalog, engine, client, bus, log)
	return &fixture{svc: svc, repo: repo, client: client, bus: bus, audit: auditID, retainer: retainerID}
}

func orderRequest(items ...transport.ItemRequest) transport.CreateOrderRequest {
	return transport.CreateOrderRequest{
		Customer: transport.CustomerRequest{
			FirstName: "Grace",
			LastName:  "Hopper",
			Email:     "Grace.Hopper@Example.com",
		},
		Items: items,
	}
}

func TestCreateOrderPaidRedirect(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: true,
		contactID: "c-77",
		invoice:   crm.Invoice{ID: "inv-1", PaymentURL: "https://pay.example.com/inv-1"},
	}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 2},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModePaidRedirect) {
		t.Fatalf("expected paid_redirect, got %q", resp.Fulfillment.Mode)
	}
	if resp.Fulfillment.PaymentURL == nil || *resp.Fulfillment.PaymentURL != "https://pay.example.com/inv-1" {
		t.Fatalf("expected payment url, got %v", resp.Fulfillment.PaymentURL)
	}
	if resp.TotalCents != 300000 {
		t.Fatalf("expected server-priced total 300000, got %d", resp.TotalCents)
	}
	if resp.Email != "grace.hopper@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}
	if len(f.bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(f.bus.published))
	}
}

func TestCreateOrderSandboxWhenNotProduction(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: false,
		contactID: "c-77",
		invoice:   crm.Invoice{ID: "inv-1", PaymentURL: "https://pay.example.com/inv-1"},
	}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeSandboxDemo) {
		t.Fatalf("expected sandbox_demo, got %q", resp.Fulfillment.Mode)
	}
	if resp.Fulfillment.PaymentURL != nil {
		t.Fatalf("sandbox order must not carry a payment url, got %q", *resp.Fulfillment.PaymentURL)
	}
	if resp.Fulfillment.CRMInvoiceID == nil || *resp.Fulfillment.CRMInvoiceID != "inv-1" {
		t.Fatalf("expected invoice reference kept, got %v", resp.Fulfillment.CRMInvoiceID)
	}
}

func TestCreateOrderSandboxOnPlaceholderIDs(t *testing.T) {
	cases := map[string]*stubClient{
		"sandbox invoice id": {
			configured: true, invoicing: true, production: true,
			contactID: "c-77",
			invoice:   crm.Invoice{ID: "demo-inv-1", PaymentURL: "https://pay.example.com/x"},
		},
		"sandbox contact id": {
			configured: true, invoicing: true, production: true,
			contactID: "test_55",
			invoice:   crm.Invoice{ID: "inv-1", PaymentURL: "https://pay.example.com/x"},
		},
	}
	for name, client := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(client)
			resp, err := f.svc.Create(context.Background(), orderRequest(
				transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
			))
			if err != nil {
				t.Fatalf("Create: %v", err)
			}
			if resp.Fulfillment.Mode != string(repository.ModeSandboxDemo) {
				t.Fatalf("expected sandbox_demo, got %q", resp.Fulfillment.Mode)
			}
			if resp.Fulfillment.PaymentURL != nil {
				t.Fatalf("sandbox order must not carry a payment url, got %q", *resp.Fulfillment.PaymentURL)
			}
		})
	}
}

func TestCreateOrderDeferredWithoutInvoicing(t *testing.T) {
	client := &stubClient{configured: true, invoicing: false, production: true, contactID: "c-77"}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeDeferredInvoice) {
		t.Fatalf("expected deferred_invoice, got %q", resp.Fulfillment.Mode)
	}
	if client.invoiceCalls != 0 {
		t.Fatalf("invoice endpoint must not be called without the capability, got %d calls", client.invoiceCalls)
	}
}

func TestCreateOrderDeferredWhenContactSyncFails(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: true,
		upsertErr: &crm.NetworkError{Op: "upsert contact", Err: errors.New("connection refused")},
	}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("a CRM outage must not fail order creation: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeDeferredInvoice) {
		t.Fatalf("expected deferred_invoice, got %q", resp.Fulfillment.Mode)
	}
	if client.invoiceCalls != 0 {
		t.Fatal("no invoice attempt expected when the contact sync failed")
	}
}

func TestCreateOrderDeferredWhenCRMUnconfigured(t *testing.T) {
	client := &stubClient{configured: false}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeDeferredInvoice) {
		t.Fatalf("expected deferred_invoice, got %q", resp.Fulfillment.Mode)
	}
}

func TestCreateOrderDeferredWhenInvoiceFails(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: true,
		contactID:  "c-77",
		invoiceErr: &crm.RemoteError{Code: 422, Message: "invalid line item"},
	}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("an invoice rejection must not fail order creation: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeDeferredInvoice) {
		t.Fatalf("expected deferred_invoice, got %q", resp.Fulfillment.Mode)
	}
}

func TestCreateOrderDeferredWhenInvoiceHasNoPaymentURL(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: true,
		contactID: "c-77",
		invoice:   crm.Invoice{ID: "inv-9"},
	}
	f := newFixture(client)

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if resp.Fulfillment.Mode != string(repository.ModeDeferredInvoice) {
		t.Fatalf("expected deferred_invoice, got %q", resp.Fulfillment.Mode)
	}
	if resp.Fulfillment.CRMInvoiceID == nil || *resp.Fulfillment.CRMInvoiceID != "inv-9" {
		t.Fatalf("invoice id should be kept for manual follow-up, got %v", resp.Fulfillment.CRMInvoiceID)
	}
	if resp.Fulfillment.PaymentURL != nil {
		t.Fatal("deferred outcome must not expose a payment url")
	}
}

func TestCreateOrderRejectsUnknownOrInactiveService(t *testing.T) {
	client := &stubClient{configured: true, invoicing: true, production: true, contactID: "c-77"}
	f := newFixture(client)

	_, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: uuid.New(), Quantity: 1},
	))
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for unknown service, got %v", err)
	}
	if len(f.repo.orders) != 0 {
		t.Fatal("no order should be persisted for an invalid item")
	}
}

func TestCreateOrderRetriesNumberCollision(t *testing.T) {
	client := &stubClient{configured: true, invoicing: true, production: true,
		contactID: "c-77",
		invoice:   crm.Invoice{ID: "inv-1", PaymentURL: "https://pay.example.com/x"},
	}
	f := newFixture(client)
	f.repo.collisionsLeft = 2

	resp, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.audit, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create should retry past collisions: %v", err)
	}
	if resp.OrderNumber == "" {
		t.Fatal("expected an allocated order number")
	}
}

func TestGetByNumberReturnsStoredMode(t *testing.T) {
	client := &stubClient{
		configured: true, invoicing: true, production: false,
		contactID: "c-77",
		invoice:   crm.Invoice{ID: "inv-1", PaymentURL: "https://pay.example.com/x"},
	}
	f := newFixture(client)

	created, err := f.svc.Create(context.Background(), orderRequest(
		transport.ItemRequest{ServiceID: f.retainer, Quantity: 1},
	))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.Fulfillment.Mode != string(repository.ModeSandboxDemo) {
		t.Fatalf("precondition: expected sandbox_demo, got %q", created.Fulfillment.Mode)
	}

	// Flipping the environment afterwards must not change the stored outcome.
	client.production = true

	got, err := f.svc.GetByNumber(context.Background(), created.OrderNumber)
	if err != nil {
		t.Fatalf("GetByNumber: %v", err)
	}
	if got.Fulfillment.Mode != string(repository.ModeSandboxDemo) {
		t.Fatalf("stored mode must be returned as-is, got %q", got.Fulfillment.Mode)
	}
}

func TestGenerateOrderNumberShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number := generateOrderNumber()
		if len(number) != len("ORD-20250101-0000") {
			t.Fatalf("unexpected order number shape: %q", number)
		}
		seen[number] = true
	}
	if len(seen) < 2 {
		t.Fatal("order numbers should vary across generations")
	}
}

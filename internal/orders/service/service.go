package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogrepo "consultancy_site_backend/internal/catalog/repository"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/events"
	"consultancy_site_backend/internal/orders/repository"
	"consultancy_site_backend/internal/orders/transport"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/phone"
)

const syncKindOrder = "order"

// orderNumberAttempts bounds retries on an order-number collision.
const orderNumberAttempts = 5

// Service provides business logic for orders and their fulfillment.
type Service struct {
	repo     repository.Repository
	catalog  catalogrepo.OfferingReader
	engine   *syncengine.Engine
	client   crm.Client
	eventBus events.Bus
	log      *logger.Logger
}

// New creates a new orders service.
func New(repo repository.Repository, catalog catalogrepo.OfferingReader, engine *syncengine.Engine, client crm.Client, eventBus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, engine: engine, client: client, eventBus: eventBus, log: log}
}

// Create persists an order and runs the fulfillment orchestrator. The order
// row is durable before any CRM call; a CRM outage downgrades the outcome to
// deferred_invoice but never fails the order.
func (s *Service) Create(ctx context.Context, req transport.CreateOrderRequest) (transport.OrderResponse, error) {
	items, total, err := s.resolveItems(ctx, req.Items)
	if err != nil {
		return transport.OrderResponse{}, err
	}

	params := repository.CreateParams{
		FirstName:  strings.TrimSpace(req.Customer.FirstName),
		LastName:   strings.TrimSpace(req.Customer.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Customer.Email)),
		Company:    req.Customer.Company,
		Notes:      req.Notes,
		TotalCents: total,
		Items:      items,
	}
	if req.Customer.Phone != nil {
		normalized := phone.NormalizeE164(*req.Customer.Phone)
		params.Phone = &normalized
	}

	var order repository.Order
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		params.OrderNumber = generateOrderNumber()
		order, err = s.repo.Create(ctx, params)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicateOrderNumber) {
			return transport.OrderResponse{}, err
		}
	}
	if err != nil {
		return transport.OrderResponse{}, apperr.Internal("could not allocate order number")
	}

	s.log.Info("order created", "orderNumber", order.OrderNumber, "totalCents", order.TotalCents)

	result := s.fulfill(ctx, order)
	if err := s.repo.SaveFulfillment(ctx, order.ID, result); err != nil {
		return transport.OrderResponse{}, err
	}

	order, err = s.repo.GetByID(ctx, order.ID)
	if err != nil {
		return transport.OrderResponse{}, err
	}

	s.log.Info("order fulfillment decided",
		"orderNumber", order.OrderNumber, "mode", string(order.FulfillmentMode))

	event := events.OrderPlaced{
		BaseEvent:       events.NewBaseEvent(),
		OrderID:         order.ID,
		OrderNumber:     order.OrderNumber,
		CustomerEmail:   order.Email,
		CustomerName:    order.FirstName + " " + order.LastName,
		TotalCents:      order.TotalCents,
		FulfillmentMode: string(order.FulfillmentMode),
	}
	if order.PaymentURL != nil {
		event.PaymentURL = *order.PaymentURL
	}
	s.eventBus.Publish(ctx, event)

	return toResponse(order), nil
}

// GetByNumber retrieves an order by its public order number. The stored
// fulfillment mode is returned as-is, never recomputed.
func (s *Service) GetByNumber(ctx context.Context, orderNumber string) (transport.OrderResponse, error) {
	order, err := s.repo.GetByNumber(ctx, orderNumber)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toResponse(order), nil
}

// GetByID retrieves an order for the admin detail view.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.OrderResponse, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.OrderResponse{}, err
	}
	return toResponse(order), nil
}

// List retrieves orders with filters and pagination.
func (s *Service) List(ctx context.Context, req transport.ListOrdersRequest) (transport.OrderListResponse, error) {
	page := req.Page
	pageSize := req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	params := repository.ListParams{
		Search: req.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	}
	if req.FulfillmentMode != "" {
		mode := repository.FulfillmentMode(req.FulfillmentMode)
		params.Mode = &mode
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.OrderListResponse{}, err
	}

	responses := make([]transport.OrderResponse, len(items))
	for i, item := range items {
		responses[i] = toResponse(item)
	}
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return transport.OrderListResponse{
		Items:      responses,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

// resolveItems prices the requested items against the catalog server-side.
func (s *Service) resolveItems(ctx context.Context, reqs []transport.ItemRequest) ([]repository.ItemParams, int64, error) {
	ids := make([]uuid.UUID, len(reqs))
	for i, item := range reqs {
		ids[i] = item.ServiceID
	}

	offerings, err := s.catalog.GetOfferingsByIDs(ctx, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uuid.UUID]catalogrepo.Offering, len(offerings))
	for _, offering := range offerings {
		byID[offering.ID] = offering
	}

	items := make([]repository.ItemParams, 0, len(reqs))
	var total int64
	for _, req := range reqs {
		offering, ok := byID[req.ServiceID]
		if !ok || !offering.IsActive {
			return nil, 0, apperr.Validation(fmt.Sprintf("service %s is not available", req.ServiceID))
		}
		items = append(items, repository.ItemParams{
			ServiceID:      offering.ID,
			Title:          offering.Title,
			PillarName:     offering.PillarName,
			Quantity:       req.Quantity,
			UnitPriceCents: offering.PriceCents,
		})
		total += offering.PriceCents * int64(req.Quantity)
	}
	return items, total, nil
}

func (s *Service) target(order repository.Order) syncengine.Target {
	profile := crm.Profile{
		FirstName: order.FirstName,
		LastName:  order.LastName,
		Email:     order.Email,
	}
	if order.Phone != nil {
		profile.Phone = *order.Phone
	}
	if order.Company != nil {
		profile.Company = *order.Company
	}

	return syncengine.NewTarget(order.ID, syncKindOrder, profile, order.Sync,
		func(ctx context.Context, rec syncengine.Record) error {
			return s.repo.SaveSync(ctx, order.ID, rec)
		})
}

// generateOrderNumber builds a public order number like ORD-20260901-4821.
func generateOrderNumber() string {
	b := make([]byte, 2)
	_, _ = rand.Read(b)
	suffix := (int(b[0])<<8 | int(b[1])) % 10000
	return fmt.Sprintf("ORD-%s-%04d", time.Now().UTC().Format("20060102"), suffix)
}

func toResponse(order repository.Order) transport.OrderResponse {
	resp := transport.OrderResponse{
		ID:          order.ID,
		OrderNumber: order.OrderNumber,
		FirstName:   order.FirstName,
		LastName:    order.LastName,
		Email:       order.Email,
		Phone:       order.Phone,
		Company:     order.Company,
		Notes:       order.Notes,
		TotalCents:  order.TotalCents,
		Fulfillment: transport.FulfillmentResponse{
			Mode:         string(order.FulfillmentMode),
			PaymentURL:   order.PaymentURL,
			CRMContactID: order.Sync.ExternalID,
			CRMInvoiceID: order.CRMInvoiceID,
		},
		CreatedAt: order.CreatedAt.Format(time.RFC3339),
		UpdatedAt: order.UpdatedAt.Format(time.RFC3339),
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, transport.ItemResponse{
			ServiceID:      item.ServiceID,
			Title:          item.Title,
			PillarName:     item.PillarName,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	return resp
}

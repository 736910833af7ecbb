package transport

import "github.com/google/uuid"

// CustomerRequest is the customer profile attached to a new order.
type CustomerRequest struct {
	FirstName string  `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string  `json:"lastName" validate:"required,min=1,max=100"`
	Email     string  `json:"email" validate:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	Company   *string `json:"company,omitempty" validate:"omitempty,max=200"`
}

// ItemRequest names a catalog service and quantity. Prices are resolved
// server-side against the catalog, never trusted from the client.
type ItemRequest struct {
	ServiceID uuid.UUID `json:"serviceId" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=100"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Customer CustomerRequest `json:"customer" validate:"required"`
	Items    []ItemRequest   `json:"items" validate:"required,min=1,max=50,dive"`
	Notes    *string         `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

// ListOrdersRequest contains query filters for the admin order list.
type ListOrdersRequest struct {
	Search          string `form:"search"`
	FulfillmentMode string `form:"fulfillmentMode"`
	Page            int    `form:"page"`
	PageSize        int    `form:"pageSize"`
}

// FulfillmentResponse is the fulfillment outcome shown to the customer.
// PaymentURL is only present for paid_redirect; the UI must never render
// a pay-now button without it.
type FulfillmentResponse struct {
	Mode         string  `json:"mode"`
	PaymentURL   *string `json:"paymentUrl,omitempty"`
	CRMContactID *string `json:"crmContactId,omitempty"`
	CRMInvoiceID *string `json:"crmInvoiceId,omitempty"`
}

// ItemResponse is an order line item in API responses.
type ItemResponse struct {
	ServiceID      uuid.UUID `json:"serviceId"`
	Title          string    `json:"title"`
	PillarName     string    `json:"pillarName"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
}

// OrderResponse represents an order in API responses.
type OrderResponse struct {
	ID          uuid.UUID           `json:"id"`
	OrderNumber string              `json:"orderNumber"`
	FirstName   string              `json:"firstName"`
	LastName    string              `json:"lastName"`
	Email       string              `json:"email"`
	Phone       *string             `json:"phone,omitempty"`
	Company     *string             `json:"company,omitempty"`
	Notes       *string             `json:"notes,omitempty"`
	TotalCents  int64               `json:"totalCents"`
	Fulfillment FulfillmentResponse `json:"fulfillment"`
	Items       []ItemResponse      `json:"items,omitempty"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
}

// OrderListResponse wraps a paginated list of orders.
type OrderListResponse struct {
	Items      []OrderResponse `json:"items"`
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

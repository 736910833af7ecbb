package transport

import "github.com/google/uuid"

// CreatePillarRequest contains data for creating a pillar.
type CreatePillarRequest struct {
	Name         string  `json:"name" validate:"required,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// UpdatePillarRequest contains data for updating a pillar.
type UpdatePillarRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description  *string `json:"description,omitempty" validate:"omitempty,max=500"`
	DisplayOrder *int    `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// CreateServiceRequest contains data for creating a purchasable service.
type CreateServiceRequest struct {
	PillarID     uuid.UUID `json:"pillarId" validate:"required"`
	Title        string    `json:"title" validate:"required,min=1,max=200"`
	Description  *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	PriceCents   int64     `json:"priceCents" validate:"required,min=0"`
	DisplayOrder *int      `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// UpdateServiceRequest contains data for updating a purchasable service.
type UpdateServiceRequest struct {
	PillarID     *uuid.UUID `json:"pillarId,omitempty"`
	Title        *string    `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,max=2000"`
	PriceCents   *int64     `json:"priceCents,omitempty" validate:"omitempty,min=0"`
	IsActive     *bool      `json:"isActive,omitempty"`
	DisplayOrder *int       `json:"displayOrder,omitempty" validate:"omitempty,min=0"`
}

// PillarResponse represents a pillar in API responses.
type PillarResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

// ServiceResponse represents a purchasable service in API responses.
type ServiceResponse struct {
	ID           uuid.UUID `json:"id"`
	PillarID     uuid.UUID `json:"pillarId"`
	PillarName   string    `json:"pillarName"`
	Title        string    `json:"title"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description,omitempty"`
	PriceCents   int64     `json:"priceCents"`
	IsActive     bool      `json:"isActive"`
	DisplayOrder int       `json:"displayOrder"`
	CreatedAt    string    `json:"createdAt"`
	UpdatedAt    string    `json:"updatedAt"`
}

// PillarListResponse wraps a list of pillars.
type PillarListResponse struct {
	Items []PillarResponse `json:"items"`
	Total int              `json:"total"`
}

// ServiceListResponse wraps a list of services.
type ServiceListResponse struct {
	Items []ServiceResponse `json:"items"`
	Total int               `json:"total"`
}

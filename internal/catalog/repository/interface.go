package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Pillar is a top-level grouping of consultancy services.
type Pillar struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	Description  *string
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Offering is a purchasable consultancy service within a pillar.
type Offering struct {
	ID           uuid.UUID
	PillarID     uuid.UUID
	PillarName   string
	Title        string
	Slug         string
	Description  *string
	PriceCents   int64
	IsActive     bool
	DisplayOrder int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreatePillarParams contains parameters for creating a pillar.
type CreatePillarParams struct {
	Name         string
	Slug         string
	Description  *string
	DisplayOrder int
}

// UpdatePillarParams contains parameters for updating a pillar.
type UpdatePillarParams struct {
	ID           uuid.UUID
	Name         *string
	Description  *string
	DisplayOrder *int
}

// CreateOfferingParams contains parameters for creating an offering.
type CreateOfferingParams struct {
	PillarID     uuid.UUID
	Title        string
	Slug         string
	Description  *string
	PriceCents   int64
	DisplayOrder int
}

// UpdateOfferingParams contains parameters for updating an offering.
type UpdateOfferingParams struct {
	ID           uuid.UUID
	PillarID     *uuid.UUID
	Title        *string
	Description  *string
	PriceCents   *int64
	IsActive     *bool
	DisplayOrder *int
}

// PillarReader provides read operations for pillars.
type PillarReader interface {
	GetPillar(ctx context.Context, id uuid.UUID) (Pillar, error)
	ListPillars(ctx context.Context) ([]Pillar, error)
}

// PillarWriter provides write operations for pillars.
type PillarWriter interface {
	CreatePillar(ctx context.Context, params CreatePillarParams) (Pillar, error)
	UpdatePillar(ctx context.Context, params UpdatePillarParams) (Pillar, error)
	DeletePillar(ctx context.Context, id uuid.UUID) error
}

// OfferingReader provides read operations for offerings.
type OfferingReader interface {
	GetOffering(ctx context.Context, id uuid.UUID) (Offering, error)
	GetOfferingsByIDs(ctx context.Context, ids []uuid.UUID) ([]Offering, error)
	ListOfferings(ctx context.Context) ([]Offering, error)
	ListActiveOfferings(ctx context.Context) ([]Offering, error)
}

// OfferingWriter provides write operations for offerings.
type OfferingWriter interface {
	CreateOffering(ctx context.Context, params CreateOfferingParams) (Offering, error)
	UpdateOffering(ctx context.Context, params UpdateOfferingParams) (Offering, error)
	DeleteOffering(ctx context.Context, id uuid.UUID) error
}

// Repository combines all catalog repository operations.
type Repository interface {
	PillarReader
	PillarWriter
	OfferingReader
	OfferingWriter
}

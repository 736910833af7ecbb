package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/catalog/repository"
	"consultancy_site_backend/internal/catalog/transport"
	"consultancy_site_backend/platform/logger"
)

// Service provides business logic for the services catalog.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new catalog service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// --- Pillars ---

// CreatePillar adds a new pillar grouping.
func (s *Service) CreatePillar(ctx context.Context, req transport.CreatePillarRequest) (transport.PillarResponse, error) {
	displayOrder := 0
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	}

	pillar, err := s.repo.CreatePillar(ctx, repository.CreatePillarParams{
		Name:         strings.TrimSpace(req.Name),
		Slug:         generateSlug(req.Name),
		Description:  req.Description,
		DisplayOrder: displayOrder,
	})
	if err != nil {
		return transport.PillarResponse{}, err
	}

	s.log.Info("pillar created", "id", pillar.ID, "name", pillar.Name)
	return toPillarResponse(pillar), nil
}

// UpdatePillar modifies an existing pillar.
func (s *Service) UpdatePillar(ctx context.Context, id uuid.UUID, req transport.UpdatePillarRequest) (transport.PillarResponse, error) {
	pillar, err := s.repo.UpdatePillar(ctx, repository.UpdatePillarParams{
		ID:           id,
		Name:         req.Name,
		Description:  req.Description,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.PillarResponse{}, err
	}
	return toPillarResponse(pillar), nil
}

// DeletePillar removes a pillar. Pillars with services cannot be removed.
func (s *Service) DeletePillar(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePillar(ctx, id)
}

// GetPillar retrieves a single pillar.
func (s *Service) GetPillar(ctx context.Context, id uuid.UUID) (transport.PillarResponse, error) {
	pillar, err := s.repo.GetPillar(ctx, id)
	if err != nil {
		return transport.PillarResponse{}, err
	}
	return toPillarResponse(pillar), nil
}

// ListPillars retrieves all pillars in display order.
func (s *Service) ListPillars(ctx context.Context) (transport.PillarListResponse, error) {
	items, err := s.repo.ListPillars(ctx)
	if err != nil {
		return transport.PillarListResponse{}, err
	}

	responses := make([]transport.PillarResponse, len(items))
	for i, item := range items {
		responses[i] = toPillarResponse(item)
	}
	return transport.PillarListResponse{Items: responses, Total: len(responses)}, nil
}

// --- Services ---

// CreateService adds a purchasable service under a pillar.
func (s *Service) CreateService(ctx context.Context, req transport.CreateServiceRequest) (transport.ServiceResponse, error) {
	displayOrder := 0
	if req.DisplayOrder != nil {
		displayOrder = *req.DisplayOrder
	}

	offering, err := s.repo.CreateOffering(ctx, repository.CreateOfferingParams{
		PillarID:     req.PillarID,
		Title:        strings.TrimSpace(req.Title),
		Slug:         generateSlug(req.Title),
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		DisplayOrder: displayOrder,
	})
	if err != nil {
		return transport.ServiceResponse{}, err
	}

	s.log.Info("service created", "id", offering.ID, "title", offering.Title, "priceCents", offering.PriceCents)
	return toServiceResponse(offering), nil
}

// UpdateService modifies an existing service.
func (s *Service) UpdateService(ctx context.Context, id uuid.UUID, req transport.UpdateServiceRequest) (transport.ServiceResponse, error) {
	offering, err := s.repo.UpdateOffering(ctx, repository.UpdateOfferingParams{
		ID:           id,
		PillarID:     req.PillarID,
		Title:        req.Title,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		IsActive:     req.IsActive,
		DisplayOrder: req.DisplayOrder,
	})
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toServiceResponse(offering), nil
}

// DeleteService removes a service from the catalog.
func (s *Service) DeleteService(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeleteOffering(ctx, id)
}

// GetService retrieves a single service.
func (s *Service) GetService(ctx context.Context, id uuid.UUID) (transport.ServiceResponse, error) {
	offering, err := s.repo.GetOffering(ctx, id)
	if err != nil {
		return transport.ServiceResponse{}, err
	}
	return toServiceResponse(offering), nil
}

// ListServices retrieves all services (admin view).
func (s *Service) ListServices(ctx context.Context) (transport.ServiceListResponse, error) {
	items, err := s.repo.ListOfferings(ctx)
	if err != nil {
		return transport.ServiceListResponse{}, err
	}
	return toServiceListResponse(items), nil
}

// ListActiveServices retrieves the public storefront catalog.
func (s *Service) ListActiveServices(ctx context.Context) (transport.ServiceListResponse, error) {
	items, err := s.repo.ListActiveOfferings(ctx)
	if err != nil {
		return transport.ServiceListResponse{}, err
	}
	return toServiceListResponse(items), nil
}

func toPillarResponse(p repository.Pillar) transport.PillarResponse {
	return transport.PillarResponse{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		DisplayOrder: p.DisplayOrder,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toServiceResponse(o repository.Offering) transport.ServiceResponse {
	return transport.ServiceResponse{
		ID:           o.ID,
		PillarID:     o.PillarID,
		PillarName:   o.PillarName,
		Title:        o.Title,
		Slug:         o.Slug,
		Description:  o.Description,
		PriceCents:   o.PriceCents,
		IsActive:     o.IsActive,
		DisplayOrder: o.DisplayOrder,
		CreatedAt:    o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    o.UpdatedAt.Format(time.RFC3339),
	}
}

func toServiceListResponse(items []repository.Offering) transport.ServiceListResponse {
	responses := make([]transport.ServiceResponse, len(items))
	for i, item := range items {
		responses[i] = toServiceResponse(item)
	}
	return transport.ServiceListResponse{Items: responses, Total: len(responses)}
}

// generateSlug creates a URL-friendly slug from a name.
func generateSlug(name string) string {
	slug := strings.ToLower(name)
	slug = strings.ReplaceAll(slug, " ", "-")

	reg := regexp.MustCompile(`[^a-z0-9-]+`)
	slug = reg.ReplaceAllString(slug, "")

	reg = regexp.MustCompile(`-+`)
	slug = reg.ReplaceAllString(slug, "-")

	return strings.Trim(slug, "-")
}

// Package catalog provides the services catalog bounded context module.
// It manages the pillars and purchasable services shown on the storefront;
// orders resolve their line-item prices against this catalog.
package catalog

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"consultancy_site_backend/internal/catalog/handler"
	"consultancy_site_backend/internal/catalog/repository"
	"consultancy_site_backend/internal/catalog/service"
	apphttp "consultancy_site_backend/internal/http"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/validator"
)

// Module is the catalog bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the catalog module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "catalog"
}

// Repository returns the catalog repository for read access by other modules.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts catalog routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/catalog")
	m.handler.RegisterPublicRoutes(public)

	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package orders provides the orders bounded context module. It owns
// checkout, order persistence and the fulfillment decision over the CRM.
package orders

import (
	"github.com/jackc/pgx/v5/pgxpool"

	catalogrepo "consultancy_site_backend/internal/catalog/repository"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/events"
	apphttp "consultancy_site_backend/internal/http"
	"consultancy_site_backend/internal/orders/handler"
	"consultancy_site_backend/internal/orders/repository"
	"consultancy_site_backend/internal/orders/service"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/validator"
)

// Module is the orders bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the orders module with all its dependencies.
func NewModule(pool *pgxpool.Pool, catalog catalogrepo.OfferingReader, engine *syncengine.Engine, client crm.Client, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, catalog, engine, client, eventBus, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "orders"
}

// RegisterRoutes mounts order routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/orders")
	public.Use(ctx.SubmitRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	admin := ctx.Admin.Group("/orders")
	m.handler.RegisterAdminRoutes(admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

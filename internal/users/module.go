// Package users provides the registered-users bounded context module.
// It owns public registration and the operator view over user accounts,
// including their CRM synchronization state.
package users

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"consultancy_site_backend/internal/events"
	apphttp "consultancy_site_backend/internal/http"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/internal/users/handler"
	"consultancy_site_backend/internal/users/repository"
	"consultancy_site_backend/internal/users/service"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/validator"
)

// Module is the users bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the users module with all its dependencies.
func NewModule(pool *pgxpool.Pool, engine *syncengine.Engine, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, engine, eventBus, log)

	// Registration never waits on the CRM; the sync runs after the fact.
	eventBus.Subscribe(events.UserRegistered{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.UserRegistered)
		if !ok {
			return nil
		}

		go func() {
			if _, err := svc.SyncUser(context.Background(), e.UserID); err != nil {
				log.Error("user sync after registration failed", "error", err, "userId", e.UserID)
			}
		}()

		return nil
	}))

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "users"
}

// Service returns the users service for external use (scheduler sweep).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts users routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/users")
	public.Use(ctx.SubmitRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	admin := ctx.Admin.Group("/users")
	m.handler.RegisterAdminRoutes(admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

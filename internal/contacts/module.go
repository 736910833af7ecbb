// Package contacts provides the contact submission bounded context module.
// It owns the public contact form, the operator workflow over submissions,
// and their CRM synchronization state.
package contacts

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"consultancy_site_backend/internal/contacts/handler"
	"consultancy_site_backend/internal/contacts/repository"
	"consultancy_site_backend/internal/contacts/service"
	"consultancy_site_backend/internal/events"
	apphttp "consultancy_site_backend/internal/http"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/validator"
)

// Module is the contacts bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the contacts module with all its dependencies.
func NewModule(pool *pgxpool.Pool, engine *syncengine.Engine, eventBus events.Bus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, engine, eventBus, log)

	// Sync new submissions to the CRM out-of-band so the public form never
	// waits on (or fails because of) the remote system.
	eventBus.Subscribe(events.ContactSubmitted{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.ContactSubmitted)
		if !ok {
			return nil
		}

		go func() {
			if _, err := svc.SyncSubmission(context.Background(), e.SubmissionID); err != nil {
				log.Error("contact sync after submit failed", "error", err, "submissionId", e.SubmissionID)
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
	return "contacts"
}

// Service returns the submissions service for external use (scheduler sweep).
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts contacts routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	public := ctx.V1.Group("/contact")
	public.Use(ctx.SubmitRateLimiter.RateLimit())
	m.handler.RegisterPublicRoutes(public)

	admin := ctx.Admin.Group("/contact-submissions")
	m.handler.RegisterAdminRoutes(admin)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)

// Package notification provides event handlers for sending emails in
// response to domain events. Domain modules publish events and never talk
// to email providers directly.
package notification

import (
	"context"
	"fmt"

	"consultancy_site_backend/internal/email"
	"consultancy_site_backend/internal/events"
	"consultancy_site_backend/internal/orders/repository"
	"consultancy_site_backend/platform/config"
	"consultancy_site_backend/platform/logger"
)

// Module reacts to domain events with transactional and operator emails.
type Module struct {
	sender     email.Sender
	adminEmail string
	log        *logger.Logger
}

// NewModule creates the notification module.
func NewModule(sender email.Sender, cfg config.NotificationConfig, log *logger.Logger) *Module {
	return &Module{
		sender:     sender,
		adminEmail: cfg.GetAdminAlertAddress(),
		log:        log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string { return "notification" }

// RegisterHandlers subscribes to the domain events this module reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ContactSubmitted{}.EventName(), m)
	bus.Subscribe(events.UserRegistered{}.EventName(), m)
	bus.Subscribe(events.OrderPlaced{}.EventName(), m)
	bus.Subscribe(events.SyncFailed{}.EventName(), m)

	m.log.Info("notification module registered event handlers")
}

// Handle routes events to the appropriate handler method.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ContactSubmitted:
		return m.handleContactSubmitted(ctx, e)
	case events.UserRegistered:
		return m.handleUserRegistered(ctx, e)
	case events.OrderPlaced:
		return m.handleOrderPlaced(ctx, e)
	case events.SyncFailed:
		return m.handleSyncFailed(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleContactSubmitted(ctx context.Context, e events.ContactSubmitted) error {
	// The first name is not on the event; the greeting falls back to a
	// neutral salutation rendered by the template.
	if err := m.sender.SendContactReceivedEmail(ctx, e.Email, "there"); err != nil {
		m.log.Error("contact confirmation email failed", "error", err, "email", e.Email)
		return err
	}
	return nil
}

func (m *Module) handleUserRegistered(ctx context.Context, e events.UserRegistered) error {
	if err := m.sender.SendWelcomeEmail(ctx, e.Email, "there"); err != nil {
		m.log.Error("welcome email failed", "error", err, "email", e.Email)
		return err
	}
	return nil
}

func (m *Module) handleOrderPlaced(ctx context.Context, e events.OrderPlaced) error {
	var err error
	switch repository.FulfillmentMode(e.FulfillmentMode) {
	case repository.ModePaidRedirect:
		err = m.sender.SendOrderPaymentEmail(ctx, e.CustomerEmail, e.CustomerName, e.OrderNumber, e.TotalCents, e.PaymentURL)
	case repository.ModeSandboxDemo:
		// No customer email for demo orders; nothing real was invoiced.
		return nil
	default:
		err = m.sender.SendOrderReceivedEmail(ctx, e.CustomerEmail, e.CustomerName, e.OrderNumber, e.TotalCents)
	}
	if err != nil {
		m.log.Error("order confirmation email failed", "error", err, "orderNumber", e.OrderNumber)
		return err
	}
	return nil
}

func (m *Module) handleSyncFailed(ctx context.Context, e events.SyncFailed) error {
	if m.adminEmail == "" {
		return nil
	}
	if err := m.sender.SendSyncFailureAlertEmail(ctx, m.adminEmail, e.EntityType, fmt.Sprint(e.EntityID), e.Diagnostic); err != nil {
		m.log.Error("sync failure alert email failed", "error", err, "entityType", e.EntityType, "entityId", e.EntityID)
		return err
	}
	return nil
}

var _ events.Handler = (*Module)(nil)

package email

import (
	"context"

	"consultancy_site_backend/platform/config"
)

// Sender delivers transactional emails. Implementations render the shared
// HTML templates and differ only in transport.
type Sender interface {
	SendContactReceivedEmail(ctx context.Context, toEmail, firstName string) error
	SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error
	SendOrderPaymentEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64, paymentURL string) error
	SendOrderReceivedEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64) error
	SendSyncFailureAlertEmail(ctx context.Context, toEmail, entityType, entityID, diagnostic string) error
}

// NoopSender is used when email delivery is disabled.
type NoopSender struct{}

func (NoopSender) SendContactReceivedEmail(ctx context.Context, toEmail, firstName string) error {
	return nil
}

func (NoopSender) SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error {
	return nil
}

func (NoopSender) SendOrderPaymentEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64, paymentURL string) error {
	return nil
}

func (NoopSender) SendOrderReceivedEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64) error {
	return nil
}

func (NoopSender) SendSyncFailureAlertEmail(ctx context.Context, toEmail, entityType, entityID, diagnostic string) error {
	return nil
}

// NewSender picks a transport from configuration: Brevo when an API key is
// present, direct SMTP when SMTP credentials are, Noop otherwise.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}, nil
	}
	if cfg.GetBrevoAPIKey() != "" {
		return newBrevoSender(cfg), nil
	}
	if cfg.GetSMTPHost() != "" {
		return NewSMTPSender(cfg.GetSMTPHost(), cfg.GetSMTPPort(),
			cfg.GetSMTPUsername(), cfg.GetSMTPPassword(),
			cfg.GetEmailFromAddress(), cfg.GetEmailFromName()), nil
	}
	return NoopSender{}, nil
}

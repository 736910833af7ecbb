package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"consultancy_site_backend/platform/config"
)

// BrevoSender delivers email through the Brevo transactional API.
type BrevoSender struct {
	apiKey    string
	fromName  string
	fromEmail string
	client    *http.Client
}

type brevoEmailRequest struct {
	Sender struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"sender"`
	To []struct {
		Email string `json:"email"`
	} `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
}

func newBrevoSender(cfg config.EmailConfig) *BrevoSender {
	return &BrevoSender{
		apiKey:    cfg.GetBrevoAPIKey(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BrevoSender) SendContactReceivedEmail(ctx context.Context, toEmail, firstName string) error {
	content, err := renderEmailTemplate("contact_received.html", contactReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Message received",
			Heading: "Thanks for reaching out",
		},
		FirstName: firstName,
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectContactReceived, content)
}

func (b *BrevoSender) SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error {
	content, err := renderEmailTemplate("welcome.html", welcomeEmailData{
		baseEmailData: baseEmailData{
			Title:   "Welcome",
			Heading: "Welcome aboard",
		},
		FirstName: firstName,
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectWelcome, content)
}

func (b *BrevoSender) SendOrderPaymentEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64, paymentURL string) error {
	subject := fmt.Sprintf(subjectOrderPaymentFmt, orderNumber)
	content, err := renderEmailTemplate("order_payment.html", orderPaymentEmailData{
		baseEmailData: baseEmailData{
			Title:    "Complete your payment",
			Heading:  "Complete your payment",
			CTALabel: "Pay now",
			CTAURL:   paymentURL,
		},
		CustomerName:   customerName,
		OrderNumber:    orderNumber,
		TotalFormatted: formatCurrencyUSD(totalCents),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subject, content)
}

func (b *BrevoSender) SendOrderReceivedEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64) error {
	subject := fmt.Sprintf(subjectOrderReceivedFmt, orderNumber)
	content, err := renderEmailTemplate("order_received.html", orderReceivedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Order received",
			Heading: "Order received",
		},
		CustomerName:   customerName,
		OrderNumber:    orderNumber,
		TotalFormatted: formatCurrencyUSD(totalCents),
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subject, content)
}

func (b *BrevoSender) SendSyncFailureAlertEmail(ctx context.Context, toEmail, entityType, entityID, diagnostic string) error {
	content, err := renderEmailTemplate("sync_failure.html", syncFailureEmailData{
		baseEmailData: baseEmailData{
			Title:   "Sync failure",
			Heading: "A CRM sync failed",
		},
		EntityType: entityType,
		EntityID:   entityID,
		Diagnostic: diagnostic,
	})
	if err != nil {
		return err
	}
	return b.send(ctx, toEmail, subjectSyncFailureAlert, content)
}

func (b *BrevoSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	payload := brevoEmailRequest{
		Subject:     subject,
		HTMLContent: htmlContent,
	}
	payload.Sender.Name = b.fromName
	payload.Sender.Email = b.fromEmail
	payload.To = []struct {
		Email string `json:"email"`
	}{{Email: toEmail}}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "https://api.brevo.com/v3/smtp/email", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", b.apiKey)
	req.Header.Set("content-type", "application/json")
	req.Header.Set("accept", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("brevo send failed: status %d: %s", resp.StatusCode, string(data))
	}

	return nil
}

var _ Sender = (*BrevoSender)(nil)

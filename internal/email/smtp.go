package email

import (
	"context"
	"fmt"
	"net"
	"time"

	gomail "github.com/wneessen/go-mail"
)

// SMTPSender implements the Sender interface using a direct SMTP connection
// via go-mail. It renders the same HTML templates as BrevoSender.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

// NewSMTPSender creates a new SMTPSender with the given SMTP credentials.
func NewSMTPSender(host string, port int, username, password, fromEmail, fromName string) *SMTPSender {
	return &SMTPSender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendContactReceivedEmail(ctx context.Context, toEmail, firstName string) error {
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
	return s.send(ctx, toEmail, subjectContactReceived, content)
}

func (s *SMTPSender) SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error {
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
	return s.send(ctx, toEmail, subjectWelcome, content)
}

func (s *SMTPSender) SendOrderPaymentEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64, paymentURL string) error {
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
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendOrderReceivedEmail(ctx context.Context, toEmail, customerName, orderNumber string, totalCents int64) error {
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
	return s.send(ctx, toEmail, subject, content)
}

func (s *SMTPSender) SendSyncFailureAlertEmail(ctx context.Context, toEmail, entityType, entityID, diagnostic string) error {
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
	return s.send(ctx, toEmail, subjectSyncFailureAlert, content)
}

var _ Sender = (*SMTPSender)(nil)

package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title      string
	Heading    string
	Subheading string
	CTALabel   string
	CTAURL     string
}

type contactReceivedEmailData struct {
	baseEmailData
	FirstName string
}

type welcomeEmailData struct {
	baseEmailData
	FirstName string
}

type orderPaymentEmailData struct {
	baseEmailData
	CustomerName   string
	OrderNumber    string
	TotalFormatted string
}

type orderReceivedEmailData struct {
	baseEmailData
	CustomerName   string
	OrderNumber    string
	TotalFormatted string
}

type syncFailureEmailData struct {
	baseEmailData
	EntityType string
	EntityID   string
	Diagnostic string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}

func formatCurrencyUSD(cents int64) string {
	return fmt.Sprintf("$%.2f", float64(cents)/100)
}

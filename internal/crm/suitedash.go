package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"consultancy_site_backend/platform/config"
	"consultancy_site_backend/platform/logger"
)

// SuiteDashClient talks to the SuiteDash secure API.
// Authentication uses the X-Public-ID / X-Secret-Key header pair.
type SuiteDashClient struct {
	baseURL    string
	publicID   string
	secretKey  string
	invoicing  bool
	production bool
	client     *http.Client
	log        *logger.Logger
}

// New builds a Client from configuration. Missing credentials yield a
// DisabledClient rather than an error so the rest of the application keeps
// working without the CRM.
func New(cfg config.CRMConfig, log *logger.Logger) Client {
	if cfg.GetCRMPublicID() == "" || cfg.GetCRMSecretKey() == "" {
		return DisabledClient{}
	}

	return &SuiteDashClient{
		baseURL:    cfg.GetCRMBaseURL(),
		publicID:   cfg.GetCRMPublicID(),
		secretKey:  cfg.GetCRMSecretKey(),
		invoicing:  cfg.GetCRMInvoicingEnabled(),
		production: cfg.IsCRMProduction(),
		client:     &http.Client{Timeout: cfg.GetCRMTimeout()},
		log:        log,
	}
}

// IsConfigured always returns true: a SuiteDashClient is only constructed
// when credentials are present.
func (s *SuiteDashClient) IsConfigured() bool { return true }

// SupportsInvoicing reports whether the configured plan includes invoicing.
func (s *SuiteDashClient) SupportsInvoicing() bool { return s.invoicing }

// IsProduction reports whether this client targets the production environment.
func (s *SuiteDashClient) IsProduction() bool { return s.production }

type suiteDashContact struct {
	UID       string `json:"uid"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company_name,omitempty"`
}

type suiteDashContactList struct {
	Data []suiteDashContact `json:"data"`
}

type suiteDashContactEnvelope struct {
	Data suiteDashContact `json:"data"`
}

type suiteDashInvoiceRequest struct {
	ContactUID string                 `json:"contact_uid"`
	Items      []suiteDashInvoiceItem `json:"items"`
}

type suiteDashInvoiceItem struct {
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

type suiteDashInvoiceEnvelope struct {
	Data struct {
		UID        string `json:"uid"`
		PaymentURL string `json:"payment_url"`
	} `json:"data"`
}

// UpsertContact finds an existing contact by email and updates it, or creates
// a new one. SuiteDash has no native upsert, so the adapter performs the
// pre-lookup itself to keep the operation idempotent.
func (s *SuiteDashClient) UpsertContact(ctx context.Context, profile Profile) (Contact, error) {
	existing, found, err := s.findContactByEmail(ctx, profile.Email)
	if err != nil {
		return Contact{}, err
	}

	if found {
		updated, err := s.updateContact(ctx, existing.UID, profile)
		if err != nil {
			return Contact{}, err
		}
		return updated, nil
	}

	return s.createContact(ctx, profile)
}

// CreateInvoice creates an invoice with a payment link for the given contact.
func (s *SuiteDashClient) CreateInvoice(ctx context.Context, contactID string, items []LineItem) (Invoice, error) {
	if !s.invoicing {
		return Invoice{}, ErrCapabilityUnavailable
	}
	if contactID == "" {
		return Invoice{}, &RemoteError{Code: http.StatusBadRequest, Message: "contact reference is required"}
	}

	payload := suiteDashInvoiceRequest{ContactUID: contactID}
	for _, item := range items {
		payload.Items = append(payload.Items, suiteDashInvoiceItem{
			Description: item.Title,
			Category:    item.PillarName,
			Quantity:    item.Quantity,
			UnitPrice:   formatCents(item.UnitPriceCents),
		})
	}

	var envelope suiteDashInvoiceEnvelope
	if err := s.do(ctx, http.MethodPost, "/invoices", payload, &envelope); err != nil {
		return Invoice{}, err
	}

	return Invoice{ID: envelope.Data.UID, PaymentURL: envelope.Data.PaymentURL}, nil
}

func (s *SuiteDashClient) findContactByEmail(ctx context.Context, email string) (suiteDashContact, bool, error) {
	path := "/contacts?email=" + url.QueryEscape(email)

	var list suiteDashContactList
	if err := s.do(ctx, http.MethodGet, path, nil, &list); err != nil {
		return suiteDashContact{}, false, err
	}

	for _, contact := range list.Data {
		if contact.Email == email {
			return contact, true, nil
		}
	}
	return suiteDashContact{}, false, nil
}

func (s *SuiteDashClient) createContact(ctx context.Context, profile Profile) (Contact, error) {
	var envelope suiteDashContactEnvelope
	if err := s.do(ctx, http.MethodPost, "/contacts", contactPayload(profile), &envelope); err != nil {
		return Contact{}, err
	}
	return Contact{ID: envelope.Data.UID, Email: profile.Email}, nil
}

func (s *SuiteDashClient) updateContact(ctx context.Context, uid string, profile Profile) (Contact, error) {
	var envelope suiteDashContactEnvelope
	if err := s.do(ctx, http.MethodPut, "/contacts/"+url.PathEscape(uid), contactPayload(profile), &envelope); err != nil {
		return Contact{}, err
	}

	id := envelope.Data.UID
	if id == "" {
		id = uid
	}
	return Contact{ID: id, Email: profile.Email}, nil
}

func contactPayload(profile Profile) suiteDashContact {
	return suiteDashContact{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Email:     profile.Email,
		Phone:     profile.Phone,
		Company:   profile.Company,
	}
}

// do performs a single authenticated request and decodes the response into
// out. All transport failures surface as *NetworkError and all 4xx responses
// as *RemoteError; callers never see raw http errors.
func (s *SuiteDashClient) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal crm payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build crm request: %w", err)
	}
	req.Header.Set("X-Public-ID", s.publicID)
	req.Header.Set("X-Secret-Key", s.secretKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.CRMCall(method+" "+path, 0, float64(time.Since(start).Milliseconds()), err)
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	s.log.CRMCall(method+" "+path, resp.StatusCode, float64(time.Since(start).Milliseconds()), nil)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &RemoteError{Code: resp.StatusCode, Message: string(data)}
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &NetworkError{Op: method + " " + path, Err: fmt.Errorf("status %d: %s", resp.StatusCode, string(data))}
	}
}

func formatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// Compile-time check that SuiteDashClient implements Client.
var _ Client = (*SuiteDashClient)(nil)

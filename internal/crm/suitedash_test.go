package crm

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"consultancy_site_backend/platform/logger"
)

type testCRMConfig struct {
	baseURL   string
	publicID  string
	secretKey string
	timeout   time.Duration
	invoicing bool
	prod      bool
}

func (c testCRMConfig) GetCRMBaseURL() string        { return c.baseURL }
func (c testCRMConfig) GetCRMPublicID() string       { return c.publicID }
func (c testCRMConfig) GetCRMSecretKey() string      { return c.secretKey }
func (c testCRMConfig) GetCRMTimeout() time.Duration { return c.timeout }
func (c testCRMConfig) GetCRMInvoicingEnabled() bool { return c.invoicing }
func (c testCRMConfig) IsCRMProduction() bool        { return c.prod }

func newTestClient(t *testing.T, handler http.Handler, invoicing bool) (Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := testCRMConfig{
		baseURL:   srv.URL,
		publicID:  "pub",
		secretKey: "sec",
		timeout:   2 * time.Second,
		invoicing: invoicing,
		prod:      true,
	}
	return New(cfg, logger.New("test")), srv
}

func TestNewWithoutCredentialsReturnsDisabled(t *testing.T) {
	client := New(testCRMConfig{}, logger.New("test"))
	if client.IsConfigured() {
		t.Fatal("client without credentials must report unconfigured")
	}
	if _, err := client.UpsertContact(t.Context(), Profile{Email: "a@b.c"}); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := client.CreateInvoice(t.Context(), "c-1", nil); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestUpsertContactCreatesWhenAbsent(t *testing.T) {
	var sawAuth bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", func(w http.ResponseWriter, r *http.Request) {
		sawAuth = r.Header.Get("X-Public-ID") == "pub" && r.Header.Get("X-Secret-Key") == "sec"
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})
	mux.HandleFunc("POST /contacts", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["email"] != "ada@example.com" {
			t.Errorf("unexpected create payload: %v", body)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"uid": "c-100", "email": "ada@example.com"}})
	})

	client, _ := newTestClient(t, mux, false)
	contact, err := client.UpsertContact(t.Context(), Profile{FirstName: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if contact.ID != "c-100" {
		t.Fatalf("expected id c-100, got %q", contact.ID)
	}
	if !sawAuth {
		t.Fatal("lookup request missing auth headers")
	}
}

func TestUpsertContactUpdatesExisting(t *testing.T) {
	var updated bool
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("email") != "ada@example.com" {
			t.Errorf("lookup missing email filter: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{
			map[string]any{"uid": "c-42", "email": "ada@example.com"},
		}})
	})
	mux.HandleFunc("PUT /contacts/c-42", func(w http.ResponseWriter, r *http.Request) {
		updated = true
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"uid": "c-42"}})
	})
	mux.HandleFunc("POST /contacts", func(w http.ResponseWriter, r *http.Request) {
		t.Error("upsert of an existing email must not create a second contact")
	})

	client, _ := newTestClient(t, mux, false)
	contact, err := client.UpsertContact(t.Context(), Profile{FirstName: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("UpsertContact: %v", err)
	}
	if !updated {
		t.Fatal("expected an update call for the existing contact")
	}
	if contact.ID != "c-42" {
		t.Fatalf("expected stable id c-42, got %q", contact.ID)
	}
}

func TestUpsertContactRejectionIsRemoteError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /contacts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": []any{}})
	})
	mux.HandleFunc("POST /contacts", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "email is malformed", http.StatusUnprocessableEntity)
	})

	client, _ := newTestClient(t, mux, false)
	_, err := client.UpsertContact(t.Context(), Profile{Email: "bad"})
	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("expected *RemoteError, got %v", err)
	}
	if remoteErr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", remoteErr.Code)
	}
	if IsRetryable(err) {
		t.Fatal("a 4xx rejection must not be retryable")
	}
}

func TestUpsertContactServerErrorIsNetworkError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}), false)

	_, err := client.UpsertContact(t.Context(), Profile{Email: "a@b.c"})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError, got %v", err)
	}
	if !IsRetryable(err) {
		t.Fatal("a 5xx failure must be retryable")
	}
}

func TestUpsertContactTimeoutIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)

	cfg := testCRMConfig{baseURL: srv.URL, publicID: "pub", secretKey: "sec", timeout: 20 * time.Millisecond}
	client := New(cfg, logger.New("test"))

	_, err := client.UpsertContact(t.Context(), Profile{Email: "a@b.c"})
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected *NetworkError on timeout, got %v", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /invoices", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			ContactUID string `json:"contact_uid"`
			Items      []struct {
				Description string `json:"description"`
				Quantity    int    `json:"quantity"`
				UnitPrice   string `json:"unit_price"`
			} `json:"items"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.ContactUID != "c-42" {
			t.Errorf("unexpected contact uid %q", body.ContactUID)
		}
		if len(body.Items) != 1 || body.Items[0].UnitPrice != "149.50" {
			t.Errorf("unexpected items: %+v", body.Items)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{
			"uid":         "inv-7",
			"payment_url": "https://pay.example.com/inv-7",
		}})
	})

	client, _ := newTestClient(t, mux, true)
	invoice, err := client.CreateInvoice(t.Context(), "c-42", []LineItem{
		{Title: "Strategy Audit", PillarName: "Consulting", Quantity: 1, UnitPriceCents: 14950},
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if invoice.ID != "inv-7" || invoice.PaymentURL != "https://pay.example.com/inv-7" {
		t.Fatalf("unexpected invoice: %+v", invoice)
	}
}

func TestCreateInvoiceWithoutCapability(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected when invoicing is disabled")
	}), false)

	if client.SupportsInvoicing() {
		t.Fatal("invoicing should be off")
	}
	if _, err := client.CreateInvoice(t.Context(), "c-42", nil); !errors.Is(err, ErrCapabilityUnavailable) {
		t.Fatalf("expected ErrCapabilityUnavailable, got %v", err)
	}
}

func TestIsSandboxID(t *testing.T) {
	sandbox := []string{"demo-1", "DEMO_2", "sandbox-abc", "sandbox_abc", "test-x", "Test_99", "  demo-padded"}
	for _, id := range sandbox {
		if !IsSandboxID(id) {
			t.Errorf("%q should be a sandbox id", id)
		}
	}
	real := []string{"c-100", "contest-1", "production", "", "detest"}
	for _, id := range real {
		if IsSandboxID(id) {
			t.Errorf("%q should not be a sandbox id", id)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := map[int64]string{
		0:      "0.00",
		5:      "0.05",
		14950:  "149.50",
		100:    "1.00",
		-2599:  "-25.99",
		999999: "9999.99",
	}
	for cents, want := range cases {
		if got := formatCents(cents); got != want {
			t.Errorf("formatCents(%d) = %q, want %q", cents, got, want)
		}
	}
}

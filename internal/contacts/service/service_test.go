package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"consultancy_site_backend/internal/contacts/repository"
	"consultancy_site_backend/internal/contacts/transport"
	"consultancy_site_backend/internal/crm"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/platform/apperr"
	"consultancy_site_backend/platform/events"
	"consultancy_site_backend/platform/logger"
)

// fakeRepo is an in-memory submission store.
type fakeRepo struct {
	subs map[uuid.UUID]repository.Submission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[uuid.UUID]repository.Submission)}
}

func (r *fakeRepo) Create(_ context.Context, params repository.CreateParams) (repository.Submission, error) {
	sub := repository.Submission{
		ID:             uuid.New(),
		FirstName:      params.FirstName,
		LastName:       params.LastName,
		Email:          params.Email,
		Phone:          params.Phone,
		Company:        params.Company,
		Message:        params.Message,
		WorkflowStatus: repository.WorkflowNew,
		Sync:           syncengine.NewRecord(),
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	r.subs[sub.ID] = sub
	return sub, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Submission, error) {
	sub, ok := r.subs[id]
	if !ok {
		return repository.Submission{}, apperr.NotFound("submission not found")
	}
	return sub, nil
}

func (r *fakeRepo) List(_ context.Context, params repository.ListParams) ([]repository.Submission, int, error) {
	var out []repository.Submission
	for _, sub := range r.subs {
		if params.WorkflowStatus != nil && sub.WorkflowStatus != *params.WorkflowStatus {
			continue
		}
		if params.SyncStatus != nil && sub.Sync.Status != *params.SyncStatus {
			continue
		}
		out = append(out, sub)
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListSyncable(_ context.Context, _ time.Duration) ([]repository.Submission, error) {
	var out []repository.Submission
	for _, sub := range r.subs {
		if sub.Sync.Status == syncengine.StatusUnsynced || sub.Sync.Status == syncengine.StatusFailed {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (r *fakeRepo) ListAll(_ context.Context) ([]repository.Submission, error) {
	out := make([]repository.Submission, 0, len(r.subs))
	for _, sub := range r.subs {
		out = append(out, sub)
	}
	return out, nil
}

func (r *fakeRepo) UpdateWorkflowStatus(_ context.Context, id uuid.UUID, status repository.WorkflowStatus) (repository.Submission, error) {
	sub, ok := r.subs[id]
	if !ok {
		return repository.Submission{}, apperr.NotFound("submission not found")
	}
	sub.WorkflowStatus = status
	r.subs[id] = sub
	return sub, nil
}

func (r *fakeRepo) ClaimSync(_ context.Context, id uuid.UUID, _ time.Duration) (bool, error) {
	sub, ok := r.subs[id]
	if !ok || sub.Sync.Status == syncengine.StatusPending {
		return false, nil
	}
	sub.Sync.Status = syncengine.StatusPending
	r.subs[id] = sub
	return true, nil
}

func (r *fakeRepo) SaveSync(_ context.Context, id uuid.UUID, rec syncengine.Record) error {
	sub, ok := r.subs[id]
	if !ok {
		return apperr.NotFound("submission not found")
	}
	sub.Sync = rec
	r.subs[id] = sub
	return nil
}

func (r *fakeRepo) BulkDelete(_ context.Context, ids []uuid.UUID) (int, error) {
	deleted := 0
	for _, id := range ids {
		if _, ok := r.subs[id]; ok {
			delete(r.subs, id)
			deleted++
		}
	}
	return deleted, nil
}

// stubClient is a scriptable CRM client.
type stubClient struct {
	configured bool
	contactID  string
	upsertErr  error
}

func (c *stubClient) UpsertContact(_ context.Context, profile crm.Profile) (crm.Contact, error) {
	if c.upsertErr != nil {
		return crm.Contact{}, c.upsertErr
	}
	return crm.Contact{ID: c.contactID, Email: profile.Email}, nil
}

func (c *stubClient) CreateInvoice(context.Context, string, []crm.LineItem) (crm.Invoice, error) {
	return crm.Invoice{}, crm.ErrCapabilityUnavailable
}

func (c *stubClient) IsConfigured() bool      { return c.configured }
func (c *stubClient) SupportsInvoicing() bool { return false }
func (c *stubClient) IsProduction() bool      { return true }

// recordingBus captures published events synchronously.
type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.published = append(b.published, event)
}

func (b *recordingBus) PublishSync(_ context.Context, event events.Event) error {
	b.published = append(b.published, event)
	return nil
}

func (b *recordingBus) names() []string {
	out := make([]string, len(b.published))
	for i, event := range b.published {
		out[i] = event.EventName()
	}
	return out
}

func newTestService(client crm.Client) (*Service, *fakeRepo, *recordingBus) {
	log := logger.New("test")
	repo := newFakeRepo()
	bus := &recordingBus{}
	svc := New(repo, syncengine.NewEngine(client, log), bus, log)
	return svc, repo, bus
}

func submitRequest() transport.SubmitContactRequest {
	return transport.SubmitContactRequest{
		FirstName: "  Alan ",
		LastName:  "Turing",
		Email:     " Alan.Turing@Example.COM ",
		Message:   "I need help with my automation strategy.",
	}
}

func TestSubmitNormalizesAndPublishes(t *testing.T) {
	svc, repo, bus := newTestService(&stubClient{configured: true, contactID: "c-1"})

	resp, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if resp.FirstName != "Alan" {
		t.Fatalf("expected trimmed first name, got %q", resp.FirstName)
	}
	if resp.Email != "alan.turing@example.com" {
		t.Fatalf("expected normalized email, got %q", resp.Email)
	}
	if resp.WorkflowStatus != string(repository.WorkflowNew) {
		t.Fatalf("expected workflow status new, got %q", resp.WorkflowStatus)
	}
	if resp.Sync.Status != string(syncengine.StatusUnsynced) {
		t.Fatalf("a fresh submission must be unsynced, got %q", resp.Sync.Status)
	}
	if len(repo.subs) != 1 {
		t.Fatalf("expected 1 stored submission, got %d", len(repo.subs))
	}
	if got := bus.names(); len(got) != 1 || got[0] != "contacts.submission.created" {
		t.Fatalf("expected ContactSubmitted event, got %v", got)
	}
}

func TestSyncSubmissionSuccess(t *testing.T) {
	svc, repo, _ := newTestService(&stubClient{configured: true, contactID: "c-9"})

	created, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	resp, err := svc.SyncSubmission(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("SyncSubmission: %v", err)
	}
	if resp.Sync.Status != string(syncengine.StatusSynced) {
		t.Fatalf("expected synced, got %q", resp.Sync.Status)
	}
	if resp.Sync.ExternalID == nil || *resp.Sync.ExternalID != "c-9" {
		t.Fatalf("expected external id c-9, got %v", resp.Sync.ExternalID)
	}
	if stored := repo.subs[created.ID]; stored.Sync.Status != syncengine.StatusSynced {
		t.Fatalf("sync outcome not persisted, got %q", stored.Sync.Status)
	}
}

func TestSyncSubmissionPublishesFailureAlert(t *testing.T) {
	client := &stubClient{configured: true,
		upsertErr: &crm.RemoteError{Code: 422, Message: "email rejected"}}
	svc, _, bus := newTestService(client)

	created, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	resp, err := svc.SyncSubmission(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("a CRM rejection is recorded, not returned: %v", err)
	}
	if resp.Sync.Status != string(syncengine.StatusFailed) {
		t.Fatalf("expected failed, got %q", resp.Sync.Status)
	}
	if resp.Sync.LastError == nil {
		t.Fatal("expected a diagnostic on the failed record")
	}

	names := bus.names()
	if len(names) != 2 || names[1] != "sync.failed" {
		t.Fatalf("expected SyncFailed event after the ContactSubmitted one, got %v", names)
	}
}

func TestSyncSubmissionClaimedElsewhereConflicts(t *testing.T) {
	svc, repo, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	sub, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Another process holds the row claim: the stored record is pending.
	stored := repo.subs[sub.ID]
	stored.Sync.Status = syncengine.StatusPending
	repo.subs[sub.ID] = stored

	if _, err := svc.SyncSubmission(context.Background(), sub.ID); !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict while the row is claimed, got %v", err)
	}
	if repo.subs[sub.ID].Sync.Status != syncengine.StatusPending {
		t.Fatalf("claimed record must be left alone, got %q", repo.subs[sub.ID].Sync.Status)
	}
}

func TestSyncSubmissionUnknownID(t *testing.T) {
	svc, _, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	if _, err := svc.SyncSubmission(context.Background(), uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResyncAllCountsOutcomes(t *testing.T) {
	client := &stubClient{configured: false}
	svc, _, _ := newTestService(client)

	for i := 0; i < 3; i++ {
		if _, err := svc.Submit(context.Background(), submitRequest()); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	// Unconfigured CRM: every record fails with a diagnostic.
	summary, err := svc.ResyncAll(context.Background())
	if err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}
	if summary.Total != 3 || summary.Failed != 3 || summary.Synced != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	// Configure the CRM and resync: everything recovers.
	client.configured = true
	client.contactID = "c-1"
	summary, err = svc.ResyncAll(context.Background())
	if err != nil {
		t.Fatalf("ResyncAll: %v", err)
	}
	if summary.Total != 3 || summary.Synced != 3 || summary.Failed != 0 {
		t.Fatalf("unexpected summary after recovery: %+v", summary)
	}
}

func TestSweepTargetsSkipsSynced(t *testing.T) {
	svc, _, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	first, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), submitRequest()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.SyncSubmission(context.Background(), first.ID); err != nil {
		t.Fatalf("SyncSubmission: %v", err)
	}

	targets, err := svc.SweepTargets(context.Background())
	if err != nil {
		t.Fatalf("SweepTargets: %v", err)
	}
	if len(targets) != 1 {
		t.Fatalf("expected only the unsynced submission in the sweep, got %d", len(targets))
	}
}

func TestUpdateWorkflowStatusLeavesSyncAlone(t *testing.T) {
	svc, repo, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	created, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.SyncSubmission(context.Background(), created.ID); err != nil {
		t.Fatalf("SyncSubmission: %v", err)
	}

	resp, err := svc.UpdateWorkflowStatus(context.Background(), created.ID, transport.UpdateWorkflowStatusRequest{
		WorkflowStatus: "closed",
	})
	if err != nil {
		t.Fatalf("UpdateWorkflowStatus: %v", err)
	}
	if resp.WorkflowStatus != "closed" {
		t.Fatalf("expected closed, got %q", resp.WorkflowStatus)
	}
	if stored := repo.subs[created.ID]; stored.Sync.Status != syncengine.StatusSynced {
		t.Fatalf("workflow change must not touch the sync record, got %q", stored.Sync.Status)
	}
}

func TestUpdateWorkflowStatusRejectsUnknown(t *testing.T) {
	svc, _, _ := newTestService(&stubClient{configured: true})

	_, err := svc.UpdateWorkflowStatus(context.Background(), uuid.New(), transport.UpdateWorkflowStatusRequest{
		WorkflowStatus: "archived",
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestBulkDeleteReportsCount(t *testing.T) {
	svc, _, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	first, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	resp, err := svc.BulkDelete(context.Background(), transport.BulkDeleteRequest{
		IDs: []uuid.UUID{first.ID, uuid.New()},
	}, uuid.New())
	if err != nil {
		t.Fatalf("BulkDelete: %v", err)
	}
	if resp.Deleted != 1 {
		t.Fatalf("expected 1 deletion, got %d", resp.Deleted)
	}
}

func TestListFiltersBySyncStatus(t *testing.T) {
	svc, _, _ := newTestService(&stubClient{configured: true, contactID: "c-1"})

	first, err := svc.Submit(context.Background(), submitRequest())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.Submit(context.Background(), submitRequest()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if _, err := svc.SyncSubmission(context.Background(), first.ID); err != nil {
		t.Fatalf("SyncSubmission: %v", err)
	}

	list, err := svc.List(context.Background(), transport.ListSubmissionsRequest{SyncStatus: "synced"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list.Total != 1 {
		t.Fatalf("expected 1 synced submission, got %d", list.Total)
	}

	if _, err := svc.List(context.Background(), transport.ListSubmissionsRequest{WorkflowStatus: "bogus"}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error for bogus workflow filter, got %v", err)
	}
}

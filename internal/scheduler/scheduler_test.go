package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"

	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/events"
	syncengine "consultancy_site_backend/internal/sync"
	platformevents "consultancy_site_backend/platform/events"
	"consultancy_site_backend/platform/logger"
)

type testSchedulerConfig struct {
	redisURL string
}

func (c testSchedulerConfig) GetRedisURL() string                 { return c.redisURL }
func (c testSchedulerConfig) GetRedisTLSInsecure() bool           { return false }
func (c testSchedulerConfig) GetAsynqQueueName() string           { return "sync" }
func (c testSchedulerConfig) GetAsynqConcurrency() int            { return 2 }
func (c testSchedulerConfig) GetSyncSweepInterval() time.Duration { return time.Minute }

func testConfig(t *testing.T) testSchedulerConfig {
	t.Helper()
	mr := miniredis.RunT(t)
	return testSchedulerConfig{redisURL: "redis://" + mr.Addr()}
}

type okClient struct{}

func (okClient) UpsertContact(_ context.Context, profile crm.Profile) (crm.Contact, error) {
	return crm.Contact{ID: "crm-" + profile.Email, Email: profile.Email}, nil
}

func (okClient) CreateInvoice(context.Context, string, []crm.LineItem) (crm.Invoice, error) {
	return crm.Invoice{}, crm.ErrCapabilityUnavailable
}

func (okClient) IsConfigured() bool      { return true }
func (okClient) SupportsInvoicing() bool { return false }
func (okClient) IsProduction() bool      { return true }

// memTarget is a minimal in-memory sync target.
type memTarget struct {
	id  uuid.UUID
	rec syncengine.Record
}

func (t *memTarget) SyncID() uuid.UUID       { return t.id }
func (t *memTarget) Kind() string            { return "contact" }
func (t *memTarget) Profile() crm.Profile    { return crm.Profile{Email: "sweep@example.com"} }
func (t *memTarget) Sync() syncengine.Record { return t.rec }

func (t *memTarget) SaveSync(_ context.Context, rec syncengine.Record) error {
	t.rec = rec
	return nil
}

func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	log := logger.New("test")
	engine := syncengine.NewEngine(okClient{}, log)
	worker, err := NewWorker(testConfig(t), engine, log)
	if err != nil {
		t.Fatalf("NewWorker: %v", err)
	}
	return worker
}

func TestClientEnqueue(t *testing.T) {
	client, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	if err := client.EnqueueSyncSweep(context.Background()); err != nil {
		t.Fatalf("EnqueueSyncSweep: %v", err)
	}
	if err := client.EnqueueSyncSweep(context.Background(), "contact", "user"); err != nil {
		t.Fatalf("EnqueueSyncSweep with kinds: %v", err)
	}
	if err := client.EnqueueSyncResync(context.Background(), "user", uuid.New()); err != nil {
		t.Fatalf("EnqueueSyncResync: %v", err)
	}
}

func TestRetryEnqueuerEnqueuesOnSyncFailed(t *testing.T) {
	log := logger.New("test")
	client, err := NewClient(testConfig(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	bus := platformevents.NewInMemoryBus(log)
	NewRetryEnqueuer(client, log).RegisterHandlers(bus)

	failed := events.SyncFailed{
		BaseEvent:  events.NewBaseEvent(),
		EntityType: "contact",
		EntityID:   uuid.New(),
		Diagnostic: "connection refused",
	}
	if err := bus.PublishSync(context.Background(), failed); err != nil {
		t.Fatalf("PublishSync: %v", err)
	}
}

func TestClientRequiresRedisURL(t *testing.T) {
	if _, err := NewClient(testSchedulerConfig{}); err == nil {
		t.Fatal("expected an error without a redis url")
	}
}

func TestHandleSyncSweepRunsRegisteredSources(t *testing.T) {
	worker := newTestWorker(t)

	target := &memTarget{id: uuid.New(), rec: syncengine.NewRecord()}
	worker.RegisterSource("contact",
		func(context.Context) ([]syncengine.Target, error) {
			return []syncengine.Target{target}, nil
		},
		nil,
	)

	task, err := NewSyncSweepTask(SyncSweepPayload{})
	if err != nil {
		t.Fatalf("NewSyncSweepTask: %v", err)
	}
	if err := worker.handleSyncSweep(context.Background(), task); err != nil {
		t.Fatalf("handleSyncSweep: %v", err)
	}
	if target.rec.Status != syncengine.StatusSynced {
		t.Fatalf("sweep should have synced the target, got %q", target.rec.Status)
	}
}

func TestHandleSyncSweepIgnoresUnknownKind(t *testing.T) {
	worker := newTestWorker(t)

	task, err := NewSyncSweepTask(SyncSweepPayload{Kinds: []string{"invoice"}})
	if err != nil {
		t.Fatalf("NewSyncSweepTask: %v", err)
	}
	if err := worker.handleSyncSweep(context.Background(), task); err != nil {
		t.Fatalf("an unknown kind is logged, not fatal: %v", err)
	}
}

func TestHandleSyncResyncDispatchesByKind(t *testing.T) {
	worker := newTestWorker(t)

	var got uuid.UUID
	worker.RegisterSource("user", nil, func(_ context.Context, id uuid.UUID) error {
		got = id
		return nil
	})

	want := uuid.New()
	task, err := NewSyncResyncTask(SyncResyncPayload{EntityType: "user", EntityID: want.String()})
	if err != nil {
		t.Fatalf("NewSyncResyncTask: %v", err)
	}
	if err := worker.handleSyncResync(context.Background(), task); err != nil {
		t.Fatalf("handleSyncResync: %v", err)
	}
	if got != want {
		t.Fatalf("resync dispatched with id %s, want %s", got, want)
	}
}

func TestHandleSyncResyncBadID(t *testing.T) {
	worker := newTestWorker(t)
	worker.RegisterSource("user", nil, func(context.Context, uuid.UUID) error { return nil })

	task, err := NewSyncResyncTask(SyncResyncPayload{EntityType: "user", EntityID: "not-a-uuid"})
	if err != nil {
		t.Fatalf("NewSyncResyncTask: %v", err)
	}
	if err := worker.handleSyncResync(context.Background(), task); err == nil {
		t.Fatal("expected an error for a malformed entity id")
	}
}

package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/platform/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrAlreadyInFlight is returned when a sync is requested for an entity that
// already has one in progress. The caller should surface it as a conflict,
// not retry immediately.
var ErrAlreadyInFlight = errors.New("sync already in flight for entity")

const notConfiguredDiagnostic = "CRM not configured"

// defaultFanOut bounds concurrent CRM calls during a batch sync.
const defaultFanOut = 5

// Target is the engine's view of a syncable entity. Repositories construct
// targets that carry the entity's current sync state and know how to persist
// a new one; the engine itself never touches storage.
type Target interface {
	// SyncID identifies the entity for the at-most-one-in-flight guard.
	SyncID() uuid.UUID
	// Kind names the entity type for logging ("contact", "user").
	Kind() string
	// Profile returns the CRM contact payload for this entity.
	Profile() crm.Profile
	// Sync returns the entity's current persisted sync record.
	Sync() Record
	// SaveSync persists a new sync record for this entity.
	SaveSync(ctx context.Context, rec Record) error
}

// Claimer is an optional Target capability for entities in shared storage.
// Claiming marks the row pending only when no other process already holds
// it, extending the in-flight guard beyond this process's engine.
type Claimer interface {
	ClaimSync(ctx context.Context) (bool, error)
}

// Summary is the aggregate result of a batch sync.
type Summary struct {
	Synced int `json:"synced"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Engine drives a single entity's sync record to synced, or records why it
// could not. CRM failures are absorbed into the record; only persistence
// errors propagate to the caller.
type Engine struct {
	client crm.Client
	log    *logger.Logger
	fanOut int

	mu       sync.Mutex
	inFlight map[uuid.UUID]bool
}

// NewEngine creates a sync engine over the given CRM client.
func NewEngine(client crm.Client, log *logger.Logger) *Engine {
	return &Engine{
		client:   client,
		log:      log,
		fanOut:   defaultFanOut,
		inFlight: make(map[uuid.UUID]bool),
	}
}

// markRunning attempts to claim the per-entity guard. Returns false if a sync
// for this id is already in flight.
func (e *Engine) markRunning(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inFlight[id] {
		return false
	}
	e.inFlight[id] = true
	return true
}

func (e *Engine) markComplete(id uuid.UUID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.inFlight, id)
}

// SyncOne pushes a single entity to the CRM and persists the outcome.
// Idempotent: re-running against an already-synced entity re-validates the
// remote contact and refreshes synced_at/external_id.
//
// The returned error is non-nil only for guard conflicts and persistence
// failures; CRM-level failures land in the returned record instead.
func (e *Engine) SyncOne(ctx context.Context, target Target) (Record, error) {
	id := target.SyncID()
	if !e.markRunning(id) {
		return target.Sync(), ErrAlreadyInFlight
	}
	defer e.markComplete(id)

	return e.syncLocked(ctx, target)
}

// syncLocked performs the actual transition. The caller must hold the
// per-entity guard.
func (e *Engine) syncLocked(ctx context.Context, target Target) (Record, error) {
	rec := target.Sync()

	if !e.client.IsConfigured() {
		rec.Status = StatusFailed
		rec.LastError = stringPtr(notConfiguredDiagnostic)
		if err := target.SaveSync(ctx, rec); err != nil {
			return rec, err
		}
		e.log.SyncOutcome(target.Kind(), target.SyncID().String(), string(rec.Status), crm.ErrNotConfigured)
		return rec, nil
	}

	// The pending transition doubles as a cross-process claim when the target
	// supports it: a row another process already holds is left alone.
	if claimer, ok := target.(Claimer); ok {
		claimed, err := claimer.ClaimSync(ctx)
		if err != nil {
			return rec, err
		}
		if !claimed {
			return rec, ErrAlreadyInFlight
		}
	} else {
		pending := rec
		pending.Status = StatusPending
		if err := target.SaveSync(ctx, pending); err != nil {
			return rec, err
		}
	}

	contact, err := e.client.UpsertContact(ctx, target.Profile())
	if err != nil {
		// Keep any prior external_id: a failure never demotes a record to
		// "never synced".
		rec.Status = StatusFailed
		rec.LastError = stringPtr(err.Error())
		if saveErr := target.SaveSync(ctx, rec); saveErr != nil {
			return rec, saveErr
		}
		e.log.SyncOutcome(target.Kind(), target.SyncID().String(), string(rec.Status), err)
		return rec, nil
	}

	now := time.Now().UTC()
	rec.Status = StatusSynced
	rec.ExternalID = stringPtr(contact.ID)
	rec.SyncedAt = &now
	rec.LastError = nil
	if err := target.SaveSync(ctx, rec); err != nil {
		return rec, err
	}
	e.log.SyncOutcome(target.Kind(), target.SyncID().String(), string(rec.Status), nil)
	return rec, nil
}

// SyncMany applies SyncOne to each target independently with bounded
// concurrency. A failure on one entity never aborts the batch; entities whose
// guard is already held count as failed without touching their records.
func (e *Engine) SyncMany(ctx context.Context, targets []Target) Summary {
	summary := Summary{Total: len(targets)}
	if len(targets) == 0 {
		return summary
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.fanOut)

	for _, target := range targets {
		t := target
		g.Go(func() error {
			rec, err := e.SyncOne(gctx, t)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
			case rec.Status == StatusSynced:
				summary.Synced++
			default:
				summary.Failed++
			}
			// Individual outcomes are logged by SyncOne; the batch never
			// fails as a whole.
			return nil
		})
	}

	_ = g.Wait()
	return summary
}

func stringPtr(s string) *string {
	return &s
}

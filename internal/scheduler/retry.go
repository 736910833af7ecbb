package scheduler

import (
	"context"

	"consultancy_site_backend/internal/events"
	"consultancy_site_backend/platform/logger"
)

// RetryEnqueuer hands failed syncs to the background worker: every SyncFailed
// event becomes a sync.resync task so the worker owns the retry. It is
// registered in the API process only; worker-side failures are left to the
// periodic sweep, so a record that keeps failing cannot re-enqueue itself.
type RetryEnqueuer struct {
	client *Client
	log    *logger.Logger
}

func NewRetryEnqueuer(client *Client, log *logger.Logger) *RetryEnqueuer {
	return &RetryEnqueuer{client: client, log: log}
}

// RegisterHandlers subscribes to the domain events this enqueuer reacts to.
func (r *RetryEnqueuer) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.SyncFailed{}.EventName(), r)

	r.log.Info("background resync enqueuer registered")
}

func (r *RetryEnqueuer) Handle(ctx context.Context, event events.Event) error {
	failed, ok := event.(events.SyncFailed)
	if !ok {
		return nil
	}

	if err := r.client.EnqueueSyncResync(ctx, failed.EntityType, failed.EntityID); err != nil {
		r.log.Error("background resync enqueue failed",
			"error", err, "entityType", failed.EntityType, "entityId", failed.EntityID)
		return err
	}
	return nil
}

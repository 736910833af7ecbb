package scheduler

import (
	"context"
	"time"

	"consultancy_site_backend/platform/logger"
)

const defaultSweepInterval = 15 * time.Minute

// Sweeper periodically enqueues a sync sweep so records left unsynced or
// failed get retried without operator action.
type Sweeper struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

func NewSweeper(client *Client, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &Sweeper{
		client:   client,
		interval: interval,
		log:      log,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	if s == nil || s.client == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.EnqueueSyncSweep(ctx); err != nil {
				s.log.Warn("failed to enqueue sync sweep", "error", err)
			}
		}
	}
}

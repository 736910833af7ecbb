package scheduler

import (
	"context"
	"fmt"

	"consultancy_site_backend/platform/config"
	"consultancy_site_backend/platform/logger"

	syncengine "consultancy_site_backend/internal/sync"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// SweepFunc returns the sync targets a bounded context wants retried.
type SweepFunc func(ctx context.Context) ([]syncengine.Target, error)

// ResyncFunc re-runs the CRM sync for one record of a bounded context.
type ResyncFunc func(ctx context.Context, id uuid.UUID) error

type source struct {
	sweep  SweepFunc
	resync ResyncFunc
}

// Worker consumes background sync tasks. Bounded contexts register their
// sync surfaces. The worker runs its own engine in a separate process; the
// engine's in-process guard covers concurrent tasks here, and the repository
// row claim keeps sweeps from interleaving with syncs in the API process.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	engine  *syncengine.Engine
	sources map[string]source
	log     *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, engine *syncengine.Engine, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		engine:  engine,
		sources: make(map[string]source),
		log:     log,
	}

	mux.HandleFunc(TaskSyncSweep, w.handleSyncSweep)
	mux.HandleFunc(TaskSyncResync, w.handleSyncResync)

	return w, nil
}

// RegisterSource wires a bounded context's sync surface under its entity kind.
func (w *Worker) RegisterSource(kind string, sweep SweepFunc, resync ResyncFunc) {
	w.sources[kind] = source{sweep: sweep, resync: resync}
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleSyncSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncSweepPayload(task)
	if err != nil {
		return err
	}

	kinds := payload.Kinds
	if len(kinds) == 0 {
		for kind := range w.sources {
			kinds = append(kinds, kind)
		}
	}

	for _, kind := range kinds {
		src, ok := w.sources[kind]
		if !ok || src.sweep == nil {
			w.log.Warn("sweep requested for unknown entity kind", "kind", kind)
			continue
		}

		targets, err := src.sweep(ctx)
		if err != nil {
			w.log.Error("sweep target listing failed", "kind", kind, "error", err)
			continue
		}
		if len(targets) == 0 {
			continue
		}

		summary := w.engine.SyncMany(ctx, targets)
		w.log.Info("sync sweep finished", "kind", kind,
			"synced", summary.Synced, "failed", summary.Failed, "total", summary.Total)
	}

	return nil
}

func (w *Worker) handleSyncResync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseSyncResyncPayload(task)
	if err != nil {
		return err
	}

	src, ok := w.sources[payload.EntityType]
	if !ok || src.resync == nil {
		w.log.Warn("resync requested for unknown entity kind", "kind", payload.EntityType)
		return nil
	}

	id, err := uuid.Parse(payload.EntityID)
	if err != nil {
		return err
	}

	return src.resync(ctx, id)
}

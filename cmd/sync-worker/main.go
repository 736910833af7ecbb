// Command sync-worker runs the asynq-backed background worker that sweeps
// stale CRM sync records and replays individual resync requests. It runs in
// its own process with its own engine; exclusion against syncs in the API
// process comes from the repositories' pending row claim. No HTTP surface.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	contactsrepo "consultancy_site_backend/internal/contacts/repository"
	contactssvc "consultancy_site_backend/internal/contacts/service"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/email"
	"consultancy_site_backend/internal/notification"
	"consultancy_site_backend/internal/scheduler"
	syncengine "consultancy_site_backend/internal/sync"
	usersrepo "consultancy_site_backend/internal/users/repository"
	userssvc "consultancy_site_backend/internal/users/service"
	"consultancy_site_backend/platform/config"
	"consultancy_site_backend/platform/db"
	"consultancy_site_backend/platform/events"
	"consultancy_site_backend/platform/logger"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if cfg.GetRedisURL() == "" {
		fmt.Fprintln(os.Stderr, "REDIS_URL is required for the sync worker")
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		if retryErr := withRetry(ctx, log, "connect database", func() error {
			pool, err = db.NewPool(ctx, cfg)
			return err
		}); retryErr != nil {
			log.Error("database unavailable", "error", retryErr)
			os.Exit(1)
		}
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg)
	if err != nil {
		log.Error("email sender init failed", "error", err)
		os.Exit(1)
	}
	notification.NewModule(sender, cfg, log).RegisterHandlers(eventBus)

	crmClient := crm.New(cfg, log)
	engine := syncengine.NewEngine(crmClient, log)

	contactSvc := contactssvc.New(contactsrepo.New(pool), engine, eventBus, log)
	userSvc := userssvc.New(usersrepo.New(pool), engine, eventBus, log)

	worker, err := scheduler.NewWorker(cfg, engine, log)
	if err != nil {
		log.Error("worker init failed", "error", err)
		os.Exit(1)
	}
	worker.RegisterSource("contact", contactSvc.SweepTargets, func(ctx context.Context, id uuid.UUID) error {
		_, err := contactSvc.SyncSubmission(ctx, id)
		return err
	})
	worker.RegisterSource("user", userSvc.SweepTargets, func(ctx context.Context, id uuid.UUID) error {
		_, err := userSvc.SyncUser(ctx, id)
		return err
	})

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("scheduler client init failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	sweeper := scheduler.NewSweeper(client, cfg.GetSyncSweepInterval(), log)
	go sweeper.Run(ctx)

	log.Info("sync worker started", "queue", cfg.GetAsynqQueueName(), "sweep_interval", cfg.GetSyncSweepInterval())
	worker.Run(ctx)
	log.Info("sync worker stopped")
}

func withRetry(ctx context.Context, log *logger.Logger, name string, op func() error) error {
	const attempts = 5
	var err error
	for i := 1; i <= attempts; i++ {
		if err = op(); err == nil {
			return nil
		}
		if i == attempts {
			break
		}
		wait := time.Duration(i*i) * time.Second
		log.Warn("startup step failed, retrying", "step", name, "attempt", i, "wait", wait, "error", err)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return fmt.Errorf("%s: %w", name, err)
}

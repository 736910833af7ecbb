// Command api runs the public HTTP server: contact submissions, user
// registration, the service catalog and order placement, all backed by the
// CRM sync engine.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"consultancy_site_backend/internal/catalog"
	"consultancy_site_backend/internal/contacts"
	"consultancy_site_backend/internal/crm"
	"consultancy_site_backend/internal/email"
	apphttp "consultancy_site_backend/internal/http"
	"consultancy_site_backend/internal/http/router"
	"consultancy_site_backend/internal/notification"
	"consultancy_site_backend/internal/orders"
	"consultancy_site_backend/internal/scheduler"
	syncengine "consultancy_site_backend/internal/sync"
	"consultancy_site_backend/internal/users"
	"consultancy_site_backend/platform/config"
	"consultancy_site_backend/platform/db"
	"consultancy_site_backend/platform/events"
	"consultancy_site_backend/platform/logger"
	"consultancy_site_backend/platform/validator"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "run migrations", func() error {
		return db.RunMigrations(ctx, cfg, "migrations")
	}); err != nil {
		log.Error("migrations failed", "error", err)
		os.Exit(1)
	}

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

	val := validator.New()

	crmClient := crm.New(cfg, log)
	if !crmClient.IsConfigured() {
		log.Warn("CRM credentials not set; submissions will be marked failed until configured")
	}
	engine := syncengine.NewEngine(crmClient, log)

	notification.NewModule(sender, cfg, log).RegisterHandlers(eventBus)

	// With Redis configured, failed syncs are handed to the background worker
	// for a retry it owns. Without it, the periodic sweep never runs either,
	// so failures wait for an admin resync.
	if cfg.GetRedisURL() != "" {
		schedClient, err := scheduler.NewClient(cfg)
		if err != nil {
			log.Error("scheduler client init failed", "error", err)
			os.Exit(1)
		}
		defer schedClient.Close()
		scheduler.NewRetryEnqueuer(schedClient, log).RegisterHandlers(eventBus)
	}

	contactsModule := contacts.NewModule(pool, engine, eventBus, val, log)
	usersModule := users.NewModule(pool, engine, eventBus, val, log)
	catalogModule := catalog.NewModule(pool, val, log)
	ordersModule := orders.NewModule(pool, catalogModule.Repository(), engine, crmClient, eventBus, val, log)

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			contactsModule,
			usersModule,
			catalogModule,
			ordersModule,
		},
	}

	engineHTTP := router.New(app)
	srv := &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           engineHTTP,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", cfg.GetHTTPAddr(), "env", cfg.Env)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}

	log.Info("server stopped")
}

// withRetry runs op until it succeeds, the attempts run out or ctx is
// cancelled. The backoff grows quadratically so a slow-starting database
// does not get hammered.
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

// Package main is the entry point for the newsmap API server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"newsmap/internal/cache"
	"newsmap/internal/config"
	"newsmap/internal/database"
	"newsmap/internal/events"
	"newsmap/internal/handlers"
	"newsmap/internal/router"
	"newsmap/internal/scheduler"
	"newsmap/internal/service"
	"newsmap/internal/storage"
	"newsmap/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text in development, JSON elsewhere.
	opts := &slog.HandlerOptions{Level: config.ParseLogLevel(cfg.LogLevel)}
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, opts)
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DSN())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Response cache: Valkey when configured, process memory otherwise.
	var backend cache.Backend
	if cfg.UseValkey() {
		valkeyClient, err := cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
		backend = cache.NewValkeyBackend(valkeyClient)
	} else {
		slog.Warn("valkey not configured, using in-memory response cache")
		backend = cache.NewMemoryBackend()
	}
	responseCache := cache.NewResponseCache(backend, cfg.CacheRevalidate)

	svc := service.New(
		store.NewLocationStore(db),
		store.NewRelationStore(db),
		responseCache,
		service.Options{
			Palette:         cfg.Palette,
			RecentDays:      cfg.RecentWindowDays,
			RecentLimit:     cfg.RecentLimit,
			PageSize:        cfg.PageSize,
			UpstreamTimeout: cfg.UpstreamTimeout,
		},
	)

	// Snapshot publishing to S3-compatible storage (optional).
	var publisher scheduler.Publisher
	storageClient, err := storage.New(cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		publisher = storage.NewSnapshots(storageClient, cfg.SnapshotKey, cfg.HTTPMaxAge)
		slog.Info("map snapshots enabled", "url", storageClient.FileURL(cfg.SnapshotKey))
	} else {
		slog.Warn("s3 storage not configured, map snapshots disabled")
	}

	jobs := scheduler.New(svc, publisher)
	if err := jobs.Start(cfg.WarmSchedule); err != nil {
		slog.Error("failed to schedule cache warm-up", "error", err)
		os.Exit(1)
	}

	// Ingestion events invalidate cached payloads (optional).
	var nc *nats.Conn
	if cfg.NATSURL != "" {
		nc, err = events.Connect(cfg.NATSURL)
		if err != nil {
			slog.Error("failed to connect to nats", "error", err)
			os.Exit(1)
		}
		if _, err := events.NewSubscriber(svc, service.AllTags).Subscribe(nc, cfg.NATSSubject); err != nil {
			slog.Error("failed to subscribe to ingestion events", "error", err)
			os.Exit(1)
		}
	} else {
		slog.Warn("nats not configured, relying on scheduled revalidation")
	}

	// First warm-up runs in the background so startup does not wait on the store.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.UpstreamTimeout*2)
		defer cancel()
		if err := jobs.RunOnce(ctx); err != nil {
			slog.Warn("initial cache warm-up failed", "error", err)
		}
	}()

	api := handlers.NewAPI(svc, cfg.HTTPMaxAge)
	revalidate := handlers.NewRevalidate(svc, cfg.RevalidateToken, service.AllTags)
	r := router.New(api, revalidate, db, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 15*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if nc != nil {
		if err := nc.Drain(); err != nil {
			slog.Warn("nats drain failed", "error", err)
		}
	}
	jobs.Stop(ctx)

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

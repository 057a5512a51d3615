// Copyright (c) 2026 Al Furqan. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Al Furqan HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool) and run migrations.
//  4. Connect to Redis when configured.
//  5. Open the Kafka event stream when configured.
//  6. Wire domain services and HTTP handlers.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
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

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/alfurqan/internal/api"
	"github.com/taibuivan/alfurqan/internal/moderation"
	"github.com/taibuivan/alfurqan/internal/platform/config"
	"github.com/taibuivan/alfurqan/internal/platform/constants"
	"github.com/taibuivan/alfurqan/internal/platform/events"
	"github.com/taibuivan/alfurqan/internal/platform/metrics"
	"github.com/taibuivan/alfurqan/internal/platform/migration"
	pgstore "github.com/taibuivan/alfurqan/internal/platform/postgres"
	redisstore "github.com/taibuivan/alfurqan/internal/platform/redis"
	"github.com/taibuivan/alfurqan/internal/platform/sec"
	"github.com/taibuivan/alfurqan/internal/users"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	level := new(slog.LevelVar)
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})).
		With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		level.Set(slog.LevelDebug)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("cache_enabled", cfg.RedisURL != ""),
		slog.Bool("events_enabled", len(cfg.Brokers()) > 0),
	)

	// Root context for background work; cancelled on shutdown.
	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	startupCtx, startupCancel := context.WithTimeout(rootCtx, 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing_postgres_pool")
		pool.Close()
	}()

	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing_redis_client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis_close_failed", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Events (optional) ──────────────────────────────────────────────
	var publisher events.Publisher = events.Nop{}
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = events.NewKafkaPublisher(brokers, cfg.KafkaTopic, constants.EventPublishTimeout)
		log.Info("event_publisher_configured",
			slog.Any("brokers", brokers),
			slog.String("topic", cfg.KafkaTopic),
		)
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			log.Error("event_publisher_close_failed", slog.Any("error", cerr))
		}
	}()

	// ── 6. Security ───────────────────────────────────────────────────────
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	must(log, err, "initialize jwt service")

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	m := metrics.New()

	userService := users.NewService(users.NewPostgresStore(pool), tokens)

	store := moderation.NewPostgresStore(pool)
	deps := moderation.Dependencies{
		Registry:      store,
		AuditLog:      store,
		Publisher:     publisher,
		Metrics:       m,
		Roles:         userService,
		QueuePageSize: constants.QueuePageSize,
	}
	if rdb != nil {
		cached := moderation.NewCachedRegistry(store, rdb, cfg.CacheTTL, m)
		deps.Registry, deps.Reader = cached, cached
	}

	moderationService := moderation.NewService(deps)

	healthDeps := api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error { return pgstore.Ping(ctx, pool) },
	}
	if rdb != nil {
		healthDeps.CheckCache = func(ctx context.Context) error { return redisstore.Ping(ctx, rdb) }
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(rootCtx, cfg, log, tokens, m, api.Handlers{
		Liveness:   liveness,
		Readiness:  readiness,
		Users:      users.NewHandler(userService),
		Moderation: moderation.NewHandler(moderationService),
	})

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown_signal_received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server_startup_failed", slog.Any("error", err))
	}

	log.Info("shutting_down_server", slog.Duration("timeout", constants.ShutdownTimeout))

	if err := server.Shutdown(constants.ShutdownTimeout); err != nil {
		log.Error("shutdown_failed", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server_stopped_cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned
// and handled explicitly.
func must(log *slog.Logger, err error, step string) {
	if err != nil {
		log.Error("startup_failure",
			slog.String("step", step),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}

// main wires the gateway's collaborators from the environment and runs the
// server lifecycle. Business logic lives in the internal services packages.
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

	"golang.org/x/sync/errgroup"

	"authgate/internal/audit"
	authhandler "authgate/internal/auth/handler"
	authservice "authgate/internal/auth/service"
	"authgate/internal/auth/session"
	"authgate/internal/identity"
	"authgate/internal/identity/local"
	"authgate/internal/platform/config"
	"authgate/internal/platform/httpserver"
	"authgate/internal/platform/logger"
	"authgate/internal/platform/metrics"
	"authgate/internal/platform/redis"
	"authgate/internal/ratelimit/lockout"
	httptransport "authgate/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Environment)

	if err := run(cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	checks := make(map[string]httptransport.HealthChecker)

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		checks["redis"] = redisClient
	}

	// Audit pipeline: recorder -> worker -> store (+ optional Kafka sink).
	recorder := audit.NewRecorder(cfg.Audit.BufferSize, log, m)

	var auditStore audit.Store = audit.NewMemoryStore()
	if cfg.Audit.PostgresDSN != "" {
		pgStore, err := audit.NewPostgresStore(ctx, cfg.Audit.PostgresDSN)
		if err != nil {
			return err
		}
		defer pgStore.Close()
		auditStore = pgStore
		checks["postgres"] = pgStore
	}

	var sink audit.Sink
	if len(cfg.Audit.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.Audit.KafkaBrokers, cfg.Audit.KafkaTopic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sink = kafkaSink
	}
	worker := audit.NewWorker(auditStore, sink, recorder.Inbox(), log)

	var lock *lockout.Service
	if !cfg.Lockout.Disabled {
		var store lockout.Store = lockout.NewMemoryStore()
		if redisClient != nil {
			store = lockout.NewRedisStore(redisClient.Client)
		}
		lock = lockout.New(store, cfg.Lockout, log, m, recorder)
	}

	var provider identity.Provider
	if cfg.Provider.URL != "" {
		provider, err = identity.NewRESTClient(ctx, cfg.Provider, log)
		if err != nil {
			return err
		}
	} else {
		log.Warn("no identity provider configured, using the in-process development provider")
		provider = local.NewProvider()
	}

	svc := authservice.New(provider, lock, recorder, m, log)
	sessions := session.NewManager(cfg.Cookie, cfg.IsProduction())
	auth := authhandler.New(svc, sessions, log)

	router := httptransport.NewRouter(log, m, auth, cfg.StaticDir, checks)
	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return worker.Run(ctx)
	})

	g.Go(func() error {
		log.Info("starting authgate", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

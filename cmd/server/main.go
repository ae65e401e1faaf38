// main wires configuration, stores, the jurisdiction registry client, and the
// HTTP router, then runs the server until interrupted. Business logic lives in
// the internal service packages.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"attestor/internal/jurisdiction"
	"attestor/internal/jwttoken"
	"attestor/internal/platform/config"
	"attestor/internal/platform/httpserver"
	"attestor/internal/platform/logger"
	"attestor/internal/platform/middleware"
	platformredis "attestor/internal/platform/redis"
	"attestor/internal/validator"
	"attestor/internal/validator/metrics"
	"attestor/internal/validator/service"
	orgstore "attestor/internal/validator/store/organization"
	statestore "attestor/internal/validator/store/state"
	"attestor/pkg/platform/audit"
	auditpublisher "attestor/pkg/platform/audit/publisher"
	auditmemory "attestor/pkg/platform/audit/store/memory"
	auditpostgres "attestor/pkg/platform/audit/store/postgres"
	auditworker "attestor/pkg/platform/audit/worker"
	"attestor/pkg/platform/circuit"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(logger.ParseLevel(cfg.LogLevel))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	states, orgs, audits, cleanup, err := buildStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	registry, err := buildRegistry(cfg, log)
	if err != nil {
		return err
	}

	auditInbox := make(chan audit.Event, 256)
	auditWorker := auditworker.New(audits, auditInbox)
	publisher := auditpublisher.New(audits,
		auditpublisher.WithLogger(log),
		auditpublisher.WithMetrics(auditpublisher.NewMetrics()),
		auditpublisher.WithAsyncOperations(auditInbox),
	)

	svc := validator.NewService(states, orgs, registry,
		service.WithLogger(log),
		service.WithMetrics(metrics.NewRecorder()),
		service.WithAuditPublisher(publisher),
	)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "attestor")

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())
	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(tokens, log))
		validator.NewHandler(svc, log).Register(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := auditWorker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("starting attestor", "addr", cfg.Addr, "jurisdiction", cfg.Jurisdiction.Kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// buildStores returns Postgres-backed stores when a DSN is configured and
// in-memory stores otherwise.
func buildStores(ctx context.Context, cfg config.Config, log *slog.Logger) (service.StateStore, service.OrganizationStore, audit.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Info("running on in-memory stores")
		return statestore.NewInMemory(), orgstore.NewInMemory(), auditmemory.New(), func() {}, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresDSN)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, nil, nil, fmt.Errorf("pinging postgres: %w", err)
	}

	states := statestore.NewPostgres(db)
	orgs := orgstore.NewPostgres(db)
	audits := auditpostgres.New(db)
	for _, ensure := range []func(context.Context) error{states.EnsureSchema, orgs.EnsureSchema, audits.EnsureSchema} {
		if err := ensure(ctx); err != nil {
			_ = db.Close()
			return nil, nil, nil, nil, err
		}
	}

	log.Info("running on postgres stores")
	return states, orgs, audits, func() { _ = db.Close() }, nil
}

// buildRegistry selects the jurisdiction client and wraps it with the circuit
// breaker and call metrics.
func buildRegistry(cfg config.Config, log *slog.Logger) (jurisdiction.Client, error) {
	var client jurisdiction.Client
	switch cfg.Jurisdiction.Kind {
	case "mock":
		client = jurisdiction.NewMockClient(25 * time.Millisecond)
	case "http":
		if cfg.Jurisdiction.BaseURL == "" {
			return nil, errors.New("jurisdiction kind http requires ATTESTOR_JURISDICTION_BASE_URL")
		}
		client = jurisdiction.NewHTTPClient(cfg.Jurisdiction.BaseURL, cfg.Jurisdiction.Timeout)
	case "redis":
		rdb, err := platformredis.New(cfg.Redis)
		if err != nil {
			return nil, err
		}
		if rdb == nil {
			return nil, errors.New("jurisdiction kind redis requires ATTESTOR_REDIS_URL")
		}
		client = jurisdiction.NewRedisClient(rdb)
	default:
		return nil, fmt.Errorf("unknown jurisdiction kind %q", cfg.Jurisdiction.Kind)
	}

	breaker := circuit.New("jurisdiction")
	return jurisdiction.WithMetrics(jurisdiction.WithBreaker(client, breaker, log)), nil
}

// Command coffeeshop serves the drink menu API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/deepworx/coffeeshop/internal/api"
	"github.com/deepworx/coffeeshop/internal/auth"
	"github.com/deepworx/coffeeshop/internal/config"
	"github.com/deepworx/coffeeshop/internal/drink"
	"github.com/deepworx/coffeeshop/pkg/grpchealth"
	"github.com/deepworx/coffeeshop/pkg/httpmw"
	"github.com/deepworx/coffeeshop/pkg/otel"
	"github.com/deepworx/coffeeshop/pkg/postgres"
	"github.com/deepworx/coffeeshop/pkg/shutdown"
	"github.com/deepworx/coffeeshop/pkg/slogutil"
)

func main() {
	configPath := flag.String("config", os.Getenv("COFFEESHOP_CONFIG"), "path to the YAML config file")
	flag.Parse()

	if err := run(context.Background(), *configPath); err != nil {
		slog.Error("coffeeshop stopped", slogutil.Err(err))

		// Hooks registered before the failure still need to run.
		ctx, cancel := context.WithTimeout(context.Background(), shutdown.DefaultTimeout)
		_ = shutdown.Shutdown(ctx)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := slogutil.Setup(cfg.Log, slog.String("service", cfg.OTel.ServiceName)); err != nil {
		return err
	}
	if err := otel.Setup(ctx, cfg.OTel); err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}

	health := grpchealth.NewAggregator(cfg.Health)

	store, err := openStore(ctx, cfg, health)
	if err != nil {
		return err
	}
	if cfg.Store.Seed {
		if err := drink.Seed(ctx, store); err != nil {
			return fmt.Errorf("seed drinks: %w", err)
		}
	}

	keys, err := auth.NewKeySetFetcher(ctx, cfg.Auth)
	if err != nil {
		return fmt.Errorf("build key set fetcher: %w", err)
	}
	health.Register("jwks", grpchealth.HealthCheckerFunc(func(ctx context.Context) bool {
		_, err := keys.Fetch(ctx)
		return err == nil
	}))

	verifier, err := auth.NewVerifier(cfg.Auth, keys)
	if err != nil {
		return fmt.Errorf("build verifier: %w", err)
	}
	guard := auth.NewGuard(verifier, cfg.Auth.StatusPolicy)

	mux := http.NewServeMux()
	api.NewServer(store, guard).Register(mux)
	mux.Handle(health.Handler())
	mux.Handle("GET /readyz", health.ReadyHandler())

	handler := httpmw.Chain(
		api.WithCORS(mux, cfg.CORS),
		httpmw.BuildDefault(
			httpmw.WithDeadline(cfg.Deadline),
			httpmw.WithRequestID(cfg.RequestID),
			httpmw.WithOperation(cfg.OTel.ServiceName),
		)...,
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	healthCtx, stopHealth := context.WithCancel(ctx)
	go func() { _ = health.Run(healthCtx) }()
	shutdown.Register("health", func(context.Context) error {
		stopHealth()
		return nil
	})

	waitCtx, cancelWait := context.WithCancel(ctx)
	defer cancelWait()

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening",
			slog.String("addr", cfg.Server.Addr),
			slog.String("store", cfg.Store.Backend),
			slog.String("status_policy", cfg.Auth.StatusPolicy),
			slog.Bool("cache_keys", cfg.Auth.CacheKeys),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- fmt.Errorf("serve: %w", err)
			cancelWait()
		}
	}()
	shutdown.Register("http", srv.Shutdown)

	shutdownErr := shutdown.WaitForSignalWithTimeout(waitCtx, cfg.Server.ShutdownTimeout)
	select {
	case err := <-serveErr:
		return errors.Join(err, shutdownErr)
	default:
		return shutdownErr
	}
}

// openStore returns the configured drink store. The postgres store is
// migrated and its pool registered with the health aggregator.
func openStore(ctx context.Context, cfg config.Config, health *grpchealth.Aggregator) (drink.Store, error) {
	if cfg.Store.Backend == config.StoreMemory {
		return drink.NewMemoryStore(), nil
	}

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	health.Register("postgres", postgres.NewHealthChecker(pool,
		postgres.WithProbeQuery(`SELECT 1 FROM drinks LIMIT 1`)))

	store := drink.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

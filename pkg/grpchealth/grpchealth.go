// Package grpchealth aggregates dependency health checks for the coffee shop
// service and publishes them through connectrpc.com/grpchealth and a plain
// HTTP readiness endpoint.
//
// Every registered checker is probed in parallel each interval. The overall
// status ("" service) is serving only when all checks pass; each checker's
// own result is published under its name.
package grpchealth

import (
	"context"
	"encoding/json"
	"log/slog"
	"maps"
	"net/http"
	"sync"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/grpchealth"
)

// HealthChecker checks the readiness of a dependency.
type HealthChecker interface {
	// Check returns true if the dependency is ready.
	// The context carries the configured timeout.
	Check(ctx context.Context) bool
}

// HealthCheckerFunc allows simple functions to be used as HealthChecker.
type HealthCheckerFunc func(ctx context.Context) bool

// Check implements HealthChecker.
func (f HealthCheckerFunc) Check(ctx context.Context) bool {
	return f(ctx)
}

// Config holds configuration for the health aggregator.
type Config struct {
	// Interval between health check cycles.
	Interval time.Duration `koanf:"interval"`

	// Timeout for each individual health check.
	Timeout time.Duration `koanf:"timeout"`
}

// DefaultConfig returns a 10s interval with a 5s per-check timeout.
func DefaultConfig() Config {
	return Config{
		Interval: 10 * time.Second,
		Timeout:  5 * time.Second,
	}
}

// Aggregator probes registered health checkers and publishes their status.
type Aggregator struct {
	cfg     Config
	checker *grpchealth.StaticChecker

	mu       sync.RWMutex
	services map[string]HealthChecker
	results  map[string]bool
	serving  bool
}

// NewAggregator creates a health aggregator.
// It reports NotServing until the first check cycle completes.
func NewAggregator(cfg Config) *Aggregator {
	checker := grpchealth.NewStaticChecker()
	checker.SetStatus("", grpchealth.StatusNotServing)

	return &Aggregator{
		cfg:      cfg,
		checker:  checker,
		services: make(map[string]HealthChecker),
		results:  make(map[string]bool),
	}
}

// Register adds a checker under name and returns a for chaining.
// Panics if name is empty or already registered.
func (a *Aggregator) Register(name string, checker HealthChecker) *Aggregator {
	if name == "" {
		panic("grpchealth: name cannot be empty")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.services[name]; exists {
		panic("grpchealth: checker already registered: " + name)
	}
	a.services[name] = checker
	a.checker.SetStatus(name, grpchealth.StatusNotServing)
	return a
}

// Handler returns the gRPC health endpoint.
// Mount on the HTTP mux: mux.Handle(aggregator.Handler())
func (a *Aggregator) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	return grpchealth.NewHandler(a.checker, opts...)
}

type readiness struct {
	Serving bool            `json:"serving"`
	Checks  map[string]bool `json:"checks"`
}

// ReadyHandler serves the last check results as JSON for HTTP probes:
// 200 when serving, 503 otherwise.
func (a *Aggregator) ReadyHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		serving, checks := a.Snapshot()

		status := http.StatusOK
		if !serving {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(readiness{Serving: serving, Checks: checks})
	})
}

// Run probes checkers immediately and then every interval until ctx is cancelled.
func (a *Aggregator) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.cfg.Interval)
	defer ticker.Stop()

	a.runChecks(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			a.runChecks(ctx)
		}
	}
}

// IsServing returns the current aggregate status.
func (a *Aggregator) IsServing() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.serving
}

// Snapshot returns the aggregate status and a copy of the per-checker results.
func (a *Aggregator) Snapshot() (bool, map[string]bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.serving, maps.Clone(a.results)
}

func (a *Aggregator) runChecks(ctx context.Context) {
	a.mu.RLock()
	services := maps.Clone(a.services)
	a.mu.RUnlock()

	results := make(map[string]bool, len(services))
	var resultsMu sync.Mutex
	var wg sync.WaitGroup

	for name, checker := range services {
		wg.Go(func() {
			checkCtx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
			defer cancel()

			healthy := safeCheck(checkCtx, name, checker)

			resultsMu.Lock()
			results[name] = healthy
			resultsMu.Unlock()
		})
	}
	wg.Wait()

	a.updateStatus(results)
}

// safeCheck executes a health check with panic recovery.
func safeCheck(ctx context.Context, name string, checker HealthChecker) (healthy bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "health check panicked",
				slog.String("check", name),
				slog.Any("panic", r),
			)
			healthy = false
		}
	}()

	return checker.Check(ctx)
}

func (a *Aggregator) updateStatus(results map[string]bool) {
	serving := true
	for name, healthy := range results {
		a.checker.SetStatus(name, servingStatus(healthy))
		if !healthy {
			serving = false
		}
	}
	a.checker.SetStatus("", servingStatus(serving))

	a.mu.Lock()
	changed := a.serving != serving
	a.serving = serving
	a.results = results
	a.mu.Unlock()

	if changed {
		slog.Info("health status changed",
			slog.Bool("serving", serving),
			slog.Any("checks", results),
		)
	}
}

func servingStatus(ok bool) grpchealth.Status {
	if ok {
		return grpchealth.StatusServing
	}
	return grpchealth.StatusNotServing
}

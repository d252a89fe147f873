// Package shutdown orchestrates graceful process shutdown.
//
// Components register named hooks as they start. On SIGINT or SIGTERM the
// hooks run in reverse registration order, so the HTTP server drains before
// the database pool and telemetry exporters it depends on are closed.
package shutdown

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// DefaultTimeout is the time allowed for all hooks to complete.
const DefaultTimeout = 30 * time.Second

// Handler is called during shutdown with a context bounded by the shutdown timeout.
type Handler func(ctx context.Context) error

type hook struct {
	name string
	fn   Handler
}

// Manager runs registered hooks once on shutdown.
type Manager struct {
	mu    sync.Mutex
	hooks []hook
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a named hook. Hooks run in LIFO order.
func (m *Manager) Register(name string, h Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook{name: name, fn: h})
}

// Shutdown runs all hooks in LIFO order and clears them.
// Every hook runs even if an earlier one fails; errors are joined and carry
// the hook name.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	hooks := m.hooks
	m.hooks = nil
	m.mu.Unlock()

	var errs []error
	for i := len(hooks) - 1; i >= 0; i-- {
		h := hooks[i]
		if err := h.fn(ctx); err != nil {
			slog.ErrorContext(ctx, "shutdown hook failed", slog.String("hook", h.name), slog.String("error", err.Error()))
			errs = append(errs, fmt.Errorf("%s: %w", h.name, err))
			continue
		}
		slog.DebugContext(ctx, "shutdown hook done", slog.String("hook", h.name))
	}
	return errors.Join(errs...)
}

// WaitForSignal blocks until SIGINT, SIGTERM or cancellation of ctx, then
// runs Shutdown with the given timeout.
func (m *Manager) WaitForSignal(ctx context.Context, timeout time.Duration) error {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-sigCtx.Done()
	slog.Info("shutting down", slog.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	return m.Shutdown(shutdownCtx)
}

var std = NewManager()

// Register adds a named hook to the process-wide Manager.
func Register(name string, h Handler) {
	std.Register(name, h)
}

// Shutdown runs the hooks of the process-wide Manager.
func Shutdown(ctx context.Context) error {
	return std.Shutdown(ctx)
}

// WaitForSignal waits on the process-wide Manager with DefaultTimeout.
func WaitForSignal(ctx context.Context) error {
	return std.WaitForSignal(ctx, DefaultTimeout)
}

// WaitForSignalWithTimeout waits on the process-wide Manager with timeout.
func WaitForSignalWithTimeout(ctx context.Context, timeout time.Duration) error {
	return std.WaitForSignal(ctx, timeout)
}

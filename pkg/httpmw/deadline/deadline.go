// Package deadline bounds how long an HTTP request may run.
package deadline

import (
	"context"
	"errors"
	"net/http"
	"time"
)

var (
	// ErrDefaultTimeout is returned when DefaultTimeout is not positive.
	ErrDefaultTimeout = errors.New("deadline: DefaultTimeout must be positive")

	// ErrMaxTimeout is returned when a set MaxTimeout is below DefaultTimeout.
	ErrMaxTimeout = errors.New("deadline: MaxTimeout must be >= DefaultTimeout when set")
)

// Config holds configuration for the deadline middleware.
type Config struct {
	// DefaultTimeout is applied when the incoming context has no deadline.
	// Must be positive (> 0).
	DefaultTimeout time.Duration `koanf:"default_timeout"`

	// MaxTimeout caps existing deadlines to min(existingDeadline, MaxTimeout).
	// Zero means no cap is applied (only DefaultTimeout is used).
	// If positive, must be >= DefaultTimeout.
	MaxTimeout time.Duration `koanf:"max_timeout"`
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout: 30 * time.Second,
		MaxTimeout:     300 * time.Second,
	}
}

// Validate reports an unusable configuration.
func (c Config) Validate() error {
	if c.DefaultTimeout <= 0 {
		return ErrDefaultTimeout
	}
	if c.MaxTimeout > 0 && c.MaxTimeout < c.DefaultTimeout {
		return ErrMaxTimeout
	}
	return nil
}

// New returns middleware that attaches a deadline to each request context.
// The key set fetch and database calls made by handlers observe it.
// Panics if cfg does not pass Validate.
func New(cfg Config) func(http.Handler) http.Handler {
	if err := cfg.Validate(); err != nil {
		panic(err.Error())
	}
	d := &deadliner{defaultTimeout: cfg.DefaultTimeout, maxTimeout: cfg.MaxTimeout}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := d.apply(r.Context())
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type deadliner struct {
	defaultTimeout time.Duration
	maxTimeout     time.Duration
}

// apply returns a context with an appropriate deadline and a cancel function.
func (d *deadliner) apply(ctx context.Context) (context.Context, context.CancelFunc) {
	deadline, hasDeadline := ctx.Deadline()
	if !hasDeadline {
		return context.WithTimeout(ctx, d.defaultTimeout)
	}

	if d.maxTimeout == 0 {
		return ctx, func() {}
	}

	maxDeadline := time.Now().Add(d.maxTimeout)
	if deadline.After(maxDeadline) {
		return context.WithDeadline(ctx, maxDeadline)
	}

	return ctx, func() {}
}

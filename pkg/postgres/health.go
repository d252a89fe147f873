package postgres

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the subset of *pgxpool.Pool used by HealthChecker.
type querier interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// HealthChecker reports whether the drink database is usable.
// Implements grpchealth.HealthChecker.
type HealthChecker struct {
	db    querier
	probe string
}

// HealthOption configures a HealthChecker.
type HealthOption func(*HealthChecker)

// WithProbeQuery runs sql after a successful ping, e.g. to confirm that the
// drinks table exists.
func WithProbeQuery(sql string) HealthOption {
	return func(c *HealthChecker) {
		c.probe = sql
	}
}

// NewHealthChecker creates a health checker for pool.
func NewHealthChecker(pool *pgxpool.Pool, opts ...HealthOption) *HealthChecker {
	return newHealthChecker(pool, opts...)
}

func newHealthChecker(db querier, opts ...HealthOption) *HealthChecker {
	c := &HealthChecker{db: db}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Check returns true if the database answers the ping and the probe query.
func (c *HealthChecker) Check(ctx context.Context) bool {
	if err := c.db.Ping(ctx); err != nil {
		slog.DebugContext(ctx, "postgres ping failed", slog.String("error", err.Error()))
		return false
	}
	if c.probe == "" {
		return true
	}
	if _, err := c.db.Exec(ctx, c.probe); err != nil {
		slog.DebugContext(ctx, "postgres probe failed", slog.String("error", err.Error()))
		return false
	}
	return true
}

package postgres

import "errors"

var (
	// ErrDSNRequired is returned when DSN is empty in Config.
	ErrDSNRequired = errors.New("dsn is required")

	// ErrPoolBounds is returned when MinConns exceeds MaxConns.
	ErrPoolBounds = errors.New("min conns exceeds max conns")
)

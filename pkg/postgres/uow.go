package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Transaction is the handle a unit of work runs its statements on.
// Row locks taken with SELECT ... FOR UPDATE are held until Execute returns.
type Transaction interface {
	Tx() pgx.Tx
}

// UnitOfWork runs a read-modify-write sequence, such as patching a drink,
// so that either every statement in fn commits or none does.
type UnitOfWork interface {
	Execute(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// PgUnitOfWork begins every unit on pool with the same transaction options.
type PgUnitOfWork struct {
	pool *pgxpool.Pool
	opts pgx.TxOptions
}

// NewUnitOfWork creates a UnitOfWork that begins transactions with opts.
// The zero pgx.TxOptions uses the server default isolation level.
func NewUnitOfWork(pool *pgxpool.Pool, opts pgx.TxOptions) *PgUnitOfWork {
	return &PgUnitOfWork{pool: pool, opts: opts}
}

// Options returns the options each transaction is started with.
func (u *PgUnitOfWork) Options() pgx.TxOptions {
	return u.opts
}

// Execute runs fn in a new transaction. A returned error or a panic rolls it back.
func (u *PgUnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error {
	return WithTxOptions(ctx, u.pool, u.opts, func(tx pgx.Tx) error {
		return fn(ctx, txHandle{tx: tx})
	})
}

type txHandle struct {
	tx pgx.Tx
}

func (h txHandle) Tx() pgx.Tx { return h.tx }

var (
	_ UnitOfWork  = (*PgUnitOfWork)(nil)
	_ Transaction = txHandle{}
)

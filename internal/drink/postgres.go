package drink

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/deepworx/coffeeshop/pkg/postgres"
)

const uniqueViolation = "23505"

// migrationLock serializes Migrate across replicas starting together.
const migrationLock int64 = 0x636f66666565

const schema = `
CREATE TABLE IF NOT EXISTS drinks (
	id     BIGSERIAL PRIMARY KEY,
	title  TEXT      NOT NULL UNIQUE,
	recipe JSONB     NOT NULL
)`

// PostgresStore stores drinks in a PostgreSQL table. Recipes are kept as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
	uow  postgres.UnitOfWork
}

// NewPostgresStore creates a store backed by pool. Updates run at read
// committed; the row being patched is locked before it is read.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{
		pool: pool,
		uow:  postgres.NewUnitOfWork(pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}),
	}
}

// Migrate creates the drinks table if it does not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	err := postgres.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, migrationLock); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("migrate drinks: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Drink, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, recipe FROM drinks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	drinks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Drink, error) {
		return scanDrink(row)
	})
	if err != nil {
		return nil, fmt.Errorf("list drinks: %w", err)
	}
	return drinks, nil
}

func (s *PostgresStore) Get(ctx context.Context, id int64) (Drink, error) {
	row := s.pool.QueryRow(ctx, `SELECT id, title, recipe FROM drinks WHERE id = $1`, id)
	d, err := scanDrink(row)
	if err != nil {
		return Drink{}, mapError("get drink", err)
	}
	return d, nil
}

func (s *PostgresStore) Create(ctx context.Context, d Drink) (Drink, error) {
	if err := d.Validate(); err != nil {
		return Drink{}, err
	}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO drinks (title, recipe) VALUES ($1, $2) RETURNING id`,
		d.Title, d.Recipe,
	).Scan(&d.ID)
	if err != nil {
		return Drink{}, mapError("create drink", err)
	}
	return d, nil
}

func (s *PostgresStore) Update(ctx context.Context, id int64, p Patch) (Drink, error) {
	var updated Drink
	err := s.uow.Execute(ctx, func(ctx context.Context, tx postgres.Transaction) error {
		row := tx.Tx().QueryRow(ctx,
			`SELECT id, title, recipe FROM drinks WHERE id = $1 FOR UPDATE`, id)
		current, err := scanDrink(row)
		if err != nil {
			return err
		}

		updated = p.Apply(current)
		if err := updated.Validate(); err != nil {
			return err
		}

		_, err = tx.Tx().Exec(ctx,
			`UPDATE drinks SET title = $2, recipe = $3 WHERE id = $1`,
			id, updated.Title, updated.Recipe,
		)
		return err
	})
	if err != nil {
		return Drink{}, mapError("update drink", err)
	}
	return updated, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM drinks WHERE id = $1`, id)
	if err != nil {
		return mapError("delete drink", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDrink(row scanner) (Drink, error) {
	var d Drink
	if err := row.Scan(&d.ID, &d.Title, &d.Recipe); err != nil {
		return Drink{}, err
	}
	return d, nil
}

// mapError translates driver errors into package sentinels.
func mapError(op string, err error) error {
	if errors.Is(err, ErrInvalid) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, ErrDuplicateTitle)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var _ Store = (*PostgresStore)(nil)

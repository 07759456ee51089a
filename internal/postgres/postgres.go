// Package postgres implements the storage layer on top of pgx. Money columns
// are NUMERIC mapped to shopspring/decimal; all counters (stock, promotion
// usage) move only through conditional UPDATEs so concurrent writers
// serialize on the row instead of racing a read-modify-write.
package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/order"
)

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Store implements order.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore returns a Store that uses the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var _ order.Store = (*Store)(nil)

// InTx runs fn inside one database transaction. Serialization and deadlock
// failures surface as order.ErrConflict so callers can retry the request.
func (s *Store) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&storeTx{tx: tx}); err != nil {
		return mapConflict(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return mapConflict(errors.Wrap(err, "commit tx"))
	}
	return nil
}

// OrderByID reads one order outside any transaction.
func (s *Store) OrderByID(ctx context.Context, id string) (*order.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx, orderSelect+` WHERE id = $1`, id))
}

// ListByOwner returns all orders placed by one owner, newest first.
func (s *Store) ListByOwner(ctx context.Context, owner string) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, orderSelect+` WHERE owner = $1 ORDER BY created_at DESC`, owner)
	if err != nil {
		return nil, fmt.Errorf("listing orders for %q: %w", owner, err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// mapConflict converts serialization and deadlock SQLSTATEs into
// order.ErrConflict, leaving other errors untouched.
func mapConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return order.ErrConflict
		}
	}
	return err
}

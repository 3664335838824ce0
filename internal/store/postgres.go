package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const lockNotAvailableCode = "55P03"

// PgxManager executes atomic units as PostgreSQL transactions.
type PgxManager struct {
	db          *pgxpool.Pool
	lockTimeout time.Duration
}

// NewPgxManager builds a unit manager over the provided pool. lockTimeout
// bounds how long a unit may wait on a row lock; zero disables the bound.
func NewPgxManager(db *pgxpool.Pool, lockTimeout time.Duration) *PgxManager {
	return &PgxManager{db: db, lockTimeout: lockTimeout}
}

// Run opens a transaction, invokes fn with a unit scoped to it, and commits
// on success. Any error from fn rolls the whole transaction back.
func (m *PgxManager) Run(ctx context.Context, fn func(ctx context.Context, u Unit) error) error {
	tx, err := m.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin unit: %w", err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	if m.lockTimeout > 0 {
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", m.lockTimeout.Milliseconds())
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("set lock timeout: %w", err)
		}
	}

	if err := fn(ctx, &pgxUnit{tx: tx}); err != nil {
		if isLockNotAvailable(err) {
			return fmt.Errorf("%w: %v", ErrLockTimeout, err)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit unit: %w", err)
	}
	return nil
}

type pgxUnit struct {
	tx pgx.Tx
}

func (*pgxUnit) unit() {}

// Tx extracts the transaction backing a Postgres unit. Store implementations
// use it to scope their statements to the enclosing unit.
func Tx(u Unit) (pgx.Tx, error) {
	pu, ok := u.(*pgxUnit)
	if !ok || pu.tx == nil {
		return nil, ErrNoUnit
	}
	return pu.tx, nil
}

func isLockNotAvailable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == lockNotAvailableCode
}

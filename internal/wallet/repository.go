package wallet

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/store"
)

// ErrNotFound indicates no wallet exists for the requested account or wallet id.
var ErrNotFound = errors.New("wallet not found")

// Repository persists wallet rows.
//
// GetByAccount is an unlocked read of the latest committed snapshot.
// GetByAccountForUpdate additionally takes an exclusive row lock held until
// the unit ends. AdjustBalance atomically adds a signed delta; callers that
// race on decrements must hold the row lock in the same unit first.
type Repository interface {
	Create(ctx context.Context, w Wallet, u store.Unit) error
	GetByAccount(ctx context.Context, accountID string) (Wallet, error)
	GetByAccountForUpdate(ctx context.Context, accountID string, u store.Unit) (Wallet, error)
	AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal, u store.Unit) error
}

// PostgresRepository stores wallets in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a wallet record within the enclosing unit.
func (r *PostgresRepository) Create(ctx context.Context, w Wallet, u store.Unit) error {
	tx, err := store.Tx(u)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(w.ID)
	if err != nil {
		return err
	}
	accountID, err := uuid.Parse(w.AccountID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO wallets (id, account_id, balance, currency, created_at)
        VALUES ($1, $2, $3, $4, $5)`, walletID, accountID, w.Balance, w.Currency, w.CreatedAt.UTC())
	return err
}

const walletColumns = `id, account_id, balance, currency, created_at`

// GetByAccount fetches the wallet owned by accountID without locking.
func (r *PostgresRepository) GetByAccount(ctx context.Context, accountID string) (Wallet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE account_id = $1`, accountID)
	return scanWallet(row)
}

// GetByAccountForUpdate fetches the wallet and takes an exclusive row lock
// scoped to the unit.
func (r *PostgresRepository) GetByAccountForUpdate(ctx context.Context, accountID string, u store.Unit) (Wallet, error) {
	tx, err := store.Tx(u)
	if err != nil {
		return Wallet{}, err
	}
	row := tx.QueryRow(ctx, `SELECT `+walletColumns+` FROM wallets WHERE account_id = $1 FOR UPDATE`, accountID)
	return scanWallet(row)
}

// AdjustBalance atomically adds delta to the wallet balance within the unit.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, walletID string, delta decimal.Decimal, u store.Unit) error {
	tx, err := store.Tx(u)
	if err != nil {
		return err
	}
	cmd, err := tx.Exec(ctx, `UPDATE wallets SET balance = balance + $2 WHERE id = $1`, walletID, delta)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanWallet(row pgx.Row) (Wallet, error) {
	var (
		w         Wallet
		id        uuid.UUID
		accountID uuid.UUID
		createdAt time.Time
	)
	if err := row.Scan(&id, &accountID, &w.Balance, &w.Currency, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Wallet{}, ErrNotFound
		}
		return Wallet{}, err
	}
	w.ID = id.String()
	w.AccountID = accountID.String()
	w.CreatedAt = createdAt.UTC()
	return w, nil
}

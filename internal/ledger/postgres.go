package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/naira-pay/naira_pay/internal/store"
)

// PostgresStore persists ledger rows in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// AppendEntry inserts one entry within the enclosing unit.
func (s *PostgresStore) AppendEntry(ctx context.Context, e Entry, u store.Unit) error {
	tx, err := store.Tx(u)
	if err != nil {
		return err
	}
	entryID, err := uuid.Parse(e.ID)
	if err != nil {
		return err
	}
	walletID, err := uuid.Parse(e.WalletID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO ledger_entries (id, wallet_id, kind, amount, reference, status, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		entryID, walletID, string(e.Kind), e.Amount, e.Reference, string(e.Status), e.CreatedAt.UTC())
	return err
}

// AppendTransferRecord inserts the pairing record for a transfer within the unit.
func (s *PostgresStore) AppendTransferRecord(ctx context.Context, r TransferRecord, u store.Unit) error {
	tx, err := store.Tx(u)
	if err != nil {
		return err
	}
	recordID, err := uuid.Parse(r.ID)
	if err != nil {
		return err
	}
	senderID, err := uuid.Parse(r.SenderWalletID)
	if err != nil {
		return err
	}
	receiverID, err := uuid.Parse(r.ReceiverWalletID)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `INSERT INTO transfers (id, sender_wallet_id, receiver_wallet_id, amount, created_at)
        VALUES ($1, $2, $3, $4, $5)`, recordID, senderID, receiverID, r.Amount, r.CreatedAt.UTC())
	return err
}

// ListByWallet returns the wallet's entries ordered most recent first.
func (s *PostgresStore) ListByWallet(ctx context.Context, walletID string) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `SELECT id, wallet_id, kind, amount, reference, status, created_at
        FROM ledger_entries WHERE wallet_id = $1 ORDER BY created_at DESC, id DESC`, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			id        uuid.UUID
			wID       uuid.UUID
			kind      string
			status    string
			createdAt time.Time
		)
		if err := rows.Scan(&id, &wID, &kind, &e.Amount, &e.Reference, &status, &createdAt); err != nil {
			return nil, err
		}
		e.ID = id.String()
		e.WalletID = wID.String()
		e.Kind = EntryKind(kind)
		e.Status = EntryStatus(status)
		e.CreatedAt = createdAt.UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

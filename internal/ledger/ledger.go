package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/store"
)

// EntryKind classifies a ledger entry by the operation that produced it.
type EntryKind string

const (
	// KindFund marks a wallet top-up credit.
	KindFund EntryKind = "FUND"
	// KindWithdraw marks a withdrawal debit.
	KindWithdraw EntryKind = "WITHDRAW"
	// KindTransferDebit marks the sender side of a transfer.
	KindTransferDebit EntryKind = "TRANSFER_DEBIT"
	// KindTransferCredit marks the receiver side of a transfer.
	KindTransferCredit EntryKind = "TRANSFER_CREDIT"
)

// EntryStatus tracks the settlement state of an entry.
type EntryStatus string

const (
	StatusPending EntryStatus = "PENDING"
	StatusSuccess EntryStatus = "SUCCESS"
	StatusFailed  EntryStatus = "FAILED"
)

// Entry is the immutable record of a single signed balance movement. For any
// wallet, the sum of its SUCCESS entry amounts equals the wallet balance; the
// ledger is the source of truth and the balance column a cache of it.
type Entry struct {
	ID        string
	WalletID  string
	Kind      EntryKind
	Amount    decimal.Decimal
	Reference string
	Status    EntryStatus
	CreatedAt time.Time
}

// TransferRecord pairs the two entries of a wallet-to-wallet transfer. The
// amount is always positive; the paired debit and credit entries sum to zero.
type TransferRecord struct {
	ID               string
	SenderWalletID   string
	ReceiverWalletID string
	Amount           decimal.Decimal
	CreatedAt        time.Time
}

// Store persists ledger entries and transfer-pairing records. Appends are
// scoped to the enclosing atomic unit; ListByWallet is an unlocked read
// ordered by creation time, most recent first.
type Store interface {
	AppendEntry(ctx context.Context, e Entry, u store.Unit) error
	AppendTransferRecord(ctx context.Context, r TransferRecord, u store.Unit) error
	ListByWallet(ctx context.Context, walletID string) ([]Entry, error)
}

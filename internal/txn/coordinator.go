package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/ledger"
	"github.com/naira-pay/naira_pay/internal/notification"
	"github.com/naira-pay/naira_pay/internal/store"
	"github.com/naira-pay/naira_pay/internal/wallet"
)

// Resolver maps a receiver reference (an email address) to the owning
// account identifier.
type Resolver interface {
	ResolveEmail(ctx context.Context, email string) (string, error)
}

// Coordinator orchestrates fund, withdraw and transfer as atomic units over
// the wallet and ledger stores. It owns the locking discipline: single-wallet
// debits hold the wallet's row lock for the whole unit, and multi-wallet
// operations acquire locks in ascending account-id order regardless of
// sender/receiver role, so opposing transfers cannot deadlock.
type Coordinator struct {
	units    store.Manager
	wallets  wallet.Repository
	entries  ledger.Store
	resolver Resolver
	notifier notification.Notifier
	logger   *slog.Logger
}

// NewCoordinator wires the coordinator's dependencies. notifier may be nil.
func NewCoordinator(units store.Manager, wallets wallet.Repository, entries ledger.Store, resolver Resolver, notifier notification.Notifier, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		units:    units,
		wallets:  wallets,
		entries:  entries,
		resolver: resolver,
		notifier: notifier,
		logger:   logger,
	}
}

// FundResult reports a completed wallet top-up.
type FundResult struct {
	Amount    decimal.Decimal
	Reference string
}

// TransferResult reports a completed wallet-to-wallet transfer.
type TransferResult struct {
	TransferID string
	Amount     decimal.Decimal
}

// Fund credits amount to the caller's wallet and appends one FUND entry.
// The wallet row is read without a lock: a pure increment is commutative, so
// concurrent funds cannot corrupt the balance.
func (c *Coordinator) Fund(ctx context.Context, accountID string, amount decimal.Decimal) (FundResult, error) {
	if !amount.IsPositive() {
		return FundResult{}, ErrInvalidAmount
	}

	var res FundResult
	err := c.units.Run(ctx, func(ctx context.Context, u store.Unit) error {
		w, err := c.wallets.GetByAccount(ctx, accountID)
		if err != nil {
			return mapWalletErr(err)
		}
		if err := c.wallets.AdjustBalance(ctx, w.ID, amount, u); err != nil {
			return err
		}
		entry := ledger.Entry{
			ID:        uuid.NewString(),
			WalletID:  w.ID,
			Kind:      ledger.KindFund,
			Amount:    amount,
			Reference: newReference("FND"),
			Status:    ledger.StatusSuccess,
			CreatedAt: time.Now().UTC(),
		}
		if err := c.entries.AppendEntry(ctx, entry, u); err != nil {
			return err
		}
		res = FundResult{Amount: amount, Reference: entry.Reference}
		return nil
	})
	if err != nil {
		return FundResult{}, c.classify(err, "fund")
	}
	return res, nil
}

// Withdraw debits amount from the caller's wallet and appends one WITHDRAW
// entry with a negative amount. The wallet row lock is held for the whole
// unit so the balance check and the decrement cannot interleave with another
// debit; the balance never goes negative.
func (c *Coordinator) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrInvalidAmount
	}

	err := c.units.Run(ctx, func(ctx context.Context, u store.Unit) error {
		w, err := c.wallets.GetByAccountForUpdate(ctx, accountID, u)
		if err != nil {
			return mapWalletErr(err)
		}
		if w.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if err := c.wallets.AdjustBalance(ctx, w.ID, amount.Neg(), u); err != nil {
			return err
		}
		entry := ledger.Entry{
			ID:        uuid.NewString(),
			WalletID:  w.ID,
			Kind:      ledger.KindWithdraw,
			Amount:    amount.Neg(),
			Reference: newReference("WDR"),
			Status:    ledger.StatusSuccess,
			CreatedAt: time.Now().UTC(),
		}
		return c.entries.AppendEntry(ctx, entry, u)
	})
	if err != nil {
		return c.classify(err, "withdraw")
	}
	return nil
}

// Transfer moves amount from the sender's wallet to the wallet of the account
// the receiver email resolves to. Both wallet rows are locked in ascending
// account-id order before either balance moves; the unit writes one transfer
// record and a debit/credit entry pair summing to zero.
func (c *Coordinator) Transfer(ctx context.Context, senderAccountID, receiverEmail string, amount decimal.Decimal) (TransferResult, error) {
	if !amount.IsPositive() {
		return TransferResult{}, ErrInvalidAmount
	}

	receiverAccountID, err := c.resolver.ResolveEmail(ctx, receiverEmail)
	if err != nil {
		return TransferResult{}, fmt.Errorf("%w: %s", ErrReceiverNotFound, receiverEmail)
	}
	if receiverAccountID == senderAccountID {
		return TransferResult{}, ErrSelfTransfer
	}

	var (
		res      TransferResult
		receiver wallet.Wallet
	)
	err = c.units.Run(ctx, func(ctx context.Context, u store.Unit) error {
		// Canonical lock order: ascending account id, never sender-first.
		first, second := senderAccountID, receiverAccountID
		if second < first {
			first, second = second, first
		}
		firstWallet, err := c.wallets.GetByAccountForUpdate(ctx, first, u)
		if err != nil {
			return mapWalletErr(err)
		}
		secondWallet, err := c.wallets.GetByAccountForUpdate(ctx, second, u)
		if err != nil {
			return mapWalletErr(err)
		}

		sender := firstWallet
		receiver = secondWallet
		if first != senderAccountID {
			sender, receiver = secondWallet, firstWallet
		}

		if sender.ID == receiver.ID {
			return ErrSelfTransfer
		}
		if sender.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if err := c.wallets.AdjustBalance(ctx, sender.ID, amount.Neg(), u); err != nil {
			return err
		}
		if err := c.wallets.AdjustBalance(ctx, receiver.ID, amount, u); err != nil {
			return err
		}

		now := time.Now().UTC()
		record := ledger.TransferRecord{
			ID:               uuid.NewString(),
			SenderWalletID:   sender.ID,
			ReceiverWalletID: receiver.ID,
			Amount:           amount,
			CreatedAt:        now,
		}
		if err := c.entries.AppendTransferRecord(ctx, record, u); err != nil {
			return err
		}

		debit := ledger.Entry{
			ID:        uuid.NewString(),
			WalletID:  sender.ID,
			Kind:      ledger.KindTransferDebit,
			Amount:    amount.Neg(),
			Reference: newReference("TRF-D"),
			Status:    ledger.StatusSuccess,
			CreatedAt: now,
		}
		if err := c.entries.AppendEntry(ctx, debit, u); err != nil {
			return err
		}
		credit := ledger.Entry{
			ID:        uuid.NewString(),
			WalletID:  receiver.ID,
			Kind:      ledger.KindTransferCredit,
			Amount:    amount,
			Reference: newReference("TRF-C"),
			Status:    ledger.StatusSuccess,
			CreatedAt: now,
		}
		if err := c.entries.AppendEntry(ctx, credit, u); err != nil {
			return err
		}

		res = TransferResult{TransferID: record.ID, Amount: amount}
		return nil
	})
	if err != nil {
		return TransferResult{}, c.classify(err, "transfer")
	}

	if c.notifier != nil {
		_ = c.notifier.Send(ctx, notification.Message{
			Kind:        notification.KindTransferReceived,
			Destination: receiver.AccountID,
			Body:        fmt.Sprintf("You received %s %s", amount.String(), receiver.Currency),
		})
	}
	return res, nil
}

// Balance returns the wallet's committed balance and currency. Pure read.
func (c *Coordinator) Balance(ctx context.Context, accountID string) (wallet.Balance, error) {
	w, err := c.wallets.GetByAccount(ctx, accountID)
	if err != nil {
		return wallet.Balance{}, c.classify(mapWalletErr(err), "balance")
	}
	return wallet.Balance{
		WalletID: w.ID,
		Amount:   w.Balance,
		Currency: w.Currency,
		AsOf:     time.Now().UTC(),
	}, nil
}

// History returns the wallet's ledger entries, most recent first. Pure read;
// entries are append-only so no locking is needed.
func (c *Coordinator) History(ctx context.Context, accountID string) ([]ledger.Entry, error) {
	w, err := c.wallets.GetByAccount(ctx, accountID)
	if err != nil {
		return nil, c.classify(mapWalletErr(err), "history")
	}
	entries, err := c.entries.ListByWallet(ctx, w.ID)
	if err != nil {
		return nil, c.classify(err, "history")
	}
	return entries, nil
}

// newReference builds a globally unique entry reference. UUIDs rather than
// wall-clock time: two operations in the same clock tick must not collide.
func newReference(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func mapWalletErr(err error) error {
	if errors.Is(err, wallet.ErrNotFound) {
		return ErrWalletNotFound
	}
	return err
}

// classify passes business-rule and contention errors through with their
// specific kind and demotes everything else to a generic store failure after
// logging the full cause.
func (c *Coordinator) classify(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrWalletNotFound),
		errors.Is(err, ErrReceiverNotFound),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrSelfTransfer),
		errors.Is(err, store.ErrLockTimeout):
		return err
	default:
		if c.logger != nil {
			c.logger.Error("transaction unit failed", "op", op, "error", err)
		}
		return fmt.Errorf("%w: %s", ErrStoreFailure, op)
	}
}

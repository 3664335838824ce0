package txn

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/naira-pay/naira_pay/internal/ledger"
	"github.com/naira-pay/naira_pay/internal/logging"
	"github.com/naira-pay/naira_pay/internal/store"
	"github.com/naira-pay/naira_pay/internal/wallet"
)

type stubResolver map[string]string

func (r stubResolver) ResolveEmail(_ context.Context, email string) (string, error) {
	id, ok := r[email]
	if !ok {
		return "", errors.New("user not found")
	}
	return id, nil
}

type testEngine struct {
	units    store.Manager
	wallets  wallet.Repository
	entries  ledger.Store
	resolver stubResolver
	c        *Coordinator
}

func newTestEngine() *testEngine {
	e := &testEngine{
		units:    store.NewMemoryManager(5 * time.Second),
		wallets:  wallet.NewMemoryRepository(),
		entries:  ledger.NewInMemory(),
		resolver: stubResolver{},
	}
	e.c = NewCoordinator(e.units, e.wallets, e.entries, e.resolver, nil, logging.Discard())
	return e
}

// addAccount provisions an empty wallet and maps email to the new account.
func (e *testEngine) addAccount(t *testing.T, email string) string {
	t.Helper()
	accountID := uuid.NewString()
	err := e.units.Run(context.Background(), func(ctx context.Context, u store.Unit) error {
		return e.wallets.Create(ctx, wallet.Wallet{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Balance:   decimal.Zero,
			Currency:  "NGN",
			CreatedAt: time.Now().UTC(),
		}, u)
	})
	require.NoError(t, err)
	e.resolver[email] = accountID
	return accountID
}

func (e *testEngine) balance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	b, err := e.c.Balance(context.Background(), accountID)
	require.NoError(t, err)
	return b.Amount
}

// ledgerSum checks the core invariant: the wallet balance must equal the sum
// of its SUCCESS ledger entries after every commit.
func (e *testEngine) ledgerSum(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	w, err := e.wallets.GetByAccount(context.Background(), accountID)
	require.NoError(t, err)
	entries, err := e.entries.ListByWallet(context.Background(), w.ID)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, entry := range entries {
		if entry.Status == ledger.StatusSuccess {
			sum = sum.Add(entry.Amount)
		}
	}
	return sum
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestFundCreatesEntryAndBalance(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "a@example.com")

	res, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(dec("100")))
	require.NotEmpty(t, res.Reference)

	require.True(t, e.balance(t, account).Equal(dec("100")))

	entries, err := e.c.History(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ledger.KindFund, entries[0].Kind)
	require.True(t, entries[0].Amount.Equal(dec("100")))
	require.Equal(t, ledger.StatusSuccess, entries[0].Status)

	require.True(t, e.ledgerSum(t, account).Equal(e.balance(t, account)))
}

func TestFundRejectsNonPositiveAmount(t *testing.T) {
	e := newTestEngine()
	account := e.addAccount(t, "a@example.com")

	for _, amount := range []decimal.Decimal{decimal.Zero, dec("-5")} {
		_, err := e.c.Fund(context.Background(), account, amount)
		require.ErrorIs(t, err, ErrInvalidAmount)
	}
	require.True(t, e.balance(t, account).IsZero())
}

func TestFundUnknownWallet(t *testing.T) {
	e := newTestEngine()
	_, err := e.c.Fund(context.Background(), uuid.NewString(), dec("10"))
	require.ErrorIs(t, err, ErrWalletNotFound)
}

func TestWithdrawSuccess(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "a@example.com")
	_, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)

	require.NoError(t, e.c.Withdraw(ctx, account, dec("40")))
	require.True(t, e.balance(t, account).Equal(dec("60")))

	entries, err := e.c.History(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	// Most recent first.
	require.Equal(t, ledger.KindWithdraw, entries[0].Kind)
	require.True(t, entries[0].Amount.Equal(dec("-40")))

	require.True(t, e.ledgerSum(t, account).Equal(dec("60")))
}

func TestWithdrawInsufficientFundsLeavesNoTrace(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "a@example.com")
	_, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)

	err = e.c.Withdraw(ctx, account, dec("150"))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	require.True(t, e.balance(t, account).Equal(dec("100")))
	entries, err := e.c.History(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 1) // only the fund entry
}

func TestTransferMovesBothBalances(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	sender := e.addAccount(t, "sender@example.com")
	receiver := e.addAccount(t, "receiver@example.com")
	_, err := e.c.Fund(ctx, sender, dec("50"))
	require.NoError(t, err)

	res, err := e.c.Transfer(ctx, sender, "receiver@example.com", dec("50"))
	require.NoError(t, err)
	require.True(t, res.Amount.Equal(dec("50")))
	require.NotEmpty(t, res.TransferID)

	require.True(t, e.balance(t, sender).IsZero())
	require.True(t, e.balance(t, receiver).Equal(dec("50")))

	records := ledger.TransferRecords(e.entries)
	require.Len(t, records, 1)
	require.True(t, records[0].Amount.Equal(dec("50")))

	senderEntries, err := e.c.History(ctx, sender)
	require.NoError(t, err)
	receiverEntries, err := e.c.History(ctx, receiver)
	require.NoError(t, err)
	require.Equal(t, ledger.KindTransferDebit, senderEntries[0].Kind)
	require.Equal(t, ledger.KindTransferCredit, receiverEntries[0].Kind)
	// Debit and credit sum to zero.
	require.True(t, senderEntries[0].Amount.Add(receiverEntries[0].Amount).IsZero())

	require.True(t, e.ledgerSum(t, sender).Equal(e.balance(t, sender)))
	require.True(t, e.ledgerSum(t, receiver).Equal(e.balance(t, receiver)))
}

func TestTransferSelfDenied(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "self@example.com")
	_, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)

	_, err = e.c.Transfer(ctx, account, "self@example.com", dec("1"))
	require.ErrorIs(t, err, ErrSelfTransfer)
	require.True(t, e.balance(t, account).Equal(dec("100")))
}

func TestTransferReceiverNotFound(t *testing.T) {
	e := newTestEngine()
	sender := e.addAccount(t, "sender@example.com")

	_, err := e.c.Transfer(context.Background(), sender, "ghost@example.com", dec("1"))
	require.ErrorIs(t, err, ErrReceiverNotFound)
}

func TestTransferInsufficientFunds(t *testing.T) {
	e := newTestEngine()
	sender := e.addAccount(t, "sender@example.com")
	e.addAccount(t, "receiver@example.com")

	_, err := e.c.Transfer(context.Background(), sender, "receiver@example.com", dec("10"))
	require.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "a@example.com")
	_, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)

	const attempts = 20
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- e.c.Withdraw(ctx, account, dec("10"))
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrInsufficientFunds):
			insufficient++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	require.Equal(t, 10, succeeded)
	require.Equal(t, 10, insufficient)
	require.True(t, e.balance(t, account).IsZero())
	require.True(t, e.ledgerSum(t, account).IsZero())
}

func TestOpposingTransfersDoNotDeadlock(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	a := e.addAccount(t, "a@example.com")
	b := e.addAccount(t, "b@example.com")
	_, err := e.c.Fund(ctx, a, dec("100"))
	require.NoError(t, err)
	_, err = e.c.Fund(ctx, b, dec("100"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := e.c.Transfer(ctx, a, "b@example.com", dec("10"))
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := e.c.Transfer(ctx, b, "a@example.com", dec("5"))
		errs <- err
	}()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	// Total system balance is conserved.
	require.True(t, e.balance(t, a).Equal(dec("95")))
	require.True(t, e.balance(t, b).Equal(dec("105")))
	require.True(t, e.ledgerSum(t, a).Equal(dec("95")))
	require.True(t, e.ledgerSum(t, b).Equal(dec("105")))
}

func TestHistoryMostRecentFirst(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	account := e.addAccount(t, "a@example.com")
	_, err := e.c.Fund(ctx, account, dec("100"))
	require.NoError(t, err)
	require.NoError(t, e.c.Withdraw(ctx, account, dec("30")))
	_, err = e.c.Fund(ctx, account, dec("20"))
	require.NoError(t, err)

	entries, err := e.c.History(ctx, account)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, ledger.KindFund, entries[0].Kind)
	require.True(t, entries[0].Amount.Equal(dec("20")))
	require.Equal(t, ledger.KindWithdraw, entries[1].Kind)
	require.Equal(t, ledger.KindFund, entries[2].Kind)
}

func TestHistoryUnknownWallet(t *testing.T) {
	e := newTestEngine()
	_, err := e.c.History(context.Background(), uuid.NewString())
	require.ErrorIs(t, err, ErrWalletNotFound)
}

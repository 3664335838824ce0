package wallet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/store"
)

func createWallet(t *testing.T, mgr store.Manager, repo Repository, accountID string) Wallet {
	t.Helper()
	w := Wallet{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Balance:   decimal.Zero,
		Currency:  "NGN",
		CreatedAt: time.Now().UTC(),
	}
	err := mgr.Run(context.Background(), func(ctx context.Context, u store.Unit) error {
		return repo.Create(ctx, w, u)
	})
	if err != nil {
		t.Fatalf("create wallet: %v", err)
	}
	return w
}

func TestMemoryRepositoryCreateAndGet(t *testing.T) {
	mgr := store.NewMemoryManager(time.Second)
	repo := NewMemoryRepository()
	accountID := uuid.NewString()
	created := createWallet(t, mgr, repo, accountID)

	got, err := repo.GetByAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != created.ID {
		t.Fatalf("expected wallet %s, got %s", created.ID, got.ID)
	}

	if _, err := repo.GetByAccount(context.Background(), uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	SeedBalance(repo, accountID, decimal.NewFromInt(250))
	got, err = repo.GetByAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get after seed: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected seeded balance 250, got %s", got.Balance)
	}
}

func TestMemoryRepositoryAdjustBalanceRollsBack(t *testing.T) {
	mgr := store.NewMemoryManager(time.Second)
	repo := NewMemoryRepository()
	accountID := uuid.NewString()
	w := createWallet(t, mgr, repo, accountID)

	boom := errors.New("boom")
	err := mgr.Run(context.Background(), func(ctx context.Context, u store.Unit) error {
		if err := repo.AdjustBalance(ctx, w.ID, decimal.NewFromInt(100), u); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	got, err := repo.GetByAccount(context.Background(), accountID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.Balance.IsZero() {
		t.Fatalf("expected balance rolled back to zero, got %s", got.Balance)
	}
}

func TestMemoryRepositoryGetForUpdateSerializes(t *testing.T) {
	mgr := store.NewMemoryManager(50 * time.Millisecond)
	repo := NewMemoryRepository()
	accountID := uuid.NewString()
	createWallet(t, mgr, repo, accountID)

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = mgr.Run(context.Background(), func(ctx context.Context, u store.Unit) error {
			if _, err := repo.GetByAccountForUpdate(ctx, accountID, u); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := mgr.Run(context.Background(), func(ctx context.Context, u store.Unit) error {
		_, err := repo.GetByAccountForUpdate(ctx, accountID, u)
		return err
	})
	if !errors.Is(err, store.ErrLockTimeout) {
		t.Fatalf("expected lock timeout while row held, got %v", err)
	}
}

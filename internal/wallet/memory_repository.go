package wallet

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/naira-pay/naira_pay/internal/store"
)

type memoryRepository struct {
	mu        sync.RWMutex
	storage   map[string]Wallet // keyed by wallet id
	byAccount map[string]string // account id -> wallet id
}

// NewMemoryRepository constructs an in-memory repository for tests. Locking
// and rollback semantics come from the store.MemoryManager unit it is used
// with, so it mirrors the Postgres repository's discipline.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		storage:   make(map[string]Wallet),
		byAccount: make(map[string]string),
	}
}

func (r *memoryRepository) Create(_ context.Context, w Wallet, u store.Unit) error {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byAccount[w.AccountID]; exists {
		return errors.New("wallet exists for account")
	}
	r.storage[w.ID] = w
	r.byAccount[w.AccountID] = w.ID

	mu.OnRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.storage, w.ID)
		delete(r.byAccount, w.AccountID)
	})
	return nil
}

func (r *memoryRepository) GetByAccount(_ context.Context, accountID string) (Wallet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(accountID)
}

func (r *memoryRepository) GetByAccountForUpdate(ctx context.Context, accountID string, u store.Unit) (Wallet, error) {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return Wallet{}, err
	}

	r.mu.RLock()
	w, lookupErr := r.lookupLocked(accountID)
	r.mu.RUnlock()
	if lookupErr != nil {
		return Wallet{}, lookupErr
	}

	if err := mu.Lock(ctx, "wallet:"+w.ID); err != nil {
		return Wallet{}, err
	}

	// Re-read under the row lock: the balance may have moved while waiting.
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lookupLocked(accountID)
}

func (r *memoryRepository) AdjustBalance(_ context.Context, walletID string, delta decimal.Decimal, u store.Unit) error {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.storage[walletID]
	if !ok {
		return ErrNotFound
	}
	w.Balance = w.Balance.Add(delta)
	r.storage[walletID] = w

	mu.OnRollback(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.storage[walletID]; ok {
			cur.Balance = cur.Balance.Sub(delta)
			r.storage[walletID] = cur
		}
	})
	return nil
}

func (r *memoryRepository) lookupLocked(accountID string) (Wallet, error) {
	walletID, ok := r.byAccount[accountID]
	if !ok {
		return Wallet{}, ErrNotFound
	}
	return r.storage[walletID], nil
}

package ledger

import (
	"context"
	"sync"

	"github.com/naira-pay/naira_pay/internal/store"
)

type inMemoryStore struct {
	mu        sync.RWMutex
	entries   map[string][]Entry // wallet id -> entries in append order
	transfers []TransferRecord
}

// NewInMemory creates a concurrency-safe in-memory ledger store for tests.
func NewInMemory() Store {
	return &inMemoryStore{entries: make(map[string][]Entry)}
}

func (s *inMemoryStore) AppendEntry(_ context.Context, e Entry, u store.Unit) error {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[e.WalletID] = append(s.entries[e.WalletID], e)

	mu.OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		list := s.entries[e.WalletID]
		for i := len(list) - 1; i >= 0; i-- {
			if list[i].ID == e.ID {
				s.entries[e.WalletID] = append(list[:i], list[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *inMemoryStore) AppendTransferRecord(_ context.Context, r TransferRecord, u store.Unit) error {
	mu, err := store.MemoryFrom(u)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, r)

	mu.OnRollback(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i := len(s.transfers) - 1; i >= 0; i-- {
			if s.transfers[i].ID == r.ID {
				s.transfers = append(s.transfers[:i], s.transfers[i+1:]...)
				return
			}
		}
	})
	return nil
}

func (s *inMemoryStore) ListByWallet(_ context.Context, walletID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.entries[walletID]
	// Entries append in chronological order; reverse for most-recent-first.
	out := make([]Entry, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// TransferRecords returns a snapshot of all pairing records. Test helper.
func TransferRecords(s Store) []TransferRecord {
	mem, ok := s.(*inMemoryStore)
	if !ok {
		return nil
	}
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	out := make([]TransferRecord, len(mem.transfers))
	copy(out, mem.transfers)
	return out
}

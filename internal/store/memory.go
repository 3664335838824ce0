package store

import (
	"context"
	"sync"
	"time"
)

// MemoryManager executes atomic units in process memory. It mirrors the
// Postgres manager's locking discipline: per-row exclusive locks held until
// the unit ends, bounded by the same lock timeout, with mutations undone on
// abort. Useful for unit tests.
type MemoryManager struct {
	locks       *lockTable
	lockTimeout time.Duration
}

// NewMemoryManager builds an in-memory unit manager. lockTimeout bounds row
// lock waits; zero means wait indefinitely.
func NewMemoryManager(lockTimeout time.Duration) *MemoryManager {
	return &MemoryManager{locks: newLockTable(), lockTimeout: lockTimeout}
}

// Run invokes fn with a fresh unit. On error the unit's undo journal is
// replayed in reverse before any locks release, so other units never observe
// partial writes from an aborted unit once they acquire the row lock.
func (m *MemoryManager) Run(ctx context.Context, fn func(ctx context.Context, u Unit) error) error {
	u := &MemoryUnit{mgr: m}
	defer u.releaseAll()

	if err := fn(ctx, u); err != nil {
		u.rollback()
		return err
	}
	u.undo = nil
	return nil
}

// MemoryUnit is the in-memory Unit implementation. Memory-backed repositories
// assert to it to take row locks and register undo actions.
type MemoryUnit struct {
	mgr  *MemoryManager
	held []string
	undo []func()
}

func (*MemoryUnit) unit() {}

// Lock acquires the exclusive row lock for key, blocking up to the manager's
// lock timeout. Re-acquiring a key already held by this unit is a no-op.
func (u *MemoryUnit) Lock(ctx context.Context, key string) error {
	for _, held := range u.held {
		if held == key {
			return nil
		}
	}
	if err := u.mgr.locks.acquire(ctx, key, u.mgr.lockTimeout); err != nil {
		return err
	}
	u.held = append(u.held, key)
	return nil
}

// OnRollback registers an undo action executed if the unit aborts.
func (u *MemoryUnit) OnRollback(fn func()) {
	u.undo = append(u.undo, fn)
}

func (u *MemoryUnit) rollback() {
	for i := len(u.undo) - 1; i >= 0; i-- {
		u.undo[i]()
	}
	u.undo = nil
}

func (u *MemoryUnit) releaseAll() {
	for i := len(u.held) - 1; i >= 0; i-- {
		u.mgr.locks.release(u.held[i])
	}
	u.held = nil
}

// MemoryFrom asserts a Unit down to its in-memory implementation.
func MemoryFrom(u Unit) (*MemoryUnit, error) {
	mu, ok := u.(*MemoryUnit)
	if !ok {
		return nil, ErrNoUnit
	}
	return mu, nil
}

type lockTable struct {
	mu   sync.Mutex
	rows map[string]chan struct{}
}

func newLockTable() *lockTable {
	return &lockTable{rows: make(map[string]chan struct{})}
}

func (t *lockTable) row(key string) chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch, ok := t.rows[key]
	if !ok {
		ch = make(chan struct{}, 1)
		t.rows[key] = ch
	}
	return ch
}

func (t *lockTable) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := t.row(key)

	if timeout <= 0 {
		select {
		case ch <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrLockTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *lockTable) release(key string) {
	<-t.row(key)
}

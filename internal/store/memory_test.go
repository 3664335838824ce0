package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryManagerCommitKeepsWrites(t *testing.T) {
	mgr := NewMemoryManager(time.Second)
	value := 0

	err := mgr.Run(context.Background(), func(_ context.Context, u Unit) error {
		mu, err := MemoryFrom(u)
		if err != nil {
			return err
		}
		value = 1
		mu.OnRollback(func() { value = 0 })
		return nil
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if value != 1 {
		t.Fatalf("expected committed write, got %d", value)
	}
}

func TestMemoryManagerRollbackReversesInOrder(t *testing.T) {
	mgr := NewMemoryManager(time.Second)
	var order []string

	boom := errors.New("boom")
	err := mgr.Run(context.Background(), func(_ context.Context, u Unit) error {
		mu, _ := MemoryFrom(u)
		mu.OnRollback(func() { order = append(order, "first") })
		mu.OnRollback(func() { order = append(order, "second") })
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(order) != 2 || order[0] != "second" || order[1] != "first" {
		t.Fatalf("expected undo in reverse order, got %v", order)
	}
}

func TestMemoryUnitLockTimesOut(t *testing.T) {
	mgr := NewMemoryManager(50 * time.Millisecond)
	ctx := context.Background()

	held := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = mgr.Run(ctx, func(ctx context.Context, u Unit) error {
			mu, _ := MemoryFrom(u)
			if err := mu.Lock(ctx, "row"); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()
	<-held
	defer close(release)

	err := mgr.Run(ctx, func(ctx context.Context, u Unit) error {
		mu, _ := MemoryFrom(u)
		return mu.Lock(ctx, "row")
	})
	if !errors.Is(err, ErrLockTimeout) {
		t.Fatalf("expected ErrLockTimeout, got %v", err)
	}
}

func TestMemoryUnitLockIsReentrantWithinUnit(t *testing.T) {
	mgr := NewMemoryManager(50 * time.Millisecond)

	err := mgr.Run(context.Background(), func(ctx context.Context, u Unit) error {
		mu, _ := MemoryFrom(u)
		if err := mu.Lock(ctx, "row"); err != nil {
			return err
		}
		return mu.Lock(ctx, "row")
	})
	if err != nil {
		t.Fatalf("reacquiring a held key should not block: %v", err)
	}
}

func TestMemoryUnitReleasesLocksOnCommit(t *testing.T) {
	mgr := NewMemoryManager(50 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		err := mgr.Run(ctx, func(ctx context.Context, u Unit) error {
			mu, _ := MemoryFrom(u)
			return mu.Lock(ctx, "row")
		})
		if err != nil {
			t.Fatalf("iteration %d: %v", i, err)
		}
	}
}

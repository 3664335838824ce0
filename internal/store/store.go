package store

import (
	"context"
	"errors"
)

var (
	// ErrLockTimeout indicates a row lock could not be acquired within the
	// configured wait bound. Callers may retry the whole unit.
	ErrLockTimeout = errors.New("lock wait timed out")

	// ErrNoUnit indicates a store operation that must run inside an atomic
	// unit was invoked without one.
	ErrNoUnit = errors.New("operation requires an atomic unit")
)

// Unit represents one atomic group of store operations. Every write performed
// against a Unit commits or aborts together with the rest of the group; row
// locks taken through a Unit are held until the unit ends.
type Unit interface {
	unit()
}

// Manager runs a function inside a fresh atomic unit. If fn returns an error
// the unit aborts and leaves no trace; otherwise all of its writes commit.
type Manager interface {
	Run(ctx context.Context, fn func(ctx context.Context, u Unit) error) error
}

package txn

import "errors"

var (
	// ErrInvalidAmount occurs when an operation amount is zero or negative.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrWalletNotFound occurs when no wallet exists for an account touched
	// by the operation.
	ErrWalletNotFound = errors.New("wallet not found")

	// ErrReceiverNotFound occurs when a transfer's receiver reference does
	// not resolve to any account.
	ErrReceiverNotFound = errors.New("receiver not found")

	// ErrInsufficientFunds occurs when the source wallet lacks available
	// balance to cover a debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSelfTransfer occurs when sender and receiver resolve to the same
	// wallet.
	ErrSelfTransfer = errors.New("self-transfer denied")

	// ErrStoreFailure wraps unclassified persistence faults. The full cause
	// is logged internally; callers see only this generic kind.
	ErrStoreFailure = errors.New("ledger store failure")
)

package state

import "errors"

// Common errors for state operations.
var (
	// ErrStaleTransaction is returned when a transaction is applied to a
	// state other than the one it was built from. Transactions are never
	// rebased silently; the caller must rebuild against the current
	// state.
	ErrStaleTransaction = errors.New("transaction was built against a different state")

	// ErrTransactionApplied is returned when a transaction is applied a
	// second time. A transaction is consumed exactly once.
	ErrTransactionApplied = errors.New("transaction has already been applied")
)

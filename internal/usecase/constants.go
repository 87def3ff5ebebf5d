package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds a single transfer transaction.
	DefaultTransactionTimeout = 10 * time.Second

	// FailureMarkTimeout bounds the best-effort write that marks an
	// idempotency record failed after an abort.
	FailureMarkTimeout = 5 * time.Second

	// ReferencePrefix is prepended to transfer reference IDs.
	ReferencePrefix = "TXN-"
)

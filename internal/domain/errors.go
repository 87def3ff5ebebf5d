package domain

import (
	"errors"
	"fmt"
)

var (
	// Account errors
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrVersionConflict   = errors.New("account modified concurrently, please retry")

	// Transfer errors
	ErrSelfTransfer  = errors.New("cannot transfer to own account")
	ErrInvalidAmount = errors.New("amount must be positive")

	// Idempotency errors
	ErrIdempotencyConflict = errors.New("idempotency key conflict: payload mismatch")
	ErrIdempotencyInFlight = errors.New("transfer already in progress")

	// ErrInternalFailure marks storage and transaction failures.
	ErrInternalFailure = errors.New("internal failure")
)

// Internal wraps a storage error so that it matches ErrInternalFailure while
// keeping the cause inspectable.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrInternalFailure, err)
}

// IsRetryable reports whether the caller may retry the same request.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict) || errors.Is(err, ErrIdempotencyInFlight)
}

// ErrorCode returns a stable machine-readable code for err.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrAccountNotFound):
		return "not_found"
	case errors.Is(err, ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrVersionConflict):
		return "version_conflict"
	case errors.Is(err, ErrIdempotencyConflict):
		return "idempotency_conflict"
	case errors.Is(err, ErrIdempotencyInFlight):
		return "idempotency_in_flight"
	case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrAmountTooLarge), errors.Is(err, ErrAmountPrecision):
		return "invalid_amount"
	case errors.Is(err, ErrInvalidAddress), errors.Is(err, ErrInvalidOwnerID):
		return "invalid_request"
	case errors.Is(err, ErrAccountExists):
		return "account_exists"
	default:
		return "internal"
	}
}

// IsBusinessError reports whether err is a rejection defined by the ledger
// rather than an infrastructure failure.
func IsBusinessError(err error) bool {
	code := ErrorCode(err)
	return code != "internal" && code != "ok"
}

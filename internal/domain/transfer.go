package domain

// TransferState tracks how far a transfer attempt has progressed.
type TransferState int

const (
	TransferValidated TransferState = iota
	TransferIdempotencyChecked
	TransferDebited
	TransferCredited
	TransferCommitted
	TransferAborted
)

func (s TransferState) String() string {
	switch s {
	case TransferValidated:
		return "validated"
	case TransferIdempotencyChecked:
		return "idempotency_checked"
	case TransferDebited:
		return "debited"
	case TransferCredited:
		return "credited"
	case TransferCommitted:
		return "committed"
	case TransferAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s TransferState) Terminal() bool {
	return s == TransferCommitted || s == TransferAborted
}

// TransferResult is returned for a committed or replayed transfer.
type TransferResult struct {
	ReferenceID string
	Succeeded   bool
	// Replayed is set when the result comes from an earlier successful attempt
	// with the same idempotency token.
	Replayed bool
	// SenderBalance is the balance after the debit. Zero on replays.
	SenderBalance int64
}

package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

// IdempotencyTTL is how long an idempotency record is honoured after creation.
const IdempotencyTTL = 24 * time.Hour

// IdempotencyStatus is the lifecycle state of an idempotency record.
type IdempotencyStatus string

const (
	IdempotencyProcessing IdempotencyStatus = "processing"
	IdempotencySucceeded  IdempotencyStatus = "succeeded"
	IdempotencyFailed     IdempotencyStatus = "failed"
)

// IdempotencyKey identifies a record. Tokens are scoped per owner.
type IdempotencyKey struct {
	OwnerID string
	Token   string
}

// IdempotencyRecord remembers the outcome of a transfer submitted with a token.
type IdempotencyRecord struct {
	Key           IdempotencyKey
	PayloadDigest string
	Status        IdempotencyStatus
	ReferenceID   string
	ErrorDetail   string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// AttemptKind classifies what an incoming attempt should do given the state of
// an existing record.
type AttemptKind int

const (
	AttemptFresh AttemptKind = iota
	AttemptDigestMismatch
	AttemptAlreadySucceeded
	AttemptInFlight
	AttemptRetryAfterFailure
)

func (k AttemptKind) String() string {
	switch k {
	case AttemptFresh:
		return "fresh"
	case AttemptDigestMismatch:
		return "digest_mismatch"
	case AttemptAlreadySucceeded:
		return "already_succeeded"
	case AttemptInFlight:
		return "in_flight"
	case AttemptRetryAfterFailure:
		return "retry_after_failure"
	default:
		return "unknown"
	}
}

// AttemptOutcome is the result of beginning an attempt. ReferenceID is only set
// for AttemptAlreadySucceeded.
type AttemptOutcome struct {
	Kind        AttemptKind
	ReferenceID string
}

// Proceed reports whether the transfer may go ahead.
func (o AttemptOutcome) Proceed() bool {
	return o.Kind == AttemptFresh || o.Kind == AttemptRetryAfterFailure
}

// Expired reports whether the record is past its retention window.
func (r *IdempotencyRecord) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(r.CreatedAt.Add(ttl))
}

// Classify decides the outcome for an attempt carrying digest. Expired records
// are treated as absent. A digest mismatch wins over any status.
func (r *IdempotencyRecord) Classify(digest string, now time.Time, ttl time.Duration) AttemptOutcome {
	if r == nil || r.Expired(now, ttl) {
		return AttemptOutcome{Kind: AttemptFresh}
	}

	if r.PayloadDigest != digest {
		return AttemptOutcome{Kind: AttemptDigestMismatch}
	}

	switch r.Status {
	case IdempotencySucceeded:
		return AttemptOutcome{Kind: AttemptAlreadySucceeded, ReferenceID: r.ReferenceID}
	case IdempotencyFailed:
		return AttemptOutcome{Kind: AttemptRetryAfterFailure}
	default:
		return AttemptOutcome{Kind: AttemptInFlight}
	}
}

type transferPayload struct {
	Owner  string `json:"owner"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

// PayloadDigest fingerprints the business content of a transfer request.
func PayloadDigest(ownerID, recipientAddress string, amount int64) string {
	// Marshalling a flat struct of strings and ints cannot fail.
	raw, _ := json.Marshal(transferPayload{Owner: ownerID, To: recipientAddress, Amount: amount})
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

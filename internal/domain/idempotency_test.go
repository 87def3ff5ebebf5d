package domain

import (
	"testing"
	"time"
)

func TestIdempotencyRecordClassify(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	digest := PayloadDigest("owner-1", "9876543210", 500)

	tests := []struct {
		name   string
		record *IdempotencyRecord
		digest string
		want   AttemptKind
		ref    string
	}{
		{
			name:   "no record is fresh",
			record: nil,
			digest: digest,
			want:   AttemptFresh,
		},
		{
			name:   "different digest is a mismatch even when succeeded",
			record: &IdempotencyRecord{PayloadDigest: digest, Status: IdempotencySucceeded, ReferenceID: "TXN-1", CreatedAt: now},
			digest: PayloadDigest("owner-1", "9876543210", 501),
			want:   AttemptDigestMismatch,
		},
		{
			name:   "succeeded replays reference",
			record: &IdempotencyRecord{PayloadDigest: digest, Status: IdempotencySucceeded, ReferenceID: "TXN-1", CreatedAt: now},
			digest: digest,
			want:   AttemptAlreadySucceeded,
			ref:    "TXN-1",
		},
		{
			name:   "processing is in flight",
			record: &IdempotencyRecord{PayloadDigest: digest, Status: IdempotencyProcessing, CreatedAt: now},
			digest: digest,
			want:   AttemptInFlight,
		},
		{
			name:   "failed may be retried",
			record: &IdempotencyRecord{PayloadDigest: digest, Status: IdempotencyFailed, CreatedAt: now},
			digest: digest,
			want:   AttemptRetryAfterFailure,
		},
		{
			name:   "expired record is treated as absent",
			record: &IdempotencyRecord{PayloadDigest: "other", Status: IdempotencySucceeded, CreatedAt: now.Add(-IdempotencyTTL)},
			digest: digest,
			want:   AttemptFresh,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := tt.record.Classify(tt.digest, now, IdempotencyTTL)
			if got.Kind != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.Kind)
			}
			if got.ReferenceID != tt.ref {
				t.Fatalf("expected reference %q, got %q", tt.ref, got.ReferenceID)
			}
		})
	}
}

func TestAttemptOutcomeProceed(t *testing.T) {
	t.Parallel()

	proceed := map[AttemptKind]bool{
		AttemptFresh:             true,
		AttemptRetryAfterFailure: true,
		AttemptDigestMismatch:    false,
		AttemptAlreadySucceeded:  false,
		AttemptInFlight:          false,
	}

	for kind, want := range proceed {
		if got := (AttemptOutcome{Kind: kind}).Proceed(); got != want {
			t.Fatalf("%s: expected proceed=%v, got %v", kind, want, got)
		}
	}
}

func TestPayloadDigest(t *testing.T) {
	t.Parallel()

	a := PayloadDigest("owner-1", "9876543210", 500)
	b := PayloadDigest("owner-1", "9876543210", 500)
	if a != b {
		t.Fatalf("expected stable digest, got %s and %s", a, b)
	}

	if len(a) != 64 {
		t.Fatalf("expected hex sha256 digest, got %q", a)
	}

	variants := []string{
		PayloadDigest("owner-2", "9876543210", 500),
		PayloadDigest("owner-1", "9876543211", 500),
		PayloadDigest("owner-1", "9876543210", 501),
	}
	for _, v := range variants {
		if v == a {
			t.Fatalf("expected digest to change with payload")
		}
	}
}

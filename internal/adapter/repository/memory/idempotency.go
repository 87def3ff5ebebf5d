package memory

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// BeginAttempt reserves key for tx when the attempt may proceed. A key
// reserved by another open transaction is reported as in flight.
func (s *Store) BeginAttempt(ctx context.Context, tx usecase.Transaction, key domain.IdempotencyKey, digest string, now time.Time) (domain.AttemptOutcome, error) {
	if err := ctx.Err(); err != nil {
		return domain.AttemptOutcome{}, err
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return domain.AttemptOutcome{}, err
	}
	if mt == nil {
		return domain.AttemptOutcome{}, ErrForeignTx
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if owner, ok := s.reserved[key]; ok && owner != mt {
		return domain.AttemptOutcome{Kind: domain.AttemptInFlight}, nil
	}

	existing := s.records[key]
	outcome := existing.Classify(digest, now, s.ttl)

	switch outcome.Kind {
	case domain.AttemptFresh:
		mt.records[key] = &domain.IdempotencyRecord{
			Key:           key,
			PayloadDigest: digest,
			Status:        domain.IdempotencyProcessing,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		s.reserved[key] = mt
	case domain.AttemptRetryAfterFailure:
		retry := *existing
		retry.Status = domain.IdempotencyProcessing
		retry.ErrorDetail = ""
		retry.UpdatedAt = now
		mt.records[key] = &retry
		s.reserved[key] = mt
	}

	return outcome, nil
}

// FinalizeSuccess marks the attempt reserved by tx as succeeded.
func (s *Store) FinalizeSuccess(ctx context.Context, tx usecase.Transaction, key domain.IdempotencyKey, referenceID string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	mt, err := s.txFor(tx)
	if err != nil {
		return err
	}
	if mt == nil {
		return ErrForeignTx
	}

	rec, ok := mt.records[key]
	if !ok {
		return ErrNoAttempt
	}

	rec.Status = domain.IdempotencySucceeded
	rec.ReferenceID = referenceID
	rec.ErrorDetail = ""
	rec.UpdatedAt = now

	return nil
}

// FinalizeFailure marks key as failed outside of any transaction. Succeeded
// records and live records for a different payload are left untouched.
func (s *Store) FinalizeFailure(ctx context.Context, key domain.IdempotencyKey, digest, detail string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.records[key]
	if existing != nil && !existing.Expired(now, s.ttl) {
		if existing.Status == domain.IdempotencySucceeded || existing.PayloadDigest != digest {
			return nil
		}

		existing.Status = domain.IdempotencyFailed
		existing.ErrorDetail = detail
		existing.UpdatedAt = now

		return nil
	}

	s.records[key] = &domain.IdempotencyRecord{
		Key:           key,
		PayloadDigest: digest,
		Status:        domain.IdempotencyFailed,
		ErrorDetail:   detail,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	return nil
}

// PurgeExpired removes committed records created before the cutoff.
func (s *Store) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for key, rec := range s.records {
		if rec.CreatedAt.Before(before) {
			delete(s.records, key)
			purged++
		}
	}

	return purged, nil
}

// Record returns a copy of the committed record for key, if any.
func (s *Store) Record(key domain.IdempotencyKey) (*domain.IdempotencyRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return nil, false
	}

	out := *rec
	return &out, true
}

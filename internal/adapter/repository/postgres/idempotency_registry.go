package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

// ErrNoAttempt is returned when finalizing a key that was not claimed in the transaction.
var ErrNoAttempt = errors.New("postgres: no idempotent attempt to finalize")

// IdempotencyRegistry implements usecase.IdempotencyRegistry on the
// idempotency_records table. A concurrent attempt on the same key blocks on
// the primary key until the first transaction finishes.
type IdempotencyRegistry struct {
	queries *generated.Queries
	ttl     time.Duration
}

// NewIdempotencyRegistry creates a new IdempotencyRegistry.
func NewIdempotencyRegistry(pool *pgxpool.Pool, ttl time.Duration) *IdempotencyRegistry {
	return newIdempotencyRegistry(pool, ttl)
}

func newIdempotencyRegistry(db generated.DBTX, ttl time.Duration) *IdempotencyRegistry {
	if ttl <= 0 {
		ttl = domain.IdempotencyTTL
	}

	return &IdempotencyRegistry{
		queries: generated.New(db),
		ttl:     ttl,
	}
}

// BeginAttempt claims key inside tx or classifies the live record holding it.
func (r *IdempotencyRegistry) BeginAttempt(ctx context.Context, tx usecase.Transaction, key domain.IdempotencyKey, digest string, now time.Time) (domain.AttemptOutcome, error) {
	if tx == nil {
		return domain.AttemptOutcome{}, ErrForeignTx
	}

	q, err := queriesFor(tx, r.queries)
	if err != nil {
		return domain.AttemptOutcome{}, err
	}

	_, err = q.ClaimIdempotencyRecord(ctx, generated.ClaimIdempotencyRecordParams{
		OwnerID:       key.OwnerID,
		Token:         key.Token,
		PayloadDigest: digest,
		Now:           now,
		ExpiredBefore: now.Add(-r.ttl),
	})
	if err == nil {
		return domain.AttemptOutcome{Kind: domain.AttemptFresh}, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.AttemptOutcome{}, err
	}

	row, err := q.GetIdempotencyRecordForUpdate(ctx, generated.GetIdempotencyRecordForUpdateParams{
		OwnerID: key.OwnerID,
		Token:   key.Token,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Purged between the claim and the lock.
			return domain.AttemptOutcome{Kind: domain.AttemptInFlight}, nil
		}
		return domain.AttemptOutcome{}, err
	}

	record := rowToIdempotencyRecord(row)
	outcome := record.Classify(digest, now, r.ttl)

	if outcome.Kind == domain.AttemptRetryAfterFailure {
		n, err := q.ReopenIdempotencyRecord(ctx, generated.ReopenIdempotencyRecordParams{
			OwnerID:   key.OwnerID,
			Token:     key.Token,
			UpdatedAt: now,
		})
		if err != nil {
			return domain.AttemptOutcome{}, err
		}
		if n == 0 {
			return domain.AttemptOutcome{Kind: domain.AttemptInFlight}, nil
		}
	}

	return outcome, nil
}

// FinalizeSuccess marks the claimed record as succeeded inside tx.
func (r *IdempotencyRegistry) FinalizeSuccess(ctx context.Context, tx usecase.Transaction, key domain.IdempotencyKey, referenceID string, now time.Time) error {
	if tx == nil {
		return ErrForeignTx
	}

	q, err := queriesFor(tx, r.queries)
	if err != nil {
		return err
	}

	n, err := q.CompleteIdempotencyRecord(ctx, generated.CompleteIdempotencyRecordParams{
		OwnerID:     key.OwnerID,
		Token:       key.Token,
		ReferenceID: referenceID,
		UpdatedAt:   now,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoAttempt
	}

	return nil
}

// FinalizeFailure records a failed attempt in its own statement. Succeeded
// records and live records for another payload are left untouched.
func (r *IdempotencyRegistry) FinalizeFailure(ctx context.Context, key domain.IdempotencyKey, digest, detail string, now time.Time) error {
	return r.queries.FailIdempotencyRecord(ctx, generated.FailIdempotencyRecordParams{
		OwnerID:       key.OwnerID,
		Token:         key.Token,
		PayloadDigest: digest,
		ErrorDetail:   detail,
		Now:           now,
		ExpiredBefore: now.Add(-r.ttl),
	})
}

// PurgeExpired deletes records created before the cutoff.
func (r *IdempotencyRegistry) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.queries.DeleteIdempotencyRecordsBefore(ctx, before)
}

func rowToIdempotencyRecord(row generated.IdempotencyRecord) *domain.IdempotencyRecord {
	return &domain.IdempotencyRecord{
		Key:           domain.IdempotencyKey{OwnerID: row.OwnerID, Token: row.Token},
		PayloadDigest: row.PayloadDigest,
		Status:        domain.IdempotencyStatus(row.Status),
		ReferenceID:   row.ReferenceID,
		ErrorDetail:   row.ErrorDetail,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

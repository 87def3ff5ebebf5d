package usecase

import (
	"context"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

// MovementInput describes one version-guarded balance mutation.
type MovementInput struct {
	OwnerID             string
	ExpectedVersion     int64
	Amount              int64
	Direction           domain.Direction
	CounterpartyAddress string
	ReferenceID         string
	At                  time.Time
}

// LedgerStore defines data access for accounts and their movement history.
// Read methods accept a nil tx to read committed state.
type LedgerStore interface {
	OpenAccount(ctx context.Context, tx Transaction, account *domain.Account) error
	GetAccount(ctx context.Context, tx Transaction, ownerID string) (*domain.Account, error)
	ResolveByAddress(ctx context.Context, tx Transaction, address string) (*domain.Account, error)
	// ApplyMovement succeeds only if the stored version equals ExpectedVersion
	// and, for a debit, the balance covers the amount. Otherwise it returns
	// domain.ErrVersionConflict or domain.ErrInsufficientFunds and changes nothing.
	ApplyMovement(ctx context.Context, tx Transaction, input MovementInput) (*domain.Movement, error)
	History(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Movement, error)
}

// IdempotencyRegistry defines storage for per-owner idempotency records.
type IdempotencyRegistry interface {
	// BeginAttempt creates or reclaims the record inside tx and classifies the attempt.
	BeginAttempt(ctx context.Context, tx Transaction, key domain.IdempotencyKey, digest string, now time.Time) (domain.AttemptOutcome, error)
	FinalizeSuccess(ctx context.Context, tx Transaction, key domain.IdempotencyKey, referenceID string, now time.Time) error
	// FinalizeFailure runs outside any transaction and never overwrites a
	// succeeded record.
	FinalizeFailure(ctx context.Context, key domain.IdempotencyKey, digest, detail string, now time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

// ReplayCache keeps succeeded idempotency records close to the API so replays
// can be answered without a transaction.
type ReplayCache interface {
	Lookup(ctx context.Context, key domain.IdempotencyKey) (*domain.IdempotencyRecord, error)
	Remember(ctx context.Context, record *domain.IdempotencyRecord) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// LedgerAuditor aggregates ledger-wide totals for consistency checks.
type LedgerAuditor interface {
	Totals(ctx context.Context) (domain.LedgerTotals, error)
}

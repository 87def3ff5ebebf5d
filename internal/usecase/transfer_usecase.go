package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// TransferUseCase moves funds between two accounts exactly once per
// idempotency token.
type TransferUseCase struct {
	txManager   TransactionManager
	ledger      LedgerStore
	registry    IdempotencyRegistry
	outboxRepo  OutboxRepository
	replayCache ReplayCache
	idGen       IDGenerator
	refGen      IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
	timeout     time.Duration
	ttl         time.Duration
	now         func() time.Time
}

// TransferConfig wires a TransferUseCase. OutboxRepo, ReplayCache and Metrics
// are optional.
type TransferConfig struct {
	TxManager   TransactionManager
	Ledger      LedgerStore
	Registry    IdempotencyRegistry
	OutboxRepo  OutboxRepository
	ReplayCache ReplayCache
	IDGen       IDGenerator
	// RefGen produces the random part of transfer reference IDs.
	RefGen  IDGenerator
	Metrics *metrics.Metrics
	Logger  *zerolog.Logger
	Timeout time.Duration
	TTL     time.Duration
	Clock   func() time.Time
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(cfg TransferConfig) *TransferUseCase {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTransactionTimeout
	}
	if cfg.TTL <= 0 {
		cfg.TTL = domain.IdempotencyTTL
	}
	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return time.Now().UTC() }
	}
	if cfg.RefGen == nil {
		cfg.RefGen = cfg.IDGen
	}

	logger := zerolog.Nop()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &TransferUseCase{
		txManager:   cfg.TxManager,
		ledger:      cfg.Ledger,
		registry:    cfg.Registry,
		outboxRepo:  cfg.OutboxRepo,
		replayCache: cfg.ReplayCache,
		idGen:       cfg.IDGen,
		refGen:      cfg.RefGen,
		metrics:     cfg.Metrics,
		logger:      logger.With().Str("component", "transfer").Logger(),
		timeout:     cfg.Timeout,
		ttl:         cfg.TTL,
		now:         cfg.Clock,
	}
}

// TransferInput represents a transfer request from an authenticated caller.
type TransferInput struct {
	CallerID         string
	RecipientAddress string
	// Amount in minor units.
	Amount           int64
	IdempotencyToken string
}

// Transfer debits the caller and credits the recipient in one atomic unit.
// A repeated request with the same token and payload returns the original
// reference without moving funds again. The orchestrator never retries.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	start := time.Now()

	result, err := uc.transfer(ctx, input)

	uc.observe(input.Amount, result, err, time.Since(start))

	return result, err
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.TransferResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	address := domain.NormalizeAddress(input.RecipientAddress)

	var (
		key    domain.IdempotencyKey
		digest string
	)

	hasToken := input.IdempotencyToken != ""
	if hasToken {
		key = domain.IdempotencyKey{OwnerID: input.CallerID, Token: input.IdempotencyToken}
		digest = domain.PayloadDigest(input.CallerID, address, input.Amount)

		if result, hit, err := uc.replayFromCache(ctx, key, digest); hit {
			return result, err
		}
	}

	txCtx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, uc.internal(txCtx, "begin transaction", err)
	}

	finished := false
	abort := func() {
		if finished {
			return
		}
		finished = true
		rbCtx, rbCancel := context.WithTimeout(context.WithoutCancel(ctx), FailureMarkTimeout)
		defer rbCancel()
		if rbErr := tx.Rollback(rbCtx); rbErr != nil {
			uc.logger.Debug().Err(rbErr).Msg("rollback after abort")
		}
	}
	defer abort()

	// Validated: no side effects yet.
	state := domain.TransferValidated

	recipient, err := uc.ledger.ResolveByAddress(txCtx, tx, address)
	if err != nil {
		return nil, uc.internal(txCtx, "resolve recipient", err)
	}

	sender, err := uc.ledger.GetAccount(txCtx, tx, input.CallerID)
	if err != nil {
		return nil, uc.internal(txCtx, "load sender", err)
	}

	if sender.OwnerID == recipient.OwnerID {
		return nil, domain.ErrSelfTransfer
	}

	attemptStarted := false
	if hasToken {
		outcome, err := uc.registry.BeginAttempt(txCtx, tx, key, digest, uc.now())
		if err != nil {
			return nil, uc.internal(txCtx, "begin idempotent attempt", err)
		}

		if uc.metrics != nil {
			uc.metrics.IdempotencyOutcomes.WithLabelValues(outcome.Kind.String()).Inc()
		}

		switch outcome.Kind {
		case domain.AttemptDigestMismatch:
			return nil, domain.ErrIdempotencyConflict
		case domain.AttemptAlreadySucceeded:
			uc.logger.Debug().
				Str("owner_id", key.OwnerID).
				Str("reference_id", outcome.ReferenceID).
				Msg("replaying succeeded transfer")

			return &domain.TransferResult{
				ReferenceID: outcome.ReferenceID,
				Succeeded:   true,
				Replayed:    true,
			}, nil
		case domain.AttemptInFlight:
			return nil, domain.ErrIdempotencyInFlight
		}

		attemptStarted = true
	}
	state = domain.TransferIdempotencyChecked

	fail := func(err error) (*domain.TransferResult, error) {
		abort()

		uc.logger.Warn().
			Err(err).
			Str("owner_id", input.CallerID).
			Str("state", state.String()).
			Msg("transfer aborted")

		if attemptStarted {
			uc.markFailed(ctx, key, digest, err)
		}

		return nil, err
	}

	now := uc.now()
	referenceID := ReferencePrefix + uc.refGen.Generate()

	debit, err := uc.ledger.ApplyMovement(txCtx, tx, MovementInput{
		OwnerID:             sender.OwnerID,
		ExpectedVersion:     sender.Version,
		Amount:              input.Amount,
		Direction:           domain.DirectionDebit,
		CounterpartyAddress: recipient.ContactAddress,
		ReferenceID:         referenceID,
		At:                  now,
	})
	if err != nil {
		return fail(uc.internal(txCtx, "debit sender", err))
	}
	state = domain.TransferDebited

	if _, err := uc.ledger.ApplyMovement(txCtx, tx, MovementInput{
		OwnerID:             recipient.OwnerID,
		ExpectedVersion:     recipient.Version,
		Amount:              input.Amount,
		Direction:           domain.DirectionCredit,
		CounterpartyAddress: sender.ContactAddress,
		ReferenceID:         referenceID,
		At:                  now,
	}); err != nil {
		return fail(uc.internal(txCtx, "credit recipient", err))
	}
	state = domain.TransferCredited

	if hasToken {
		if err := uc.registry.FinalizeSuccess(txCtx, tx, key, referenceID, now); err != nil {
			return fail(uc.internal(txCtx, "finalize idempotency record", err))
		}
	}

	if uc.outboxRepo != nil {
		event := domain.NewTransferCommittedEvent(
			uc.idGen.Generate(),
			referenceID,
			sender.OwnerID, sender.ContactAddress,
			recipient.OwnerID, recipient.ContactAddress,
			input.Amount,
			now,
		)
		if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
			return fail(uc.internal(txCtx, "append outbox event", err))
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return fail(uc.internal(txCtx, "commit transfer", err))
	}
	finished = true
	state = domain.TransferCommitted

	if hasToken {
		uc.rememberSuccess(ctx, &domain.IdempotencyRecord{
			Key:           key,
			PayloadDigest: digest,
			Status:        domain.IdempotencySucceeded,
			ReferenceID:   referenceID,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	uc.logger.Info().
		Str("reference_id", referenceID).
		Str("sender_id", sender.OwnerID).
		Str("recipient_id", recipient.OwnerID).
		Int64("amount", input.Amount).
		Msg("transfer committed")

	return &domain.TransferResult{
		ReferenceID:   referenceID,
		Succeeded:     true,
		SenderBalance: debit.BalanceAfter,
	}, nil
}

// replayFromCache answers from the replay cache when it holds a succeeded
// record for key. Cache failures fall through to the registry.
func (uc *TransferUseCase) replayFromCache(ctx context.Context, key domain.IdempotencyKey, digest string) (*domain.TransferResult, bool, error) {
	if uc.replayCache == nil {
		return nil, false, nil
	}

	record, err := uc.replayCache.Lookup(ctx, key)
	if err != nil {
		uc.logger.Warn().Err(err).Str("owner_id", key.OwnerID).Msg("replay cache lookup failed")
		uc.observeCache("error")
		return nil, false, nil
	}

	if record == nil || record.Expired(uc.now(), uc.ttl) || record.Status != domain.IdempotencySucceeded {
		uc.observeCache("miss")
		return nil, false, nil
	}

	uc.observeCache("hit")

	if record.PayloadDigest != digest {
		return nil, true, domain.ErrIdempotencyConflict
	}

	return &domain.TransferResult{
		ReferenceID: record.ReferenceID,
		Succeeded:   true,
		Replayed:    true,
	}, true, nil
}

func (uc *TransferUseCase) rememberSuccess(ctx context.Context, record *domain.IdempotencyRecord) {
	if uc.replayCache == nil {
		return
	}

	if err := uc.replayCache.Remember(ctx, record); err != nil {
		uc.logger.Warn().Err(err).Str("reference_id", record.ReferenceID).Msg("replay cache write failed")
	}
}

// markFailed records the failure outside the aborted transaction. Its own
// error is logged and never replaces the transfer error.
func (uc *TransferUseCase) markFailed(ctx context.Context, key domain.IdempotencyKey, digest string, cause error) {
	markCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), FailureMarkTimeout)
	defer cancel()

	err := uc.registry.FinalizeFailure(markCtx, key, digest, cause.Error(), uc.now())

	if uc.metrics != nil {
		result := "ok"
		if err != nil {
			result = "error"
		}
		uc.metrics.IdempotencyFailureMarks.WithLabelValues(result).Inc()
	}

	if err != nil {
		uc.logger.Warn().
			Err(err).
			Str("owner_id", key.OwnerID).
			Str("token", key.Token).
			Msg("failed to mark idempotency record as failed")
	}
}

// internal passes ledger rejections through and wraps everything else as an
// internal failure, surfacing an expired transaction deadline.
func (uc *TransferUseCase) internal(txCtx context.Context, op string, err error) error {
	if domain.IsBusinessError(err) || errors.Is(err, domain.ErrInternalFailure) {
		return err
	}

	if errors.Is(txCtx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		return domain.Internal(op, errors.Join(err, context.DeadlineExceeded))
	}

	return domain.Internal(op, err)
}

func (uc *TransferUseCase) observe(amount int64, result *domain.TransferResult, err error, elapsed time.Duration) {
	if uc.metrics == nil {
		return
	}

	outcome := domain.ErrorCode(err)
	switch {
	case err == nil && result != nil && result.Replayed:
		outcome = "replayed"
	case err == nil:
		outcome = "committed"
		uc.metrics.TransferAmount.Observe(float64(amount))
	}

	uc.metrics.Transfers.WithLabelValues(outcome).Inc()
	uc.metrics.TransferDuration.Observe(elapsed.Seconds())
}

func (uc *TransferUseCase) observeCache(result string) {
	if uc.metrics != nil {
		uc.metrics.IdempotencyReplayCache.WithLabelValues(result).Inc()
	}
}

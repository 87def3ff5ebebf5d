package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/metrics"
)

// AccountUseCase handles account opening and read queries.
type AccountUseCase struct {
	txManager  TransactionManager
	ledger     LedgerStore
	outboxRepo OutboxRepository
	idGen      IDGenerator
	metrics    *metrics.Metrics
}

// NewAccountUseCase creates a new AccountUseCase. outboxRepo and m may be nil.
func NewAccountUseCase(
	txManager TransactionManager,
	ledger LedgerStore,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	m *metrics.Metrics,
) *AccountUseCase {
	return &AccountUseCase{
		txManager:  txManager,
		ledger:     ledger,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		metrics:    m,
	}
}

// OpenAccountInput represents input for opening an account.
type OpenAccountInput struct {
	OwnerID        string
	ContactAddress string
	// InitialCredit in minor units, recorded as a credit from the system.
	InitialCredit int64
}

// OpenAccount creates an account at version 0 and applies the optional
// opening credit in the same transaction.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if err := domain.ValidateOwnerID(input.OwnerID); err != nil {
		return nil, err
	}

	address := domain.NormalizeAddress(input.ContactAddress)
	if err := domain.ValidateContactAddress(address); err != nil {
		return nil, err
	}

	if input.InitialCredit < 0 {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, domain.Internal("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	now := time.Now().UTC()
	account := &domain.Account{
		OwnerID:        input.OwnerID,
		ContactAddress: address,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.ledger.OpenAccount(txCtx, tx, account); err != nil {
		return nil, wrapStoreError("open account", err)
	}

	if input.InitialCredit > 0 {
		if err := domain.ValidateAmount(input.InitialCredit); err != nil {
			return nil, err
		}

		movement, err := uc.ledger.ApplyMovement(txCtx, tx, MovementInput{
			OwnerID:             account.OwnerID,
			ExpectedVersion:     account.Version,
			Amount:              input.InitialCredit,
			Direction:           domain.DirectionCredit,
			CounterpartyAddress: domain.SystemCounterparty,
			ReferenceID:         fmt.Sprintf("OPEN-%s", uc.idGen.Generate()),
			At:                  now,
		})
		if err != nil {
			return nil, wrapStoreError("apply opening credit", err)
		}

		account.Balance = movement.BalanceAfter
		account.Version = movement.AccountVersion
	}

	if uc.outboxRepo != nil {
		if err := uc.outboxRepo.Create(txCtx, tx, domain.NewAccountOpenedEvent(uc.idGen.Generate(), account)); err != nil {
			return nil, domain.Internal("append outbox event", err)
		}
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, domain.Internal("commit account", err)
	}

	if uc.metrics != nil {
		uc.metrics.AccountsOpened.Inc()
	}

	return account, nil
}

// GetBalance returns the committed account state of ownerID.
func (uc *AccountUseCase) GetBalance(ctx context.Context, ownerID string) (*domain.Account, error) {
	account, err := uc.ledger.GetAccount(ctx, nil, ownerID)
	if err != nil {
		return nil, wrapStoreError("get account", err)
	}
	return account, nil
}

// HistoryInput represents input for listing movements.
type HistoryInput struct {
	OwnerID string
	Limit   int
	Offset  int
}

// History lists movements of an account, newest first.
func (uc *AccountUseCase) History(ctx context.Context, input HistoryInput) ([]*domain.Movement, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	movements, err := uc.ledger.History(ctx, input.OwnerID, limit, offset)
	if err != nil {
		return nil, wrapStoreError("list movements", err)
	}
	return movements, nil
}

func wrapStoreError(op string, err error) error {
	if domain.IsBusinessError(err) || errors.Is(err, domain.ErrInternalFailure) {
		return err
	}
	return domain.Internal(op, err)
}

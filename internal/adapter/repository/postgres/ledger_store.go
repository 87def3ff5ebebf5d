package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
	"github.com/iho/walletledger/internal/usecase"
)

const pgErrUniqueViolation = "23505"

// LedgerStore implements usecase.LedgerStore and usecase.LedgerAuditor.
type LedgerStore struct {
	queries *generated.Queries
	idGen   usecase.IDGenerator
}

// NewLedgerStore creates a new LedgerStore.
func NewLedgerStore(pool *pgxpool.Pool, idGen usecase.IDGenerator) *LedgerStore {
	return newLedgerStore(pool, idGen)
}

func newLedgerStore(db generated.DBTX, idGen usecase.IDGenerator) *LedgerStore {
	return &LedgerStore{
		queries: generated.New(db),
		idGen:   idGen,
	}
}

// OpenAccount inserts a new account.
func (s *LedgerStore) OpenAccount(ctx context.Context, tx usecase.Transaction, account *domain.Account) error {
	q, err := queriesFor(tx, s.queries)
	if err != nil {
		return err
	}

	_, err = q.CreateAccount(ctx, generated.CreateAccountParams{
		OwnerID:        account.OwnerID,
		ContactAddress: account.ContactAddress,
		Balance:        account.Balance,
		Version:        account.Version,
		CreatedAt:      account.CreatedAt,
		UpdatedAt:      account.UpdatedAt,
	})
	if isUniqueViolation(err) {
		return domain.ErrAccountExists
	}

	return err
}

// GetAccount retrieves an account by owner.
func (s *LedgerStore) GetAccount(ctx context.Context, tx usecase.Transaction, ownerID string) (*domain.Account, error) {
	q, err := queriesFor(tx, s.queries)
	if err != nil {
		return nil, err
	}

	row, err := q.GetAccount(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// ResolveByAddress retrieves the account registered under a contact address.
func (s *LedgerStore) ResolveByAddress(ctx context.Context, tx usecase.Transaction, address string) (*domain.Account, error) {
	q, err := queriesFor(tx, s.queries)
	if err != nil {
		return nil, err
	}

	row, err := q.GetAccountByAddress(ctx, address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}

		return nil, err
	}

	return rowToAccount(row), nil
}

// ApplyMovement changes the balance only if the account is still at the
// expected version, then appends the matching history entry.
func (s *LedgerStore) ApplyMovement(ctx context.Context, tx usecase.Transaction, input usecase.MovementInput) (*domain.Movement, error) {
	if !input.Direction.Valid() || input.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}
	if tx == nil {
		return nil, ErrForeignTx
	}

	q, err := queriesFor(tx, s.queries)
	if err != nil {
		return nil, err
	}

	delta := input.Amount
	if input.Direction == domain.DirectionDebit {
		delta = -input.Amount
	}

	updated, err := q.ApplyAccountDelta(ctx, generated.ApplyAccountDeltaParams{
		OwnerID:   input.OwnerID,
		Version:   input.ExpectedVersion,
		Delta:     delta,
		UpdatedAt: input.At,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, explainRejection(ctx, q, input)
		}

		return nil, err
	}

	row, err := q.CreateMovement(ctx, generated.CreateMovementParams{
		ID:                  s.idGen.Generate(),
		OwnerID:             input.OwnerID,
		Direction:           string(input.Direction),
		Amount:              input.Amount,
		CounterpartyAddress: input.CounterpartyAddress,
		ReferenceID:         input.ReferenceID,
		BalanceAfter:        updated.Balance,
		AccountVersion:      updated.Version,
		CreatedAt:           input.At,
	})
	if err != nil {
		return nil, err
	}

	return rowToMovement(row), nil
}

// explainRejection reports why the guarded update matched no row. Missing
// funds take precedence over a stale version.
func explainRejection(ctx context.Context, q *generated.Queries, input usecase.MovementInput) error {
	row, err := q.GetAccount(ctx, input.OwnerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrAccountNotFound
		}
		return err
	}

	current := rowToAccount(row)
	if input.Direction == domain.DirectionDebit && !current.CanDebit(input.Amount) {
		return domain.ErrInsufficientFunds
	}

	return domain.ErrVersionConflict
}

// History lists committed movements of an owner, newest first.
func (s *LedgerStore) History(ctx context.Context, ownerID string, limit, offset int) ([]*domain.Movement, error) {
	rows, err := s.queries.ListMovementsByOwner(ctx, generated.ListMovementsByOwnerParams{
		OwnerID: ownerID,
		Limit:   int32(limit),
		Offset:  int32(offset),
	})
	if err != nil {
		return nil, err
	}

	movements := make([]*domain.Movement, 0, len(rows))
	for _, row := range rows {
		movements = append(movements, rowToMovement(row))
	}

	return movements, nil
}

// Totals aggregates committed balances and movements.
func (s *LedgerStore) Totals(ctx context.Context) (domain.LedgerTotals, error) {
	row, err := s.queries.LedgerTotals(ctx, domain.SystemCounterparty)
	if err != nil {
		return domain.LedgerTotals{}, err
	}

	return domain.LedgerTotals{
		TotalBalance:  row.TotalBalance,
		TotalCredits:  row.TotalCredits,
		TotalDebits:   row.TotalDebits,
		SystemCredits: row.SystemCredits,
	}, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation
}

func rowToAccount(row generated.Account) *domain.Account {
	return &domain.Account{
		OwnerID:        row.OwnerID,
		ContactAddress: row.ContactAddress,
		Balance:        row.Balance,
		Version:        row.Version,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}
}

func rowToMovement(row generated.AccountMovement) *domain.Movement {
	return &domain.Movement{
		ID:                  row.ID,
		OwnerID:             row.OwnerID,
		Direction:           domain.Direction(row.Direction),
		Amount:              row.Amount,
		CounterpartyAddress: row.CounterpartyAddress,
		ReferenceID:         row.ReferenceID,
		BalanceAfter:        row.BalanceAfter,
		AccountVersion:      row.AccountVersion,
		CreatedAt:           row.CreatedAt,
	}
}

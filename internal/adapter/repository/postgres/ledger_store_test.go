package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

type fixedID string

func (f fixedID) Generate() string { return string(f) }

var accountColumns = []string{"owner_id", "contact_address", "balance", "version", "created_at", "updated_at"}

var movementColumns = []string{
	"id", "owner_id", "direction", "amount", "counterparty_address",
	"reference_id", "balance_after", "account_version", "created_at",
}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return tx
}

func TestLedgerStoreOpenAccount(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))
	now := time.Now().UTC()

	tx := beginTx(t, pool)
	pool.ExpectQuery("INSERT INTO accounts").
		WithArgs("alice", "5550001111", int64(0), int64(0), now, now).
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("alice", "5550001111", int64(0), int64(0), now, now))

	err := store.OpenAccount(context.Background(), tx, &domain.Account{
		OwnerID:        "alice",
		ContactAddress: "5550001111",
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertExpectations(t, pool)
}

func TestLedgerStoreOpenAccountDuplicate(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))

	tx := beginTx(t, pool)
	pool.ExpectQuery("INSERT INTO accounts").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := store.OpenAccount(context.Background(), tx, &domain.Account{OwnerID: "alice", ContactAddress: "5550001111"})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestLedgerStoreGetAccountNotFound(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))

	pool.ExpectQuery("FROM accounts WHERE owner_id").
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)

	_, err := store.GetAccount(context.Background(), nil, "ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestLedgerStoreResolveByAddress(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))
	now := time.Now().UTC()

	tx := beginTx(t, pool)
	pool.ExpectQuery("FROM accounts WHERE contact_address").
		WithArgs("5550001111").
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("alice", "5550001111", int64(700), int64(5), now, now))

	acc, err := store.ResolveByAddress(context.Background(), tx, "5550001111")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if acc.OwnerID != "alice" || acc.Balance != 700 || acc.Version != 5 {
		t.Fatalf("unexpected account %+v", acc)
	}
}

func TestLedgerStoreApplyDebit(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))
	now := time.Now().UTC()

	tx := beginTx(t, pool)
	pool.ExpectQuery("UPDATE accounts").
		WithArgs("alice", int64(3), int64(-100), now).
		WillReturnRows(pgxmock.NewRows(accountColumns).AddRow("alice", "5550001111", int64(900), int64(4), now, now))
	pool.ExpectQuery("INSERT INTO account_movements").
		WithArgs("m1", "alice", "debit", int64(100), "5550002222", "TXN-1", int64(900), int64(4), now).
		WillReturnRows(pgxmock.NewRows(movementColumns).
			AddRow("m1", "alice", "debit", int64(100), "5550002222", "TXN-1", int64(900), int64(4), now))

	movement, err := store.ApplyMovement(context.Background(), tx, usecase.MovementInput{
		OwnerID:             "alice",
		ExpectedVersion:     3,
		Amount:              100,
		Direction:           domain.DirectionDebit,
		CounterpartyAddress: "5550002222",
		ReferenceID:         "TXN-1",
		At:                  now,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if movement.BalanceAfter != 900 || movement.AccountVersion != 4 || movement.Direction != domain.DirectionDebit {
		t.Fatalf("unexpected movement %+v", movement)
	}

	assertExpectations(t, pool)
}

func TestLedgerStoreApplyRejections(t *testing.T) {
	now := time.Now().UTC()

	tests := []struct {
		name    string
		current *pgxmock.Rows
		readErr error
		wantErr error
	}{
		{
			name:    "insufficient funds",
			current: pgxmock.NewRows(accountColumns).AddRow("alice", "5550001111", int64(50), int64(3), now, now),
			wantErr: domain.ErrInsufficientFunds,
		},
		{
			name:    "stale version",
			current: pgxmock.NewRows(accountColumns).AddRow("alice", "5550001111", int64(500), int64(4), now, now),
			wantErr: domain.ErrVersionConflict,
		},
		{
			name:    "account vanished",
			readErr: pgx.ErrNoRows,
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := newMockPool(t)
			store := newLedgerStore(pool, fixedID("m1"))

			tx := beginTx(t, pool)
			pool.ExpectQuery("UPDATE accounts").
				WithArgs("alice", int64(3), int64(-100), now).
				WillReturnError(pgx.ErrNoRows)

			read := pool.ExpectQuery("FROM accounts WHERE owner_id").WithArgs("alice")
			if tt.readErr != nil {
				read.WillReturnError(tt.readErr)
			} else {
				read.WillReturnRows(tt.current)
			}

			_, err := store.ApplyMovement(context.Background(), tx, usecase.MovementInput{
				OwnerID:         "alice",
				ExpectedVersion: 3,
				Amount:          100,
				Direction:       domain.DirectionDebit,
				ReferenceID:     "TXN-1",
				At:              now,
			})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}

			assertExpectations(t, pool)
		})
	}
}

func TestLedgerStoreApplyRequiresTransaction(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))

	_, err := store.ApplyMovement(context.Background(), nil, usecase.MovementInput{
		OwnerID: "alice", Amount: 1, Direction: domain.DirectionCredit,
	})
	if !errors.Is(err, ErrForeignTx) {
		t.Fatalf("expected ErrForeignTx, got %v", err)
	}
}

func TestLedgerStoreHistoryAndTotals(t *testing.T) {
	pool := newMockPool(t)
	store := newLedgerStore(pool, fixedID("m1"))
	now := time.Now().UTC()

	pool.ExpectQuery("FROM account_movements").
		WithArgs("alice", int32(2), int32(0)).
		WillReturnRows(pgxmock.NewRows(movementColumns).
			AddRow("m2", "alice", "debit", int64(100), "5550002222", "TXN-2", int64(800), int64(3), now).
			AddRow("m1", "alice", "credit", int64(900), "system", "OPEN-1", int64(900), int64(1), now))

	history, err := store.History(context.Background(), "alice", 2, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0].ID != "m2" || history[1].CounterpartyAddress != domain.SystemCounterparty {
		t.Fatalf("unexpected history %+v", history)
	}

	pool.ExpectQuery("total_balance").
		WithArgs(domain.SystemCounterparty).
		WillReturnRows(pgxmock.NewRows([]string{"total_balance", "total_credits", "total_debits", "system_credits"}).
			AddRow(int64(900), int64(1000), int64(100), int64(900)))

	totals, err := store.Totals(context.Background())
	if err != nil {
		t.Fatalf("Totals: %v", err)
	}
	if !totals.Consistent() {
		t.Fatalf("expected consistent totals, got %+v", totals)
	}

	assertExpectations(t, pool)
}

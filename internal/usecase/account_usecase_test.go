package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/walletledger/internal/adapter/repository/memory"
	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
	"github.com/iho/walletledger/internal/usecase/mocks"
)

func TestAccountUseCase_OpenAccount(t *testing.T) {
	tests := []struct {
		name    string
		input   usecase.OpenAccountInput
		wantErr error
		balance int64
	}{
		{
			name:  "without initial credit",
			input: usecase.OpenAccountInput{OwnerID: "alice", ContactAddress: "+1 (555) 000-1111"},
		},
		{
			name:    "with initial credit",
			input:   usecase.OpenAccountInput{OwnerID: "bob", ContactAddress: "5550002222", InitialCredit: 10000},
			balance: 10000,
		},
		{
			name:    "empty owner",
			input:   usecase.OpenAccountInput{ContactAddress: "5550003333"},
			wantErr: domain.ErrInvalidOwnerID,
		},
		{
			name:    "bad address",
			input:   usecase.OpenAccountInput{OwnerID: "carol", ContactAddress: "call me"},
			wantErr: domain.ErrInvalidAddress,
		},
		{
			name:    "negative credit",
			input:   usecase.OpenAccountInput{OwnerID: "dave", ContactAddress: "5550004444", InitialCredit: -1},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore()
			uc := usecase.NewAccountUseCase(store, store, store, &seqGen{prefix: "id-"}, nil)

			account, err := uc.OpenAccount(context.Background(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if account.Balance != tt.balance {
				t.Fatalf("expected balance %d, got %d", tt.balance, account.Balance)
			}

			stored, err := uc.GetBalance(context.Background(), tt.input.OwnerID)
			if err != nil {
				t.Fatalf("GetBalance: %v", err)
			}
			if stored.Version != account.Version || stored.Balance != account.Balance {
				t.Fatalf("stored account %+v differs from returned %+v", stored, account)
			}
			if stored.ContactAddress != domain.NormalizeAddress(tt.input.ContactAddress) {
				t.Fatalf("expected normalized address, got %q", stored.ContactAddress)
			}
		})
	}
}

func TestAccountUseCase_OpenAccountDuplicate(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewAccountUseCase(store, store, nil, &seqGen{prefix: "id-"}, nil)

	if _, err := uc.OpenAccount(context.Background(), usecase.OpenAccountInput{OwnerID: "alice", ContactAddress: "5550001111"}); err != nil {
		t.Fatalf("first open: %v", err)
	}

	_, err := uc.OpenAccount(context.Background(), usecase.OpenAccountInput{OwnerID: "alice", ContactAddress: "5550009999"})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for duplicate owner, got %v", err)
	}

	_, err = uc.OpenAccount(context.Background(), usecase.OpenAccountInput{OwnerID: "bob", ContactAddress: "555-000-1111"})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists for duplicate address, got %v", err)
	}
}

func TestAccountUseCase_OpenAccountCommitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	txManager := mocks.NewMockTransactionManager(ctrl)
	tx := mocks.NewMockTransaction(ctrl)
	ledger := mocks.NewMockLedgerStore(ctrl)
	idGen := mocks.NewMockIDGenerator(ctrl)

	txManager.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	ledger.EXPECT().OpenAccount(gomock.Any(), tx, gomock.Any()).Return(nil)
	tx.EXPECT().Commit(gomock.Any()).Return(errors.New("connection lost"))
	tx.EXPECT().Rollback(gomock.Any()).Return(nil)

	uc := usecase.NewAccountUseCase(txManager, ledger, nil, idGen, nil)

	_, err := uc.OpenAccount(context.Background(), usecase.OpenAccountInput{OwnerID: "alice", ContactAddress: "5550001111"})
	if !errors.Is(err, domain.ErrInternalFailure) {
		t.Fatalf("expected ErrInternalFailure, got %v", err)
	}
}

func TestAccountUseCase_History(t *testing.T) {
	store := memory.NewStore()
	ids := &seqGen{prefix: "id-"}
	accounts := usecase.NewAccountUseCase(store, store, nil, ids, nil)
	transfers := usecase.NewTransferUseCase(usecase.TransferConfig{
		TxManager: store, Ledger: store, Registry: store, IDGen: ids,
	})

	for _, in := range []usecase.OpenAccountInput{
		{OwnerID: "A", ContactAddress: "9000000001", InitialCredit: 1000},
		{OwnerID: "B", ContactAddress: "9000000002"},
	} {
		if _, err := accounts.OpenAccount(context.Background(), in); err != nil {
			t.Fatalf("open %s: %v", in.OwnerID, err)
		}
	}

	for i := 0; i < 3; i++ {
		if _, err := transfers.Transfer(context.Background(), usecase.TransferInput{
			CallerID: "A", RecipientAddress: "9000000002", Amount: int64(100 * (i + 1)),
		}); err != nil {
			t.Fatalf("transfer %d: %v", i, err)
		}
	}

	history, err := accounts.History(context.Background(), usecase.HistoryInput{OwnerID: "A"})
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 4 {
		t.Fatalf("expected 4 movements, got %d", len(history))
	}
	if history[0].Amount != 300 || history[0].Direction != domain.DirectionDebit {
		t.Fatalf("expected newest debit of 300 first, got %+v", history[0])
	}
	if history[3].CounterpartyAddress != domain.SystemCounterparty {
		t.Fatalf("expected opening credit last, got %+v", history[3])
	}

	page, err := accounts.History(context.Background(), usecase.HistoryInput{OwnerID: "A", Limit: 2, Offset: 1})
	if err != nil {
		t.Fatalf("History page: %v", err)
	}
	if len(page) != 2 || page[0].Amount != 200 {
		t.Fatalf("unexpected page %+v", page)
	}

	empty, err := accounts.History(context.Background(), usecase.HistoryInput{OwnerID: "nobody"})
	if err != nil {
		t.Fatalf("History unknown owner: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected no movements, got %d", len(empty))
	}
}

func TestAccountUseCase_GetBalanceNotFound(t *testing.T) {
	store := memory.NewStore()
	uc := usecase.NewAccountUseCase(store, store, nil, &seqGen{prefix: "id-"}, nil)

	_, err := uc.GetBalance(context.Background(), "ghost")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/iho/walletledger/internal/domain"
)

func TestTransferFromDomain(t *testing.T) {
	committed := TransferFromDomain(&domain.TransferResult{ReferenceID: "TXN-1", Succeeded: true, SenderBalance: 7550})
	if committed.Idempotent || committed.WalletBalance == nil || committed.WalletBalance.String() != "75.5" {
		t.Fatalf("unexpected committed response %+v", committed)
	}

	replayed := TransferFromDomain(&domain.TransferResult{ReferenceID: "TXN-1", Succeeded: true, Replayed: true})
	if !replayed.Idempotent || replayed.WalletBalance != nil {
		t.Fatalf("unexpected replayed response %+v", replayed)
	}

	raw, err := json.Marshal(replayed)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"message":"Transfer successful","reference_id":"TXN-1","idempotent":true}` {
		t.Fatalf("unexpected JSON %s", raw)
	}
}

func TestTransactionsFromDomain(t *testing.T) {
	now := time.Now().UTC()
	account := &domain.Account{OwnerID: "alice", Balance: 12345}
	movements := []*domain.Movement{
		{ID: "m2", Direction: domain.DirectionDebit, Amount: 500, CounterpartyAddress: "5550002222", ReferenceID: "TXN-2", BalanceAfter: 12345, CreatedAt: now},
		{ID: "m1", Direction: domain.DirectionCredit, Amount: 12845, CounterpartyAddress: domain.SystemCounterparty, ReferenceID: "OPEN-1", BalanceAfter: 12845, CreatedAt: now},
	}

	resp := TransactionsFromDomain(account, movements)

	if resp.WalletBalance.String() != "123.45" {
		t.Fatalf("expected wallet balance 123.45, got %s", resp.WalletBalance)
	}
	if len(resp.Transactions) != 2 || resp.Transactions[0].Type != "debit" || resp.Transactions[0].Amount.String() != "5" {
		t.Fatalf("unexpected transactions %+v", resp.Transactions)
	}
}

func TestConsistencyFromDomain(t *testing.T) {
	ok := ConsistencyFromDomain(domain.LedgerTotals{TotalBalance: 900, TotalCredits: 1000, TotalDebits: 100, SystemCredits: 900})
	if !ok.Consistent || ok.Status != "consistent" {
		t.Fatalf("expected consistent, got %+v", ok)
	}

	bad := ConsistencyFromDomain(domain.LedgerTotals{TotalBalance: 1000, TotalCredits: 1000, TotalDebits: 100, SystemCredits: 900})
	if bad.Consistent || bad.Status != "inconsistent" {
		t.Fatalf("expected inconsistent, got %+v", bad)
	}
}

func TestAccountFromDomain(t *testing.T) {
	resp := AccountFromDomain(&domain.Account{OwnerID: "alice", ContactAddress: "5550001111", Balance: 100, Version: 1})
	if resp.OwnerID != "alice" || resp.WalletBalance.String() != "1" || resp.BalanceMinorUnits != 100 {
		t.Fatalf("unexpected account response %+v", resp)
	}
}

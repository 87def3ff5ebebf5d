package domain

import "time"

// Direction is the side of a balance movement.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Movement is one append-only history entry of an account. The debit and the
// credit of a transfer share the same ReferenceID.
type Movement struct {
	ID                  string
	OwnerID             string
	Direction           Direction
	Amount              int64
	CounterpartyAddress string
	ReferenceID         string
	BalanceAfter        int64
	AccountVersion      int64
	CreatedAt           time.Time
}

// LedgerTotals aggregates every account and movement in the ledger.
type LedgerTotals struct {
	TotalBalance  int64
	TotalCredits  int64
	TotalDebits   int64
	SystemCredits int64
}

// Consistent reports whether balances equal the net of all movements and every
// debit is matched by a credit to another account.
func (t LedgerTotals) Consistent() bool {
	return t.TotalBalance == t.TotalCredits-t.TotalDebits &&
		t.TotalCredits-t.SystemCredits == t.TotalDebits
}

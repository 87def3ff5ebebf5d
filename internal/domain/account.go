package domain

import "time"

// SystemCounterparty is recorded as the counterparty of credits that do not
// originate from another account, such as the opening credit.
const SystemCounterparty = "system"

// Account holds a non-negative balance in minor units for a single owner.
type Account struct {
	OwnerID        string
	ContactAddress string
	Balance        int64
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CanDebit reports whether amount can leave the account without driving the
// balance negative.
func (a *Account) CanDebit(amount int64) bool {
	return amount > 0 && a.Balance >= amount
}

// Apply returns the balance after moving amount in the given direction.
func (a *Account) Apply(direction Direction, amount int64) int64 {
	if direction == DirectionDebit {
		return a.Balance - amount
	}
	return a.Balance + amount
}

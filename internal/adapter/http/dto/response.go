package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	OwnerID           string          `json:"owner_id"`
	ContactAddress    string          `json:"contact_address"`
	WalletBalance     decimal.Decimal `json:"wallet_balance"`
	BalanceMinorUnits int64           `json:"balance_minor_units"`
	Version           int64           `json:"version"`
	CreatedAt         time.Time       `json:"created_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		OwnerID:           a.OwnerID,
		ContactAddress:    a.ContactAddress,
		WalletBalance:     domain.FromMinorUnits(a.Balance),
		BalanceMinorUnits: a.Balance,
		Version:           a.Version,
		CreatedAt:         a.CreatedAt,
	}
}

// BalanceResponse represents the caller's balance.
type BalanceResponse struct {
	WalletBalance     decimal.Decimal `json:"wallet_balance"`
	BalanceMinorUnits int64           `json:"balance_minor_units"`
	Version           int64           `json:"version"`
}

// BalanceFromDomain converts domain account to a balance response.
func BalanceFromDomain(a *domain.Account) *BalanceResponse {
	return &BalanceResponse{
		WalletBalance:     domain.FromMinorUnits(a.Balance),
		BalanceMinorUnits: a.Balance,
		Version:           a.Version,
	}
}

// MovementResponse represents one history entry in API responses.
type MovementResponse struct {
	ID               string          `json:"id"`
	Type             string          `json:"type"`
	Amount           decimal.Decimal `json:"amount"`
	AmountMinorUnits int64           `json:"amount_minor_units"`
	Counterparty     string          `json:"counterparty"`
	ReferenceID      string          `json:"reference_id"`
	BalanceAfter     decimal.Decimal `json:"balance_after"`
	CreatedAt        time.Time       `json:"created_at"`
}

// MovementFromDomain converts domain movement to response.
func MovementFromDomain(m *domain.Movement) *MovementResponse {
	return &MovementResponse{
		ID:               m.ID,
		Type:             string(m.Direction),
		Amount:           domain.FromMinorUnits(m.Amount),
		AmountMinorUnits: m.Amount,
		Counterparty:     m.CounterpartyAddress,
		ReferenceID:      m.ReferenceID,
		BalanceAfter:     domain.FromMinorUnits(m.BalanceAfter),
		CreatedAt:        m.CreatedAt,
	}
}

// TransactionsResponse is the caller's balance with a page of history.
type TransactionsResponse struct {
	WalletBalance decimal.Decimal     `json:"wallet_balance"`
	Transactions  []*MovementResponse `json:"transactions"`
}

// TransactionsFromDomain converts the account and its movements to response.
func TransactionsFromDomain(a *domain.Account, movements []*domain.Movement) *TransactionsResponse {
	result := make([]*MovementResponse, len(movements))
	for i, m := range movements {
		result[i] = MovementFromDomain(m)
	}
	return &TransactionsResponse{
		WalletBalance: domain.FromMinorUnits(a.Balance),
		Transactions:  result,
	}
}

// TransferResponse represents a committed or replayed transfer.
type TransferResponse struct {
	Message     string `json:"message"`
	ReferenceID string `json:"reference_id"`
	Idempotent  bool   `json:"idempotent,omitempty"`
	// WalletBalance is omitted on replays.
	WalletBalance *decimal.Decimal `json:"wallet_balance,omitempty"`
}

// TransferFromDomain converts a transfer result to response.
func TransferFromDomain(r *domain.TransferResult) *TransferResponse {
	resp := &TransferResponse{
		Message:     "Transfer successful",
		ReferenceID: r.ReferenceID,
		Idempotent:  r.Replayed,
	}
	if !r.Replayed {
		balance := domain.FromMinorUnits(r.SenderBalance)
		resp.WalletBalance = &balance
	}
	return resp
}

// ConsistencyResponse reports ledger-wide totals.
type ConsistencyResponse struct {
	Status        string `json:"status"`
	Consistent    bool   `json:"consistent"`
	TotalBalance  int64  `json:"total_balance"`
	TotalCredits  int64  `json:"total_credits"`
	TotalDebits   int64  `json:"total_debits"`
	SystemCredits int64  `json:"system_credits"`
}

// ConsistencyFromDomain converts ledger totals to response.
func ConsistencyFromDomain(t domain.LedgerTotals) *ConsistencyResponse {
	status := "consistent"
	if !t.Consistent() {
		status = "inconsistent"
	}
	return &ConsistencyResponse{
		Status:        status,
		Consistent:    t.Consistent(),
		TotalBalance:  t.TotalBalance,
		TotalCredits:  t.TotalCredits,
		TotalDebits:   t.TotalDebits,
		SystemCredits: t.SystemCredits,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

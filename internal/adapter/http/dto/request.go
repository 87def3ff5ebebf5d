package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/usecase"
)

// OpenAccountRequest represents a request to open the caller's account.
type OpenAccountRequest struct {
	ContactAddress string `json:"contact_address"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput(ownerID string, signupCredit int64) usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		OwnerID:        ownerID,
		ContactAddress: r.ContactAddress,
		InitialCredit:  signupCredit,
	}
}

// TransferRequest represents a request to move funds to another account.
// Amount is in major units and accepts a JSON number or string.
type TransferRequest struct {
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input, rejecting amounts that cannot be
// represented in minor units.
func (r *TransferRequest) ToUseCaseInput(callerID, idempotencyKey string) (usecase.TransferInput, error) {
	if r.To == "" {
		return usecase.TransferInput{}, domain.ErrInvalidAddress
	}

	amount, err := domain.ToMinorUnits(r.Amount)
	if err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		CallerID:         callerID,
		RecipientAddress: r.To,
		Amount:           amount,
		IdempotencyToken: idempotencyKey,
	}, nil
}

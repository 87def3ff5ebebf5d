package usecase

import (
	"context"
	"errors"

	"github.com/iho/walletledger/internal/domain"
)

var (
	// ErrInconsistentLedger is returned when balances disagree with movements.
	ErrInconsistentLedger = errors.New("ledger is inconsistent: balances do not match movements")
)

// LedgerUseCase handles ledger-wide operations.
type LedgerUseCase struct {
	auditor LedgerAuditor
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(auditor LedgerAuditor) *LedgerUseCase {
	return &LedgerUseCase{
		auditor: auditor,
	}
}

// CheckConsistency verifies that the sum of balances equals system credits,
// i.e. transfers neither created nor destroyed money.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (domain.LedgerTotals, error) {
	totals, err := uc.auditor.Totals(ctx)
	if err != nil {
		return domain.LedgerTotals{}, domain.Internal("ledger totals", err)
	}

	if !totals.Consistent() {
		return totals, ErrInconsistentLedger
	}

	return totals, nil
}

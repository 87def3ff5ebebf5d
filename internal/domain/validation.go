package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidAddress  = errors.New("invalid contact address")
	ErrInvalidOwnerID  = errors.New("invalid owner id")
	ErrAmountTooLarge  = errors.New("amount exceeds maximum allowed")
	ErrAmountPrecision = errors.New("amount has more than two decimal places")
)

// Validation constants
const (
	// MinorUnitExponent is the number of decimal places between major and
	// minor units.
	MinorUnitExponent = 2
	// MaxTransferAmount caps a single movement in minor units.
	MaxTransferAmount int64 = 100_000_000_000
	MaxOwnerIDLength        = 128
)

var addressRegex = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// NormalizeAddress trims whitespace and separators commonly typed in phone numbers.
func NormalizeAddress(address string) string {
	r := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")
	return r.Replace(strings.TrimSpace(address))
}

// ValidateContactAddress validates a normalized contact address.
func ValidateContactAddress(address string) error {
	if !addressRegex.MatchString(address) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return nil
}

// ValidateOwnerID validates an opaque owner identity.
func ValidateOwnerID(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidOwnerID)
	}
	if len(ownerID) > MaxOwnerIDLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidOwnerID, MaxOwnerIDLength)
	}
	return nil
}

// ValidateAmount validates an amount in minor units.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxTransferAmount {
		return fmt.Errorf("%w: maximum is %d minor units", ErrAmountTooLarge, MaxTransferAmount)
	}
	return nil
}

// ToMinorUnits converts a major-unit amount such as "12.50" to minor units.
func ToMinorUnits(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() {
		return 0, ErrInvalidAmount
	}

	shifted := amount.Shift(MinorUnitExponent)
	if !shifted.Equal(shifted.Truncate(0)) {
		return 0, ErrAmountPrecision
	}

	if shifted.GreaterThan(decimal.NewFromInt(MaxTransferAmount)) {
		return 0, fmt.Errorf("%w: maximum is %s", ErrAmountTooLarge, FromMinorUnits(MaxTransferAmount))
	}

	return shifted.IntPart(), nil
}

// ParseMajorUnits parses a decimal string in major units into minor units.
func ParseMajorUnits(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	return ToMinorUnits(d)
}

// FromMinorUnits converts minor units back to a major-unit decimal.
func FromMinorUnits(amount int64) decimal.Decimal {
	return decimal.New(amount, -MinorUnitExponent)
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	const maxPageSize = 100
	const defaultPageSize = 20

	if limit <= 0 {
		limit = defaultPageSize
	}

	if limit > maxPageSize {
		limit = maxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

package services

import (
	"github.com/shopspring/decimal"
)

// DefaultPlatformFeeBPS is the platform's cut in basis points (5%).
const DefaultPlatformFeeBPS = 500

var hundred = decimal.NewFromInt(100)

// FeeCalculator converts checkout amounts to minor units and derives the
// platform fee from the same minor-unit integer.
type FeeCalculator struct {
	rate decimal.Decimal
}

// NewFeeCalculator returns a calculator charging bps basis points. Values
// outside [0, 10000) fall back to DefaultPlatformFeeBPS.
func NewFeeCalculator(bps int64) FeeCalculator {
	if bps < 0 || bps >= 10000 {
		bps = DefaultPlatformFeeBPS
	}
	return FeeCalculator{rate: decimal.New(bps, -4)}
}

// Rate is the fee as a fraction, e.g. 0.05.
func (f FeeCalculator) Rate() decimal.Decimal { return f.rate }

// ToMinor converts a positive major-unit amount with at most two decimal
// places to integer minor units.
func ToMinor(amount decimal.Decimal) (int64, error) {
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return 0, ErrInvalidAmount
	}
	minor := amount.Mul(hundred).Round(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, ErrInvalidAmount
	}
	return minor.IntPart(), nil
}

// PlatformFee returns round(minor * rate), half away from zero. The result is
// always strictly below minor.
func (f FeeCalculator) PlatformFee(minor int64) int64 {
	if minor <= 0 {
		return 0
	}
	fee := decimal.NewFromInt(minor).Mul(f.rate).Round(0).IntPart()
	if fee >= minor {
		fee = minor - 1
	}
	return fee
}

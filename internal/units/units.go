// Package units converts between human token amounts and integer base units
// using exact decimal arithmetic.
package units

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a human-entered amount. The amount must be a finite,
// strictly positive decimal representable with at most decimals fractional
// digits.
func ParseAmount(s string, decimals int32) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q is not a number: %w", s, err)
	}
	if d.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("amount %q must be positive", s)
	}
	if !d.Shift(decimals).IsInteger() {
		return decimal.Zero, fmt.Errorf("amount %q has more than %d fractional digits", s, decimals)
	}
	return d, nil
}

// MaxUint256Bits is the width of an EVM uint256 word.
const MaxUint256Bits = 256

// ToBaseUnits scales a human amount to base units (amount × 10^decimals).
// The result must fit in a uint256; larger values would be truncated by
// the ABI encoder.
func ToBaseUnits(amount decimal.Decimal, decimals int32) (*big.Int, error) {
	scaled := amount.Shift(decimals)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("amount %s is not representable with %d decimals", amount.String(), decimals)
	}
	base := scaled.BigInt()
	if base.Sign() < 0 || base.BitLen() > MaxUint256Bits {
		return nil, fmt.Errorf("amount %s does not fit in uint256", amount.String())
	}
	return base, nil
}

// FromBaseUnits converts base units back to a human amount.
func FromBaseUnits(value *big.Int, decimals int32) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -decimals)
}

// Format renders an amount trimmed to at most maxFrac fractional digits,
// rounding down so a displayed balance never exceeds the real one.
func Format(amount decimal.Decimal, maxFrac int32) string {
	return amount.RoundDown(maxFrac).String()
}

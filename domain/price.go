package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// DefaultTickScale is the number of decimal places one tick represents (0.01)
const DefaultTickScale int32 = 2

// Price is a fixed-point price expressed in integer ticks.
// Ladders key on Price, never on floats, so equal prices always compare equal.
type Price int64

// ParsePrice converts a non-negative decimal string to ticks at the given scale.
// "100.25" at scale 2 is 10025. Precision finer than one tick is rejected.
func ParsePrice(s string, scale int32) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: price %q: %v", ErrParse, s, err)
	}
	return PriceFromDecimal(d, scale)
}

// maxPriceDigits is the number of decimal digits in math.MaxInt64
const maxPriceDigits = 19

// PriceFromDecimal converts an already-parsed decimal to ticks.
// Magnitude and precision are checked on the coefficient and exponent before
// any rescaling, so inputs like "1e900000000" fail without expanding.
func PriceFromDecimal(d decimal.Decimal, scale int32) (Price, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: price %s is negative", ErrParse, priceText(d))
	}
	if d.IsZero() {
		return 0, nil
	}

	digits := int64(len(d.Coefficient().Text(10)))
	exp := int64(d.Exponent()) + int64(scale) // exponent once shifted to ticks
	if digits+exp > maxPriceDigits {
		return 0, fmt.Errorf("%w: price %s overflows", ErrParse, priceText(d))
	}
	// A non-zero coefficient of n digits has fewer than n trailing zeros
	if exp < 0 && -exp >= digits {
		return 0, fmt.Errorf("%w: price %s is finer than tick scale %d", ErrParse, priceText(d), scale)
	}

	ticks := d.Shift(scale)
	if !ticks.IsInteger() {
		return 0, fmt.Errorf("%w: price %s is finer than tick scale %d", ErrParse, priceText(d), scale)
	}
	if !ticks.BigInt().IsInt64() {
		return 0, fmt.Errorf("%w: price %s overflows", ErrParse, priceText(d))
	}
	return Price(ticks.IntPart()), nil
}

// priceText renders d for error messages. Decimal.String expands the exponent,
// so extreme exponents are shown in scientific form instead.
func priceText(d decimal.Decimal) string {
	if e := d.Exponent(); e > maxPriceDigits || e < -2*maxPriceDigits {
		return fmt.Sprintf("%se%d", d.Coefficient(), e)
	}
	return d.String()
}

// Decimal returns the price as a decimal at the given scale
func (p Price) Decimal(scale int32) decimal.Decimal {
	return decimal.New(int64(p), -scale)
}

// Format renders the price with exactly scale decimal places
func (p Price) Format(scale int32) string {
	return p.Decimal(scale).StringFixed(scale)
}

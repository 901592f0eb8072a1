package ledger

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Amounts are stored as int64 minor units (cents). Decimal is used at the
// edges: parsing operator input and applying exchange rates.

// ParseAmount converts a decimal string like "12.34" to positive cents.
// More than two fractional digits, zero, negative and malformed input are
// all rejected.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if d.Exponent() < -2 {
		return 0, fmt.Errorf("%w: %q has sub-cent precision", ErrInvalidAmount, s)
	}
	cents := d.Shift(2)
	if !cents.IsInteger() || !cents.IsPositive() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return cents.IntPart(), nil
}

// FormatCents renders cents as a plain two-decimal string.
func FormatCents(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// validCurrency reports whether code is a 3-letter uppercase currency code.
func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

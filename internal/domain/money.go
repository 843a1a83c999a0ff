package domain

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

// ─── Money ──────────────────────────────────────────────────────────────────
// Amounts are stored as int64 paise (minor currency units). Conversion to
// and from rupee decimals happens only at the API boundary, exactly.

var paiseFactor = decimal.NewFromInt(100)

// ToPaise converts a rupee amount to paise. It fails when the amount is
// not positive or carries sub-paisa precision.
func ToPaise(amount decimal.Decimal) (int64, error) {
	if amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	p := amount.Mul(paiseFactor)
	if !p.IsInteger() {
		return 0, fmt.Errorf("%w: sub-paisa precision in %s", ErrInvalidAmount, amount)
	}
	return p.IntPart(), nil
}

// FromPaise converts paise back to a rupee decimal.
func FromPaise(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(paiseFactor)
}

// FormatRupees renders paise as a plain rupee string, e.g. "500.00".
func FormatRupees(paise int64) string {
	return FromPaise(paise).StringFixed(2)
}

// ─── Phone ──────────────────────────────────────────────────────────────────

var phonePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidPhone reports whether phone is exactly 10 digits.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

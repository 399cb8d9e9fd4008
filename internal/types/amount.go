package types

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// AmountFromDecimalString converts user-facing decimal input into integer
// minor units using the asset's declared decimal places. All downstream
// amount math is integer-only; this is the single point where decimal input
// is parsed.
func AmountFromDecimalString(input string, decimals uint32) (uint64, error) {
	d, err := decimal.NewFromString(input)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", input, err)
	}
	if d.IsNegative() {
		return 0, fmt.Errorf("amount must not be negative")
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", input, decimals)
	}

	max := decimal.NewFromUint64(math.MaxUint64)
	if shifted.Cmp(max) > 0 {
		return 0, fmt.Errorf("amount %q overflows minor units", input)
	}

	return shifted.BigInt().Uint64(), nil
}

// AmountToDecimalString renders integer minor units back into a user-facing
// decimal string.
func AmountToDecimalString(amount uint64, decimals uint32) string {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals)).String()
}

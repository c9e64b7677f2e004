package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a human decimal amount string ("1.5") into the
// asset's smallest unit given its decimals. Rejects zero, negative, and
// amounts with more fractional digits than the asset carries.
func ParseAmount(amount string, decimals int) (*big.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.Sign() <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %s", amount)
	}

	shifted := d.Shift(int32(decimals))
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, decimals)
	}

	return shifted.BigInt(), nil
}

// FormatAmount renders a smallest-unit quantity as a human decimal string
// with the trailing zeros trimmed, e.g. 1500000000000000000 wei -> "1.5".
func FormatAmount(value *big.Int, decimals int) string {
	if value == nil {
		return "0"
	}
	return decimal.NewFromBigInt(value, -int32(decimals)).String()
}

// FormatAmountWithSymbol appends the asset symbol: "1.5 ETH".
func FormatAmountWithSymbol(value *big.Int, decimals int, symbol string) string {
	if symbol == "" {
		return FormatAmount(value, decimals)
	}
	return FormatAmount(value, decimals) + " " + symbol
}

package settlement

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// Asset decimal places on either side of the bridge.
const (
	SolDecimals int32 = 9 // lamports per SOL
	ZecDecimals int32 = 8 // zatoshis per ZEC
)

// parseAmountOut converts 1Click's destination amount to zatoshis. The raw
// field already carries minor units; the formatted field is a decimal ZEC
// string and is used only when the raw field is absent.
func parseAmountOut(raw, formatted string) (uint64, error) {
	if raw != "" {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return 0, fmt.Errorf("parse amount out %q: %w", raw, err)
		}
		return decimalToUint64(d)
	}
	return ParseMinorUnits(formatted, ZecDecimals)
}

// ParseMinorUnits converts a formatted decimal amount into integer minor
// units, truncating sub-unit precision.
func ParseMinorUnits(formatted string, decimals int32) (uint64, error) {
	if formatted == "" {
		return 0, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(formatted)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", formatted, err)
	}
	return decimalToUint64(d.Shift(decimals).Truncate(0))
}

// FormatMinorUnits renders integer minor units as a decimal amount string.
func FormatMinorUnits(units uint64, decimals int32) string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), -decimals).String()
}

func decimalToUint64(d decimal.Decimal) (uint64, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("negative amount %s", d)
	}
	bi := d.BigInt()
	if !bi.IsUint64() {
		return 0, fmt.Errorf("amount %s out of range", d)
	}
	return bi.Uint64(), nil
}

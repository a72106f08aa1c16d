package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// FromFixed interprets value as an integer scaled by 10^decimals.
func FromFixed(value *big.Int, decimals uint8) decimal.Decimal {
	if value == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// FormatUnits renders a native integer as a decimal string with exactly
// decimals fractional digits.
func FormatUnits(value *big.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.String()
	}
	sign := value.Sign()
	abs := new(big.Int).Abs(value)
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(abs, denom)
	text := rat.FloatString(int(decimals))
	if sign < 0 {
		return "-" + text
	}
	return text
}

// NormalizeBalance converts a native balance into 18-decimal fixed point.
func NormalizeBalance(balance *big.Int, decimals uint8) (*big.Int, error) {
	if balance == nil {
		return nil, fmt.Errorf("%w: nil balance", ErrInvalidAmount)
	}
	if balance.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative balance %s", ErrInvalidAmount, balance.String())
	}
	return ToFixed(FromFixed(balance, decimals), Scale, Exact)
}

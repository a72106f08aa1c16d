package fixedpoint

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// One is 1.0 in 18-decimal fixed point.
var One = new(big.Int).Exp(big.NewInt(10), big.NewInt(Scale), nil)

// RateOrDefault returns the rate, or 1 when it is not set.
func RateOrDefault(rate decimal.NullDecimal) decimal.Decimal {
	if !rate.Valid {
		return decimal.NewFromInt(1)
	}
	return rate.Decimal
}

// ScaleByRate multiplies an 18-decimal normalized amount by a price rate
// and rounds the product up to an integer.
func ScaleByRate(normalized string, rate decimal.NullDecimal) (*big.Int, error) {
	r := RateOrDefault(rate)
	if r.IsNegative() {
		return nil, fmt.Errorf("%w: negative price rate %s", ErrInvalidAmount, r.String())
	}
	amount, err := ToScaled18(normalized)
	if err != nil {
		return nil, err
	}
	scaled := decimal.NewFromBigInt(amount, 0).Mul(r)
	return ToFixed(scaled, 0, RoundUp)
}

// ScaleBalance normalizes a native balance to 18 decimals and applies its
// price rate.
func ScaleBalance(balance *big.Int, decimals uint8, rate decimal.NullDecimal) (*big.Int, error) {
	if balance == nil {
		return nil, fmt.Errorf("%w: nil balance", ErrInvalidAmount)
	}
	if balance.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative balance %s", ErrInvalidAmount, balance.String())
	}
	return ScaleByRate(FormatUnits(balance, decimals), rate)
}

// RateToFixed converts a price rate to 18-decimal fixed point for the
// invariant solver.
func RateToFixed(rate decimal.NullDecimal) (*big.Int, error) {
	r := RateOrDefault(rate)
	if r.IsNegative() {
		return nil, fmt.Errorf("%w: negative price rate %s", ErrInvalidAmount, r.String())
	}
	return ToFixed(r, Scale, Exact)
}

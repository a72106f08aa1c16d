package impact

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"phantomImpact/internal/stablemath"
)

var ampPrecision = decimal.NewFromInt(stablemath.AmpPrecision)

// AdjustAmp scales the raw amplification coefficient by the invariant's
// amp precision (1000). This is unrelated to the 18-decimal scale.
func AdjustAmp(amp decimal.Decimal) (*big.Int, error) {
	if amp.IsNegative() {
		return nil, fmt.Errorf("%w: negative amplification %s", ErrInvalidAmount, amp.String())
	}
	scaled := amp.Mul(ampPrecision)
	if !scaled.IsInteger() {
		return nil, fmt.Errorf("%w: amplification %s has more precision than %d", ErrInvalidAmount, amp.String(), stablemath.AmpPrecision)
	}
	return scaled.BigInt(), nil
}

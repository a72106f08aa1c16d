package impact

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"phantomImpact/internal/fixedpoint"
	"phantomImpact/internal/stablemath"
)

// EstimateJoin quotes the pool shares an actual join would mint, including
// swap fees on the non-proportional part. It stands in for an external
// quote when none is available.
func EstimateJoin(amounts []string, pool PoolState) (decimal.Decimal, error) {
	if err := validateSchema(pool, amounts); err != nil {
		return decimal.Zero, err
	}
	balances, err := ScaledBalances(pool)
	if err != nil {
		return decimal.Zero, err
	}
	amp, err := AdjustAmp(pool.Amp)
	if err != nil {
		return decimal.Zero, err
	}
	deltas, err := fixedpoint.DenormAmounts(amounts, pool.Decimals)
	if err != nil {
		return decimal.Zero, err
	}
	rates, err := PriceRates(pool)
	if err != nil {
		return decimal.Zero, err
	}
	fee, err := fixedpoint.ToFixed(pool.SwapFee, fixedpoint.Scale, fixedpoint.Exact)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swap fee: %w", err)
	}

	amountsIn := make([]*big.Int, len(deltas))
	for i, delta := range deltas {
		if amountsIn[i], err = stablemath.Upscale(delta, pool.Decimals[i], rates[i]); err != nil {
			return decimal.Zero, fmt.Errorf("%w: amount %d: %v", ErrSolverContractViolation, i, err)
		}
	}

	out, err := stablemath.BPTOutGivenExactTokensIn(amp, balances, amountsIn, pool.TotalSupply, fee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSolverContractViolation, err)
	}
	return fixedpoint.FromFixed(out, fixedpoint.Scale), nil
}

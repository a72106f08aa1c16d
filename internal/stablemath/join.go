package stablemath

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// BPTOutGivenExactTokensIn returns the pool shares minted by an actual
// join, charging the swap fee on the part of each amount that exceeds the
// proportional deposit. balances and amountsIn are rate-adjusted 18-decimal
// values.
func BPTOutGivenExactTokensIn(amp *big.Int, balances, amountsIn []*big.Int, totalSupply, swapFee *big.Int) (*big.Int, error) {
	n := len(balances)
	if n == 0 || len(amountsIn) != n {
		return nil, fmt.Errorf("%w: balances=%d amounts=%d", ErrLengthMismatch, n, len(amountsIn))
	}
	a256, err := toU256("amp", amp)
	if err != nil {
		return nil, err
	}
	if err := checkAmp(a256); err != nil {
		return nil, err
	}
	xp, err := toU256Slice("balances", balances)
	if err != nil {
		return nil, err
	}
	in, err := toU256Slice("amountsIn", amountsIn)
	if err != nil {
		return nil, err
	}
	supply, err := toU256("totalSupply", totalSupply)
	if err != nil {
		return nil, err
	}
	fee, err := toU256("swapFee", swapFee)
	if err != nil {
		return nil, err
	}
	if !fee.Lt(one) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSwapFee, fee.ToBig().String())
	}

	var a arith
	sum := new(uint256.Int)
	for _, b := range xp {
		sum = a.add(sum, b)
	}
	if a.err != nil {
		return nil, a.err
	}
	if sum.IsZero() {
		return nil, fmt.Errorf("%w: empty pool", ErrZeroBalance)
	}
	for i, b := range xp {
		if b.IsZero() {
			return nil, fmt.Errorf("%w: balance %d", ErrZeroBalance, i)
		}
	}

	ratios := make([]*uint256.Int, n)
	invariantRatioWithFees := new(uint256.Int)
	for i := range xp {
		weight := a.divDown(xp[i], sum)
		ratios[i] = a.divDown(a.add(xp[i], in[i]), xp[i])
		invariantRatioWithFees = a.add(invariantRatioWithFees, a.mulDown(ratios[i], weight))
	}

	newBalances := make([]*uint256.Int, n)
	for i := range xp {
		amount := in[i]
		if ratios[i].Gt(invariantRatioWithFees) {
			nonTaxable := a.mulDown(xp[i], a.sub(invariantRatioWithFees, one))
			taxable := a.sub(in[i], nonTaxable)
			amount = a.add(nonTaxable, a.mulDown(taxable, a.sub(one, fee)))
		}
		newBalances[i] = a.add(xp[i], amount)
	}
	if a.err != nil {
		return nil, a.err
	}

	current, err := invariant(a256, xp, true)
	if err != nil {
		return nil, err
	}
	next, err := invariant(a256, newBalances, false)
	if err != nil {
		return nil, err
	}
	ratio := a.divDown(next, current)
	if a.err != nil {
		return nil, a.err
	}
	if !ratio.Gt(one) {
		return new(big.Int), nil
	}
	out := a.mulDown(supply, a.sub(ratio, one))
	if a.err != nil {
		return nil, a.err
	}
	return out.ToBig(), nil
}

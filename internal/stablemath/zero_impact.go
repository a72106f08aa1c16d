package stablemath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrInvalidSwapFee is returned when the swap fee is not below 100%.
var ErrInvalidSwapFee = errors.New("invalid swap fee")

// MaxDecimals is the largest token decimal count that can be upscaled to
// 18-decimal fixed point.
const MaxDecimals = 18

// PhantomStable evaluates phantom-stable pool math. It has no state and is
// safe for concurrent use.
type PhantomStable struct{}

// BPTForTokensZeroPriceImpact implements the invariant solver contract.
func (PhantomStable) BPTForTokensZeroPriceImpact(
	balances []*big.Int,
	decimals []uint8,
	deltas []*big.Int,
	totalSupply *big.Int,
	amp *big.Int,
	swapFee *big.Int,
	rates []*big.Int,
) (*big.Int, error) {
	return BPTForTokensZeroPriceImpact(balances, decimals, deltas, totalSupply, amp, swapFee, rates)
}

// BPTForTokensZeroPriceImpact returns the pool shares a deposit of deltas
// would mint if it were priced at the current marginal rate of the
// invariant, i.e. with no price impact.
//
// balances are rate-adjusted 18-decimal values. deltas are in each token's
// native precision and are upscaled by decimals, then multiplied by rates.
// An empty rates slice means every rate is 1. totalSupply and the result
// are 18-decimal; amp is pre-scaled by AmpPrecision. swapFee (18-decimal)
// is validated but does not affect the zero-impact quantity.
//
// For each token the marginal invariant gain is
//
//	∂D/∂x_i = (Ann + Q/x_i) / (Ann - 1 + (n+1)·Q/D),  Q = D^(n+1) / (n^n·P)
//
// and the result is Σ amount_i·∂D/∂x_i · totalSupply / D, rounded down.
func BPTForTokensZeroPriceImpact(
	balances []*big.Int,
	decimals []uint8,
	deltas []*big.Int,
	totalSupply *big.Int,
	amp *big.Int,
	swapFee *big.Int,
	rates []*big.Int,
) (*big.Int, error) {
	n := len(balances)
	if n == 0 {
		return nil, fmt.Errorf("%w: no tokens", ErrLengthMismatch)
	}
	if len(decimals) != n || len(deltas) != n {
		return nil, fmt.Errorf("%w: balances=%d decimals=%d deltas=%d", ErrLengthMismatch, n, len(decimals), len(deltas))
	}
	if len(rates) != 0 && len(rates) != n {
		return nil, fmt.Errorf("%w: balances=%d rates=%d", ErrLengthMismatch, n, len(rates))
	}

	xp, err := toU256Slice("balances", balances)
	if err != nil {
		return nil, err
	}
	amounts, err := toU256Slice("deltas", deltas)
	if err != nil {
		return nil, err
	}
	supply, err := toU256("totalSupply", totalSupply)
	if err != nil {
		return nil, err
	}
	a256, err := toU256("amp", amp)
	if err != nil {
		return nil, err
	}
	if err := checkAmp(a256); err != nil {
		return nil, err
	}
	fee, err := toU256("swapFee", swapFee)
	if err != nil {
		return nil, err
	}
	if !fee.Lt(one) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidSwapFee, fee.ToBig().String())
	}
	rateValues := make([]*uint256.Int, n)
	for i := range rateValues {
		rateValues[i] = one
	}
	if len(rates) != 0 {
		if rateValues, err = toU256Slice("rates", rates); err != nil {
			return nil, err
		}
	}

	var a arith
	scaled := make([]*uint256.Int, n)
	for i := range amounts {
		if decimals[i] > MaxDecimals {
			return nil, fmt.Errorf("%w: token %d has %d decimals", ErrOutOfRange, i, decimals[i])
		}
		scaled[i] = a.upscale(amounts[i], decimals[i], rateValues[i])
	}
	if a.err != nil {
		return nil, a.err
	}

	d, err := invariant(a256, xp, true)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return new(big.Int), nil
	}

	derivs, err := invariantDerivatives(a256, xp, d)
	if err != nil {
		return nil, err
	}

	total := new(uint256.Int)
	for i := range scaled {
		if scaled[i].IsZero() {
			continue
		}
		total = a.add(total, a.mulDown(scaled[i], derivs[i]))
	}
	out := a.div(a.mul(total, supply), d, false)
	if a.err != nil {
		return nil, a.err
	}
	return out.ToBig(), nil
}

// InvariantDerivatives returns ∂D/∂x_i for every token as 18-decimal fixed
// point. At a perfectly balanced state every entry is 1e18.
func InvariantDerivatives(amp *big.Int, balances []*big.Int) ([]*big.Int, error) {
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
	d, err := invariant(a256, xp, true)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, fmt.Errorf("%w: empty pool", ErrZeroBalance)
	}
	derivs, err := invariantDerivatives(a256, xp, d)
	if err != nil {
		return nil, err
	}
	out := make([]*big.Int, len(derivs))
	for i, v := range derivs {
		out[i] = v.ToBig()
	}
	return out, nil
}

func invariantDerivatives(amp *uint256.Int, xp []*uint256.Int, d *uint256.Int) ([]*uint256.Int, error) {
	var a arith
	n := uint256.NewInt(uint64(len(xp)))

	q := d.Clone()
	for _, x := range xp {
		q = a.div(a.mul(q, d), a.mul(x, n), false)
	}

	ann := a.div(a.mul(a.mul(amp, n), one), ampPrecision, false)
	denom := a.add(
		a.sub(ann, one),
		a.divDown(a.mul(uint256.NewInt(uint64(len(xp)+1)), q), d),
	)

	out := make([]*uint256.Int, len(xp))
	for i, x := range xp {
		num := a.add(ann, a.divDown(q, x))
		out[i] = a.divDown(num, denom)
	}
	if a.err != nil {
		return nil, a.err
	}
	return out, nil
}

// Upscale converts a native token amount to 18-decimal fixed point and
// applies an 18-decimal rate, rounding down.
func Upscale(amount *big.Int, decimals uint8, rate *big.Int) (*big.Int, error) {
	if decimals > MaxDecimals {
		return nil, fmt.Errorf("%w: %d decimals", ErrOutOfRange, decimals)
	}
	v, err := toU256("amount", amount)
	if err != nil {
		return nil, err
	}
	r := one
	if rate != nil {
		if r, err = toU256("rate", rate); err != nil {
			return nil, err
		}
	}
	var a arith
	out := a.upscale(v, decimals, r)
	if a.err != nil {
		return nil, a.err
	}
	return out.ToBig(), nil
}

func (a *arith) upscale(amount *uint256.Int, decimals uint8, rate *uint256.Int) *uint256.Int {
	return a.mulDown(a.mul(amount, pow10(uint64(MaxDecimals-decimals))), rate)
}

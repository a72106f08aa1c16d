package impact

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"phantomImpact/internal/fixedpoint"
	"phantomImpact/internal/stablemath"
)

// RatioPrecision is the number of fractional digits kept when dividing
// quoted shares by zero-impact shares.
const RatioPrecision = 36

// Solver computes zero-price-impact pool shares. Implementations must be
// pure and safe for concurrent use.
//
// balances are rate-adjusted 18-decimal values, deltas are native token
// amounts, totalSupply and the result are 18-decimal, amp is pre-scaled by
// 1000, swapFee and rates are 18-decimal.
type Solver interface {
	BPTForTokensZeroPriceImpact(
		balances []*big.Int,
		decimals []uint8,
		deltas []*big.Int,
		totalSupply *big.Int,
		amp *big.Int,
		swapFee *big.Int,
		rates []*big.Int,
	) (*big.Int, error)
}

// SolverFunc adapts a function to the Solver interface.
type SolverFunc func(balances []*big.Int, decimals []uint8, deltas []*big.Int, totalSupply, amp, swapFee *big.Int, rates []*big.Int) (*big.Int, error)

func (f SolverFunc) BPTForTokensZeroPriceImpact(balances []*big.Int, decimals []uint8, deltas []*big.Int, totalSupply, amp, swapFee *big.Int, rates []*big.Int) (*big.Int, error) {
	return f(balances, decimals, deltas, totalSupply, amp, swapFee, rates)
}

// Calculator computes deposit price impact for phantom-stable pools. It
// holds no per-call state; one Calculator may serve concurrent callers.
type Calculator struct {
	solver Solver
	logger *zap.Logger
}

// NewCalculator builds a Calculator. A nil solver selects the built-in
// phantom-stable math.
func NewCalculator(solver Solver, logger *zap.Logger) *Calculator {
	if solver == nil {
		solver = stablemath.PhantomStable{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{solver: solver, logger: logger}
}

// PriceImpact returns the price impact of req against pool, defined as
// 1 - quoted/zeroImpact. The ratio is not clamped and may be negative.
func (c *Calculator) PriceImpact(req DepositRequest, pool PoolState) (Result, error) {
	if req.QuotedShares == nil || strings.TrimSpace(*req.QuotedShares) == "" {
		return unavailable(ReasonQuoteMissing), nil
	}
	if pool.Kind == Withdrawal {
		return notApplicable(), nil
	}
	if pool.Kind != Deposit && pool.Kind != "" {
		return Result{}, fmt.Errorf("%w: operation kind %q", ErrSchemaMismatch, pool.Kind)
	}

	quoted, err := fixedpoint.ParseSigned(*req.QuotedShares)
	if err != nil {
		return Result{}, fmt.Errorf("quoted shares: %w", err)
	}
	if quoted.IsNegative() {
		return unavailable(ReasonQuotePending), nil
	}

	zeroImpact, err := c.ZeroImpactShares(req.Amounts, pool)
	if err != nil {
		return Result{}, err
	}
	if zeroImpact.IsZero() {
		return Result{}, ErrDivisionByZero
	}

	ratio := decimal.NewFromInt(1).Sub(quoted.DivRound(zeroImpact, RatioPrecision))
	c.logger.Debug("price impact",
		zap.String("quoted_shares", quoted.String()),
		zap.String("zero_impact_shares", zeroImpact.String()),
		zap.String("ratio", ratio.String()),
	)
	return measured(ratio, zeroImpact, quoted), nil
}

// ZeroImpactShares returns the pool shares the deposit would mint at the
// pool's current marginal price, in whole-share units.
func (c *Calculator) ZeroImpactShares(amounts []string, pool PoolState) (decimal.Decimal, error) {
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
	fee, err := fixedpoint.ToFixed(pool.SwapFee, fixedpoint.Scale, fixedpoint.Exact)
	if err != nil {
		return decimal.Zero, fmt.Errorf("swap fee: %w", err)
	}
	rates, err := PriceRates(pool)
	if err != nil {
		return decimal.Zero, err
	}

	decimals := append([]uint8(nil), pool.Decimals...)
	supply := new(big.Int).Set(pool.TotalSupply)

	out, err := c.solver.BPTForTokensZeroPriceImpact(balances, decimals, deltas, supply, amp, fee, rates)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrSolverContractViolation, err)
	}
	if out == nil {
		return decimal.Zero, fmt.Errorf("%w: nil result", ErrSolverContractViolation)
	}
	if out.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("%w: negative result %s", ErrSolverContractViolation, out.String())
	}

	shares := fixedpoint.FromFixed(out, fixedpoint.Scale)
	c.logger.Debug("zero impact shares", zap.String("shares", shares.String()), zap.Int("tokens", len(balances)))
	return shares, nil
}

// ScaledBalances returns every pool balance normalized to 18 decimals and
// multiplied by its price rate, rounded up.
func ScaledBalances(pool PoolState) ([]*big.Int, error) {
	if len(pool.Decimals) != pool.TokenCount() {
		return nil, fmt.Errorf("%w: %d balances, %d decimals", ErrSchemaMismatch, pool.TokenCount(), len(pool.Decimals))
	}
	if len(pool.PriceRates) != 0 && len(pool.PriceRates) != pool.TokenCount() {
		return nil, fmt.Errorf("%w: %d balances, %d price rates", ErrSchemaMismatch, pool.TokenCount(), len(pool.PriceRates))
	}
	out := make([]*big.Int, pool.TokenCount())
	for i, balance := range pool.Balances {
		scaled, err := fixedpoint.ScaleBalance(balance, pool.Decimals[i], rateAt(pool, i))
		if err != nil {
			return nil, fmt.Errorf("balance %d: %w", i, err)
		}
		out[i] = scaled
	}
	return out, nil
}

// PriceRates returns one 18-decimal rate per token, defaulting to 1.
func PriceRates(pool PoolState) ([]*big.Int, error) {
	out := make([]*big.Int, pool.TokenCount())
	for i := range out {
		rate, err := fixedpoint.RateToFixed(rateAt(pool, i))
		if err != nil {
			return nil, fmt.Errorf("price rate %d: %w", i, err)
		}
		out[i] = rate
	}
	return out, nil
}

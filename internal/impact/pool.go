package impact

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// OperationKind is the liquidity operation a price impact is requested for.
type OperationKind string

const (
	Deposit    OperationKind = "join"
	Withdrawal OperationKind = "exit"
)

// ParseOperationKind accepts join/exit and their long forms. Empty input is a deposit.
func ParseOperationKind(input string) (OperationKind, error) {
	switch input {
	case "", "join", "deposit":
		return Deposit, nil
	case "exit", "withdraw", "withdrawal":
		return Withdrawal, nil
	default:
		return "", fmt.Errorf("unsupported operation kind: %s", input)
	}
}

// PoolState is a read-only snapshot of a phantom-stable pool.
type PoolState struct {
	// Balances are in each token's native precision.
	Balances []*big.Int
	Decimals []uint8
	// TotalSupply is 18-decimal fixed point.
	TotalSupply *big.Int
	// Amp is the unscaled amplification coefficient.
	Amp     decimal.Decimal
	SwapFee decimal.Decimal
	// PriceRates holds one optional rate per token; unset entries and an
	// empty slice mean 1.
	PriceRates []decimal.NullDecimal
	Kind       OperationKind
}

// TokenCount returns the number of pool tokens.
func (p PoolState) TokenCount() int {
	return len(p.Balances)
}

// DepositRequest is a single user join: one human-readable amount per pool
// token and the share amount an external quote returned for it. A nil or
// empty QuotedShares means no quote is available.
type DepositRequest struct {
	Amounts      []string
	QuotedShares *string
}

func validateSchema(pool PoolState, amounts []string) error {
	n := pool.TokenCount()
	if n == 0 {
		return fmt.Errorf("%w: pool has no tokens", ErrSchemaMismatch)
	}
	if len(pool.Decimals) != n {
		return fmt.Errorf("%w: %d balances, %d decimals", ErrSchemaMismatch, n, len(pool.Decimals))
	}
	if len(amounts) != n {
		return fmt.Errorf("%w: %d balances, %d amounts", ErrSchemaMismatch, n, len(amounts))
	}
	if len(pool.PriceRates) != 0 && len(pool.PriceRates) != n {
		return fmt.Errorf("%w: %d balances, %d price rates", ErrSchemaMismatch, n, len(pool.PriceRates))
	}
	if pool.TotalSupply == nil {
		return fmt.Errorf("%w: missing total supply", ErrInvalidAmount)
	}
	return nil
}

func rateAt(pool PoolState, i int) decimal.NullDecimal {
	if len(pool.PriceRates) == 0 {
		return decimal.NullDecimal{}
	}
	return pool.PriceRates[i]
}

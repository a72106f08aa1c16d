package fixedpoint

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the canonical number of fractional digits for cross-token math.
const Scale = 18

// MaxBits is the widest integer the pool math accepts.
const MaxBits = 256

// ErrInvalidAmount marks malformed or unsupported numeric input.
var ErrInvalidAmount = errors.New("invalid amount")

// Rounding selects the direction used when a value has more fractional
// digits than the target scale.
type Rounding int

const (
	// Exact rejects any conversion that would drop nonzero digits.
	Exact Rounding = iota
	// RoundDown truncates toward zero.
	RoundDown
	// RoundUp rounds away from zero.
	RoundUp
)

func (r Rounding) String() string {
	switch r {
	case Exact:
		return "exact"
	case RoundDown:
		return "down"
	case RoundUp:
		return "up"
	default:
		return fmt.Sprintf("rounding(%d)", int(r))
	}
}

// ParseAmount parses a non-negative human-readable amount such as "12.5".
// Empty input is zero.
func ParseAmount(input string) (decimal.Decimal, error) {
	d, err := ParseSigned(input)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative value %q", ErrInvalidAmount, input)
	}
	return d, nil
}

// ParseSigned parses a plain decimal string that may carry a leading minus.
// Exponent notation is rejected.
func ParseSigned(input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return decimal.Zero, nil
	}
	if !isPlainDecimal(input) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, input)
	}
	d, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidAmount, input, err)
	}
	return d, nil
}

// ToFixed returns value scaled by 10^scale as an integer.
func ToFixed(value decimal.Decimal, scale uint8, rounding Rounding) (*big.Int, error) {
	shifted := value.Shift(int32(scale))
	switch rounding {
	case Exact:
		if !shifted.IsInteger() {
			return nil, fmt.Errorf("%w: %s has more than %d fractional digits", ErrInvalidAmount, value.String(), scale)
		}
	case RoundDown:
		shifted = shifted.RoundDown(0)
	case RoundUp:
		shifted = shifted.RoundUp(0)
	default:
		return nil, fmt.Errorf("unsupported rounding: %s", rounding)
	}
	return shifted.BigInt(), nil
}

// ToNative converts a human-readable amount into the token's native
// integer precision. Amounts with more fractional digits than the token
// supports are rejected.
func ToNative(input string, decimals uint8) (*big.Int, error) {
	amount, err := ParseAmount(input)
	if err != nil {
		return nil, err
	}
	native, err := ToFixed(amount, decimals, Exact)
	if err != nil {
		return nil, err
	}
	if native.BitLen() > MaxBits {
		return nil, fmt.Errorf("%w: %q exceeds %d bits", ErrInvalidAmount, input, MaxBits)
	}
	return native, nil
}

// ToScaled18 converts a human-readable amount into 18-decimal fixed point.
func ToScaled18(input string) (*big.Int, error) {
	return ToNative(input, Scale)
}

// DenormAmounts converts one human-readable amount per token into native
// integers using the matching decimals entry.
func DenormAmounts(amounts []string, decimals []uint8) ([]*big.Int, error) {
	if len(amounts) != len(decimals) {
		return nil, fmt.Errorf("amounts and decimals length mismatch: %d != %d", len(amounts), len(decimals))
	}
	out := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		native, err := ToNative(amount, decimals[i])
		if err != nil {
			return nil, fmt.Errorf("amount %d: %w", i, err)
		}
		out[i] = native
	}
	return out, nil
}

func isPlainDecimal(input string) bool {
	if input[0] == '-' {
		input = input[1:]
	}
	digits := 0
	dots := 0
	for _, r := range input {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '.':
			dots++
		default:
			return false
		}
	}
	return digits > 0 && dots <= 1
}

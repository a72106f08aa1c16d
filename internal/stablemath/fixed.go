package stablemath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

var (
	// ErrOverflow is returned when an intermediate value exceeds 256 bits.
	ErrOverflow = errors.New("uint256 overflow")
	// ErrUnderflow is returned when a subtraction would go below zero.
	ErrUnderflow = errors.New("uint256 underflow")
	// ErrDivisionByZero is returned on a zero divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrOutOfRange is returned for nil or negative inputs.
	ErrOutOfRange = errors.New("value out of range")
)

var one = uint256.NewInt(1e18)

// arith performs checked uint256 operations and keeps the first failure.
// Once err is set every further operation returns zero.
type arith struct {
	err error
}

func (a *arith) fail(err error) *uint256.Int {
	if a.err == nil {
		a.err = err
	}
	return new(uint256.Int)
}

func (a *arith) add(x, y *uint256.Int) *uint256.Int {
	if a.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow {
		return a.fail(ErrOverflow)
	}
	return z
}

func (a *arith) sub(x, y *uint256.Int) *uint256.Int {
	if a.err != nil {
		return new(uint256.Int)
	}
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return a.fail(ErrUnderflow)
	}
	return z
}

func (a *arith) mul(x, y *uint256.Int) *uint256.Int {
	if a.err != nil {
		return new(uint256.Int)
	}
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow {
		return a.fail(ErrOverflow)
	}
	return z
}

// div is integer division with an explicit rounding direction.
func (a *arith) div(x, y *uint256.Int, roundUp bool) *uint256.Int {
	if a.err != nil {
		return new(uint256.Int)
	}
	if y.IsZero() {
		return a.fail(ErrDivisionByZero)
	}
	if !roundUp {
		return new(uint256.Int).Div(x, y)
	}
	if x.IsZero() {
		return new(uint256.Int)
	}
	z := new(uint256.Int).Sub(x, uint256.NewInt(1))
	z.Div(z, y)
	return z.Add(z, uint256.NewInt(1))
}

func (a *arith) mulDown(x, y *uint256.Int) *uint256.Int {
	return a.div(a.mul(x, y), one, false)
}

func (a *arith) divDown(x, y *uint256.Int) *uint256.Int {
	return a.div(a.mul(x, one), y, false)
}

func toU256(name string, v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("%w: %s is nil", ErrOutOfRange, name)
	}
	if v.Sign() < 0 {
		return nil, fmt.Errorf("%w: %s is negative", ErrOutOfRange, name)
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: %s", ErrOverflow, name)
	}
	return u, nil
}

func toU256Slice(name string, values []*big.Int) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(values))
	for i, v := range values {
		u, err := toU256(fmt.Sprintf("%s[%d]", name, i), v)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

func pow10(exp uint64) *uint256.Int {
	return new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(exp))
}

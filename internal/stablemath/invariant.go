package stablemath

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

const (
	// AmpPrecision is the fixed scale applied to the amplification parameter.
	AmpPrecision = 1000
	// MinAmp and MaxAmp bound the unscaled amplification parameter.
	MinAmp = 1
	MaxAmp = 5000

	maxIterations = 255
)

var (
	ErrInvariantDidntConverge = errors.New("stable invariant didn't converge")
	ErrLengthMismatch         = errors.New("input length mismatch")
	ErrZeroBalance            = errors.New("zero balance")
	ErrAmpOutOfRange          = errors.New("amplification out of range")
)

var ampPrecision = uint256.NewInt(AmpPrecision)

// CalculateInvariant computes D for the stable invariant
//
//	A·n^n·S + D = A·D·n^n + D^(n+1) / (n^n·P)
//
// by Newton iteration. amp is pre-scaled by AmpPrecision and balances are
// 18-decimal fixed point.
func CalculateInvariant(amp *big.Int, balances []*big.Int, roundUp bool) (*big.Int, error) {
	a, err := toU256("amp", amp)
	if err != nil {
		return nil, err
	}
	if err := checkAmp(a); err != nil {
		return nil, err
	}
	xp, err := toU256Slice("balances", balances)
	if err != nil {
		return nil, err
	}
	d, err := invariant(a, xp, roundUp)
	if err != nil {
		return nil, err
	}
	return d.ToBig(), nil
}

func checkAmp(amp *uint256.Int) error {
	lo := uint256.NewInt(MinAmp * AmpPrecision)
	hi := uint256.NewInt(MaxAmp * AmpPrecision)
	if amp.Lt(lo) || amp.Gt(hi) {
		return fmt.Errorf("%w: %s", ErrAmpOutOfRange, amp.ToBig().String())
	}
	return nil
}

func invariant(amp *uint256.Int, balances []*uint256.Int, roundUp bool) (*uint256.Int, error) {
	if len(balances) == 0 {
		return nil, fmt.Errorf("%w: no balances", ErrLengthMismatch)
	}

	var a arith
	sum := new(uint256.Int)
	for _, b := range balances {
		sum = a.add(sum, b)
	}
	if a.err != nil {
		return nil, a.err
	}
	if sum.IsZero() {
		return new(uint256.Int), nil
	}
	for i, b := range balances {
		if b.IsZero() {
			return nil, fmt.Errorf("%w: balance %d", ErrZeroBalance, i)
		}
	}

	n := uint256.NewInt(uint64(len(balances)))
	nPlusOne := uint256.NewInt(uint64(len(balances) + 1))
	ampTimesTotal := a.mul(amp, n)

	inv := sum.Clone()
	for i := 0; i < maxIterations; i++ {
		pD := a.mul(balances[0], n)
		for j := 1; j < len(balances); j++ {
			pD = a.div(a.mul(a.mul(pD, balances[j]), n), inv, roundUp)
		}
		prev := inv
		inv = a.div(
			a.add(
				a.mul(a.mul(n, inv), inv),
				a.div(a.mul(a.mul(ampTimesTotal, sum), pD), ampPrecision, roundUp),
			),
			a.add(
				a.mul(nPlusOne, inv),
				a.div(a.mul(a.sub(ampTimesTotal, ampPrecision), pD), ampPrecision, !roundUp),
			),
			roundUp,
		)
		if a.err != nil {
			return nil, a.err
		}
		if withinOne(inv, prev) {
			return inv, nil
		}
	}
	return nil, ErrInvariantDidntConverge
}

func withinOne(x, y *uint256.Int) bool {
	var diff uint256.Int
	if x.Gt(y) {
		diff.Sub(x, y)
	} else {
		diff.Sub(y, x)
	}
	return diff.Cmp(uint256.NewInt(1)) <= 0
}

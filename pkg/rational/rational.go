// Package rational provides bounded-denominator rational approximation and
// least-common-multiple helpers for exact population arithmetic.
//
// Floats are convenient for building and drawing Simpson trees, but they
// cannot exactly represent "X out of Y people" counts. [Approximate] snaps a
// float to the closest fraction whose denominator stays under a cap, using
// continued-fraction convergents; [LCM] then combines the denominators of a
// whole tree into the smallest consistent integer population size.
//
// All arithmetic is done with math/big, so results are exact regardless of
// magnitude.
package rational

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// DefaultMaxDenominator is the default cap used when approximating floats.
// One million comfortably recovers every "nice" proportion a Simpson tree
// produces while keeping later LCMs small.
const DefaultMaxDenominator = 1_000_000

var (
	// ErrNotFinite is returned by [Approximate] for NaN or infinite input.
	ErrNotFinite = errors.New("value must be finite")

	// ErrInvalidLimit is returned when the denominator cap is less than 1.
	ErrInvalidLimit = errors.New("denominator limit must be at least 1")
)

// Approximate returns the closest rational to x whose denominator does not
// exceed maxDen. The result is the best rational approximation in the
// continued-fraction sense: no fraction with a denominator within the cap
// lies strictly closer to x.
//
// The conversion is lossy by design - floats are snapped to "nice"
// fractions. Approximate(0.1, 1000) yields exactly 1/10 even though the
// float 0.1 is not exactly one tenth.
func Approximate(x float64, maxDen int64) (*big.Rat, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("%w (got %v)", ErrNotFinite, x)
	}
	if maxDen < 1 {
		return nil, fmt.Errorf("%w (got %d)", ErrInvalidLimit, maxDen)
	}

	exact := new(big.Rat).SetFloat64(x)
	return LimitDenominator(exact, big.NewInt(maxDen)), nil
}

// LimitDenominator returns the closest rational to r whose denominator does
// not exceed maxDen. If r already satisfies the cap it is returned
// unchanged (the same pointer). Ties between the two candidate bounds
// resolve toward the even-indexed convergent, matching the conventional
// best-approximation algorithm.
func LimitDenominator(r *big.Rat, maxDen *big.Int) *big.Rat {
	if r.Denom().Cmp(maxDen) <= 0 {
		return r
	}

	// Walk the continued-fraction expansion of r, accumulating convergents
	// p/q until the denominator would exceed the cap.
	p0, q0 := big.NewInt(0), big.NewInt(1)
	p1, q1 := big.NewInt(1), big.NewInt(0)
	n := new(big.Int).Set(r.Num())
	d := new(big.Int).Set(r.Denom())

	for {
		a := new(big.Int).Div(n, d)
		q2 := new(big.Int).Add(q0, new(big.Int).Mul(a, q1))
		if q2.Cmp(maxDen) > 0 {
			break
		}
		p2 := new(big.Int).Add(p0, new(big.Int).Mul(a, p1))
		p0, q0, p1, q1 = p1, q1, p2, q2
		n, d = d, new(big.Int).Sub(n, new(big.Int).Mul(a, d))
	}

	// Two candidates straddle r: the last convergent p1/q1 and the best
	// semiconvergent (p0+k*p1)/(q0+k*q1) that still fits the cap.
	k := new(big.Int).Sub(maxDen, q0)
	k.Div(k, q1)

	semiNum := new(big.Int).Add(p0, new(big.Int).Mul(k, p1))
	semiDen := new(big.Int).Add(q0, new(big.Int).Mul(k, q1))
	semi := new(big.Rat).SetFrac(semiNum, semiDen)
	conv := new(big.Rat).SetFrac(p1, q1)

	diffSemi := new(big.Rat).Sub(semi, r)
	diffSemi.Abs(diffSemi)
	diffConv := new(big.Rat).Sub(conv, r)
	diffConv.Abs(diffConv)

	if diffConv.Cmp(diffSemi) <= 0 {
		return conv
	}
	return semi
}

// LCM returns the least common multiple of the given integers. The LCM of
// an empty set is 1. Signs are ignored; the result is always positive.
func LCM(nums ...*big.Int) *big.Int {
	acc := big.NewInt(1)
	for _, n := range nums {
		if n.Sign() == 0 {
			continue
		}
		abs := new(big.Int).Abs(n)
		gcd := new(big.Int).GCD(nil, nil, acc, abs)
		acc.Mul(acc, abs)
		acc.Div(acc, gcd)
	}
	return acc
}

/*

This file contains exact integer square root and geometric mean over
arbitrary-precision unsigned integers, plus the guarded multiplication and
rounded division helpers the IL engine builds on.

sdkmath.Int is bounded at 256 bits and panics past the bound, so every
multiplication that can grow is checked here and surfaced as ErrOverflow
instead.

*/

package fixedpoint

import (
	"errors"
	"math/big"

	sdkmath "cosmossdk.io/math"
)

// Error definitions for zero-tolerance error handling
var (
	ErrNilInput       = errors.New("input is nil")
	ErrNegativeInput  = errors.New("input is negative")
	ErrOverflow       = errors.New("result exceeds the 256-bit integer range")
	ErrDivisionByZero = errors.New("division by zero")
)

// maxIntBits is the bit width sdkmath.Int can represent.
const maxIntBits = 256

// IntegerSqrt returns floor(sqrt(n)) via Newton iteration.
// Contract: IntegerSqrt(0) = 0; for 0 < n < 4 the result is 1; otherwise
// the iteration starts at x0 = n and descends monotonically until y >= x,
// terminating in O(log n) steps. The result r satisfies r^2 <= n < (r+1)^2.
func IntegerSqrt(n sdkmath.Int) (sdkmath.Int, error) {
	if n.IsNil() {
		return sdkmath.Int{}, ErrNilInput
	}
	return integerSqrtBig(n.BigInt())
}

// GeometricMean returns floor(sqrt(a * b)). The intermediate product is
// taken over big.Int so inputs near the 256-bit bound do not panic; the
// root always fits back in range.
func GeometricMean(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.Int{}, ErrNilInput
	}
	if a.IsNegative() || b.IsNegative() {
		return sdkmath.Int{}, ErrNegativeInput
	}

	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return integerSqrtBig(product)
}

// SafeMul multiplies two non-negative integers, reporting ErrOverflow
// instead of panicking when the product leaves the representable range.
func SafeMul(a, b sdkmath.Int) (sdkmath.Int, error) {
	if a.IsNil() || b.IsNil() {
		return sdkmath.Int{}, ErrNilInput
	}
	product := new(big.Int).Mul(a.BigInt(), b.BigInt())
	if product.BitLen() > maxIntBits {
		return sdkmath.Int{}, ErrOverflow
	}
	return sdkmath.NewIntFromBigInt(product), nil
}

// DivRoundHalfUp divides num by den rounding half away from zero on the
// magnitude. den must be positive.
func DivRoundHalfUp(num, den sdkmath.Int) (sdkmath.Int, error) {
	if num.IsNil() || den.IsNil() {
		return sdkmath.Int{}, ErrNilInput
	}
	if den.IsZero() {
		return sdkmath.Int{}, ErrDivisionByZero
	}
	if den.IsNegative() {
		return sdkmath.Int{}, ErrNegativeInput
	}

	bn := num.BigInt()
	bd := den.BigInt()
	half := new(big.Int).Quo(bd, big.NewInt(2))
	adjusted := new(big.Int)
	if bn.Sign() < 0 {
		adjusted.Sub(bn, half)
	} else {
		adjusted.Add(bn, half)
	}
	return sdkmath.NewIntFromBigInt(adjusted.Quo(adjusted, bd)), nil
}

// integerSqrtBig is the Newton iteration core shared by IntegerSqrt and
// GeometricMean. y = (x + n/x) / 2 descends monotonically from x0 = n.
func integerSqrtBig(n *big.Int) (sdkmath.Int, error) {
	if n.Sign() < 0 {
		return sdkmath.Int{}, ErrNegativeInput
	}
	if n.Sign() == 0 {
		return sdkmath.ZeroInt(), nil
	}
	if n.Cmp(big.NewInt(4)) < 0 {
		return sdkmath.OneInt(), nil
	}

	x := new(big.Int).Set(n)
	y := new(big.Int)
	two := big.NewInt(2)
	for {
		y.Quo(n, x)
		y.Add(y, x)
		y.Quo(y, two)
		if y.Cmp(x) >= 0 {
			return sdkmath.NewIntFromBigInt(x), nil
		}
		x.Set(y)
	}
}

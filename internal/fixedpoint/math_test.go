package fixedpoint

import (
	"math/big"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegerSqrtSmallValues(t *testing.T) {
	cases := []struct {
		input    int64
		expected int64
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{10_000, 100},
		{121_000_000, 11_000},
	}

	for _, tc := range cases {
		result, err := IntegerSqrt(sdkmath.NewInt(tc.input))
		require.NoError(t, err, "input %d", tc.input)
		assert.Equal(t, tc.expected, result.Int64(), "sqrt(%d)", tc.input)
	}
}

func TestIntegerSqrtFloorProperty(t *testing.T) {
	// r^2 <= n < (r+1)^2 must hold for every result.
	inputs := []int64{5, 17, 99, 1_000, 123_456, 999_999_937, 1<<62 - 1}
	for _, n := range inputs {
		r, err := IntegerSqrt(sdkmath.NewInt(n))
		require.NoError(t, err)

		lower := r.Mul(r)
		upper := r.AddRaw(1).Mul(r.AddRaw(1))
		assert.True(t, lower.LTE(sdkmath.NewInt(n)), "r^2 > n for n=%d", n)
		assert.True(t, upper.GT(sdkmath.NewInt(n)), "(r+1)^2 <= n for n=%d", n)
	}
}

func TestIntegerSqrtLargeValue(t *testing.T) {
	// 10^40 is far past int64 but well within 256 bits.
	n, ok := sdkmath.NewIntFromString("10000000000000000000000000000000000000000")
	require.True(t, ok)

	r, err := IntegerSqrt(n)
	require.NoError(t, err)
	assert.Equal(t, "100000000000000000000", r.String())
}

func TestIntegerSqrtNilInput(t *testing.T) {
	_, err := IntegerSqrt(sdkmath.Int{})
	assert.ErrorIs(t, err, ErrNilInput)
}

func TestGeometricMean(t *testing.T) {
	cases := []struct {
		a, b, expected int64
	}{
		{4, 9, 6},
		{2, 8, 4},
		{0, 100, 0},
		{7, 7, 7},
		{10, 1000, 100},
	}

	for _, tc := range cases {
		result, err := GeometricMean(sdkmath.NewInt(tc.a), sdkmath.NewInt(tc.b))
		require.NoError(t, err)
		assert.Equal(t, tc.expected, result.Int64(), "gm(%d, %d)", tc.a, tc.b)
	}
}

func TestGeometricMeanNearBound(t *testing.T) {
	// Both inputs near the 256-bit bound: the intermediate product would
	// panic inside sdkmath, but the big.Int path must succeed.
	huge := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 250))

	result, err := GeometricMean(huge, huge)
	require.NoError(t, err)
	assert.Equal(t, huge.String(), result.String())
}

func TestGeometricMeanRejectsNegative(t *testing.T) {
	_, err := GeometricMean(sdkmath.NewInt(-4), sdkmath.NewInt(9))
	assert.ErrorIs(t, err, ErrNegativeInput)
}

func TestSafeMul(t *testing.T) {
	result, err := SafeMul(sdkmath.NewInt(1_000_000), sdkmath.NewInt(1_000_000))
	require.NoError(t, err)
	assert.Equal(t, "1000000000000", result.String())
}

func TestSafeMulOverflow(t *testing.T) {
	big200 := sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	_, err := SafeMul(big200, big200)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDivRoundHalfUp(t *testing.T) {
	cases := []struct {
		num, den, expected int64
	}{
		{4, 2, 2},
		{5, 2, 3},   // exactly half rounds away from zero
		{7, 2, 4},
		{-5, 2, -3}, // half away from zero on the negative side
		{-4, 2, -2},
		{9954_75, 100, 9955},
		{0, 7, 0},
	}

	for _, tc := range cases {
		result, err := DivRoundHalfUp(sdkmath.NewInt(tc.num), sdkmath.NewInt(tc.den))
		require.NoError(t, err)
		assert.Equal(t, tc.expected, result.Int64(), "%d / %d", tc.num, tc.den)
	}
}

func TestDivRoundHalfUpDivisionByZero(t *testing.T) {
	_, err := DivRoundHalfUp(sdkmath.NewInt(10), sdkmath.ZeroInt())
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestDivRoundHalfUpNegativeDenominator(t *testing.T) {
	_, err := DivRoundHalfUp(sdkmath.NewInt(10), sdkmath.NewInt(-2))
	assert.ErrorIs(t, err, ErrNegativeInput)
}

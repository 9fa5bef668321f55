package ilengine

import (
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldvault/ilguard/internal/types"
)

func ratio(a, b int64) types.AssetRatio {
	return types.AssetRatio{
		AssetAAmount: sdkmath.NewInt(a),
		AssetBAmount: sdkmath.NewInt(b),
	}
}

func TestPriceRatioUnchanged(t *testing.T) {
	r := ratio(1_000_000, 1_000_000)

	result, err := PriceRatio(r, r)
	require.NoError(t, err)
	assert.Equal(t, RatioScale, result.Int64())
}

func TestPriceRatioDoubling(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)
	current := ratio(2_000_000, 1_000_000)

	result, err := PriceRatio(initial, current)
	require.NoError(t, err)
	assert.Equal(t, 2*RatioScale, result.Int64())
}

func TestPriceRatioDenominatorsCancel(t *testing.T) {
	// The same pair price expressed with different absolute scales must
	// produce the same ratio.
	initial := ratio(3_000_000, 1_500_000)
	current := ratio(6_000_000, 1_500_000)
	resultA, err := PriceRatio(initial, current)
	require.NoError(t, err)

	initialRescaled := ratio(6_000_000, 3_000_000)
	currentRescaled := ratio(12_000_000, 3_000_000)
	resultB, err := PriceRatio(initialRescaled, currentRescaled)
	require.NoError(t, err)

	assert.Equal(t, resultA.Int64(), resultB.Int64())
}

func TestPriceRatioRejectsZeroDenominator(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)
	bad := types.AssetRatio{
		AssetAAmount: sdkmath.NewInt(1_000_000),
		AssetBAmount: sdkmath.ZeroInt(),
	}

	_, err := PriceRatio(initial, bad)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestPriceRatioRejectsNilComponents(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)

	_, err := PriceRatio(initial, types.AssetRatio{})
	assert.ErrorIs(t, err, ErrInvalidRatio)
}

func TestImpermanentLossZeroWhenUnchanged(t *testing.T) {
	// An unchanged pair price must yield exactly zero, whatever the scale.
	for _, r := range []types.AssetRatio{
		ratio(1_000_000, 1_000_000),
		ratio(3_141_592, 2_718_281),
		ratio(42, 7),
	} {
		il, err := ImpermanentLossBps(r, r)
		require.NoError(t, err)
		assert.Equal(t, int64(0), il)
	}
}

func TestImpermanentLossKnownScenario(t *testing.T) {
	// Asset A appreciates 21% against B: 2*sqrt(1.21)/2.21 - 1 = -0.45%.
	initial := ratio(1_000_000, 1_000_000)
	current := ratio(1_210_000, 1_000_000)

	il, err := ImpermanentLossBps(initial, current)
	require.NoError(t, err)
	assert.Equal(t, int64(-45), il)
}

func TestImpermanentLossQuartering(t *testing.T) {
	// Pair price falls to a quarter: 2*0.5/1.25 - 1 = -20%.
	initial := ratio(4_000_000, 1_000_000)
	current := ratio(1_000_000, 1_000_000)

	il, err := ImpermanentLossBps(initial, current)
	require.NoError(t, err)
	assert.Equal(t, int64(-2000), il)
}

func TestImpermanentLossNeverPositive(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)
	for _, curA := range []int64{100_000, 500_000, 900_000, 1_100_000, 2_000_000, 10_000_000} {
		il, err := ImpermanentLossBps(initial, ratio(curA, 1_000_000))
		require.NoError(t, err)
		assert.LessOrEqual(t, il, int64(0), "curA=%d", curA)
	}
}

func TestImpermanentLossSymmetric(t *testing.T) {
	// IL depends only on the ratio, so r and 1/r give the same loss.
	initial := ratio(1_000_000, 1_000_000)

	up, err := ImpermanentLossBps(initial, ratio(4_000_000, 1_000_000))
	require.NoError(t, err)
	down, err := ImpermanentLossBps(initial, ratio(250_000, 1_000_000))
	require.NoError(t, err)

	assert.Equal(t, up, down)
}

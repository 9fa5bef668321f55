package ilengine

import (
	"math"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldvault/ilguard/internal/types"
)

func testPool(reserveA, reserveB, totalLP int64) types.PoolState {
	return types.PoolState{
		PoolID:        1,
		ReserveA:      sdkmath.NewInt(reserveA),
		ReserveB:      sdkmath.NewInt(reserveB),
		TotalLPTokens: sdkmath.NewInt(totalLP),
	}
}

func TestHodlVsLp(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)
	current := ratio(1_210_000, 1_000_000)

	hodl, lp, err := HodlVsLp(
		sdkmath.NewInt(1000),
		initial, current,
		sdkmath.NewInt(100),
		testPool(1000, 1000, 1000),
	)
	require.NoError(t, err)

	// HODL: 500 units of A appreciate 21%, 500 units of B are flat.
	assert.Equal(t, int64(1105), hodl.Int64())
	// LP: 10% of reserves priced at current oracle prices.
	assert.Equal(t, int64(221), lp.Int64())
}

func TestHodlVsLpUnchangedPrices(t *testing.T) {
	r := ratio(1_000_000, 1_000_000)

	hodl, _, err := HodlVsLp(
		sdkmath.NewInt(1000),
		r, r,
		sdkmath.NewInt(100),
		testPool(1000, 1000, 1000),
	)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), hodl.Int64())
}

func TestHodlVsLpValidation(t *testing.T) {
	initial := ratio(1_000_000, 1_000_000)
	current := ratio(1_210_000, 1_000_000)
	pool := testPool(1000, 1000, 1000)

	_, _, err := HodlVsLp(sdkmath.ZeroInt(), initial, current, sdkmath.NewInt(100), pool)
	assert.ErrorIs(t, err, ErrInvalidDeposit)

	_, _, err = HodlVsLp(sdkmath.NewInt(1000), initial, current, sdkmath.NewInt(-1), pool)
	assert.ErrorIs(t, err, ErrInvalidLPTokens)

	// A position cannot own more of the pool than exists.
	_, _, err = HodlVsLp(sdkmath.NewInt(1000), initial, current, sdkmath.NewInt(2000), pool)
	assert.ErrorIs(t, err, ErrInvalidLPTokens)

	empty := testPool(1000, 1000, 0)
	_, _, err = HodlVsLp(sdkmath.NewInt(1000), initial, current, sdkmath.NewInt(100), empty)
	assert.ErrorIs(t, err, ErrInvalidPoolState)
}

func TestEstimatedLoss(t *testing.T) {
	record := types.ILRecord{
		HodlValue: sdkmath.NewInt(1105),
		LPValue:   sdkmath.NewInt(900),
	}
	assert.Equal(t, int64(205), EstimatedLoss(record).Int64())

	// The LP side outperforming holding clamps to zero.
	record.LPValue = sdkmath.NewInt(1200)
	assert.True(t, EstimatedLoss(record).IsZero())

	assert.True(t, EstimatedLoss(types.ILRecord{}).IsZero())
}

func TestProtectionAPR(t *testing.T) {
	// Net benefit of 100 on a 1000 principal over a full year is 10% APR.
	apr, err := ProtectionAPR(10, 110, 365, 1000)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, apr, 1e-9)

	// Fees exceeding prevented losses produce a negative APR.
	apr, err = ProtectionAPR(110, 10, 365, 1000)
	require.NoError(t, err)
	assert.InDelta(t, -10.0, apr, 1e-9)
}

func TestProtectionAPRValidation(t *testing.T) {
	_, err := ProtectionAPR(math.NaN(), 100, 30, 1000)
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = ProtectionAPR(10, math.Inf(1), 30, 1000)
	assert.ErrorIs(t, err, ErrNotFinite)

	_, err = ProtectionAPR(10, 100, 30, 0)
	assert.Error(t, err)

	_, err = ProtectionAPR(10, 100, 0, 1000)
	assert.Error(t, err)
}

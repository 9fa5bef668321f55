package ilengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldvault/ilguard/internal/types"
)

func testParams() types.ProtectionParameters {
	return types.ProtectionParameters{
		MaxILBps:            300,
		LowUrgencyMaxBps:    100,
		MediumUrgencyMaxBps: 500,
		AlertFraction:       0.8,
		MomentumDeltaBps:    50,
		AmountTolerancePct:  0.1,
		ILTolerancePct:      5,
		GasTolerancePct:     50,
		ProofTTLSeconds:     300,
	}
}

func recordWithIL(ilBps int64) types.ILRecord {
	return types.ILRecord{PoolID: 1, ILPercentageBps: ilBps}
}

func history(ilBps ...int64) []types.ILSample {
	samples := make([]types.ILSample, 0, len(ilBps))
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	for i, il := range ilBps {
		samples = append(samples, types.ILSample{ILBps: il, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	return samples
}

func TestViolatesPolicyStrict(t *testing.T) {
	// Equality is not a violation; the comparison is on magnitudes.
	assert.False(t, ViolatesPolicy(recordWithIL(-300), 300))
	assert.False(t, ViolatesPolicy(recordWithIL(-299), 300))
	assert.True(t, ViolatesPolicy(recordWithIL(-301), 300))
	assert.True(t, ViolatesPolicy(recordWithIL(301), 300))
	assert.False(t, ViolatesPolicy(recordWithIL(0), 300))
}

func TestUrgencyTiers(t *testing.T) {
	params := testParams()

	assert.Equal(t, UrgencyLow, Urgency(0, params))
	assert.Equal(t, UrgencyLow, Urgency(100, params))
	assert.Equal(t, UrgencyMedium, Urgency(101, params))
	assert.Equal(t, UrgencyMedium, Urgency(500, params))
	assert.Equal(t, UrgencyHigh, Urgency(501, params))
}

func TestRecommendExitWhenOverLimit(t *testing.T) {
	params := testParams()
	assert.Equal(t, RecommendExit, RecommendAction(-301, 300, nil, params))
	assert.Equal(t, RecommendExit, RecommendAction(-900, 300, history(-100, -400, -900), params))
}

func TestRecommendAlertOnMomentum(t *testing.T) {
	params := testParams()

	// -250 is past 80% of the 300 limit and the magnitude grew by 70 bps
	// across the last three samples.
	rec := RecommendAction(-250, 300, history(-180, -210, -250), params)
	assert.Equal(t, RecommendAlert, rec)
}

func TestRecommendHoldWithShortHistory(t *testing.T) {
	params := testParams()

	// Same reading, but fewer than three samples skips the momentum rule.
	rec := RecommendAction(-250, 300, history(-210, -250), params)
	assert.Equal(t, RecommendHold, rec)
}

func TestRecommendHoldWhenMomentumFlat(t *testing.T) {
	params := testParams()

	// Growth of exactly MomentumDeltaBps does not trip the alert.
	rec := RecommendAction(-250, 300, history(-200, -230, -250), params)
	assert.Equal(t, RecommendHold, rec)
}

func TestRecommendHoldBelowAlertFraction(t *testing.T) {
	params := testParams()

	// -200 is below 80% of the limit, momentum is irrelevant.
	rec := RecommendAction(-200, 300, history(-50, -120, -200), params)
	assert.Equal(t, RecommendHold, rec)
}

func TestEvaluatePosition(t *testing.T) {
	params := testParams()

	assessment, err := EvaluatePosition(recordWithIL(-45), nil, params)
	require.NoError(t, err)
	assert.False(t, assessment.Violates)
	assert.Equal(t, UrgencyLow, assessment.Urgency)
	assert.Equal(t, RecommendHold, assessment.Recommendation)

	assessment, err = EvaluatePosition(recordWithIL(-850), history(-300, -550, -850), params)
	require.NoError(t, err)
	assert.True(t, assessment.Violates)
	assert.Equal(t, UrgencyHigh, assessment.Urgency)
	assert.Equal(t, RecommendExit, assessment.Recommendation)
}

func TestEvaluatePositionRejectsInvalidParameters(t *testing.T) {
	params := testParams()
	params.MaxILBps = 0

	_, err := EvaluatePosition(recordWithIL(-45), nil, params)
	assert.ErrorIs(t, err, ErrInvalidParameters)
}

func TestValidateProtectionParameters(t *testing.T) {
	assert.NoError(t, ValidateProtectionParameters(testParams()))

	broken := testParams()
	broken.AlertFraction = 1.5
	assert.Error(t, ValidateProtectionParameters(broken))

	broken = testParams()
	broken.MediumUrgencyMaxBps = 100
	assert.Error(t, ValidateProtectionParameters(broken))

	broken = testParams()
	broken.ProofTTLSeconds = 0
	assert.Error(t, ValidateProtectionParameters(broken))
}

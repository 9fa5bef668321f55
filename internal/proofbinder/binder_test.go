package proofbinder

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldvault/ilguard/internal/types"
)

func testDecision(t *testing.T) types.Decision {
	t.Helper()
	decision, err := types.NewDecision(
		"dec-001",
		"agent-alpha",
		types.ActionWithdraw,
		sdkmath.NewInt(5000),
		"pool-7",
		-320,
		250_000,
		time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return decision
}

func TestDecisionHashDeterministic(t *testing.T) {
	decision := testDecision(t)

	first, err := DecisionHash(decision)
	require.NoError(t, err)
	second, err := DecisionHash(decision)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 66) // 0x + 64 hex chars
}

func TestDecisionHashIgnoresIncidentalFields(t *testing.T) {
	// The hash covers semantic content only; a different decision ID or
	// timestamp must not change it.
	a := testDecision(t)
	b := a
	b.DecisionID = "dec-002"
	b.Timestamp = b.Timestamp.Add(time.Hour)

	hashA, err := DecisionHash(a)
	require.NoError(t, err)
	hashB, err := DecisionHash(b)
	require.NoError(t, err)

	assert.Equal(t, hashA, hashB)
}

func TestDecisionHashSensitiveToContent(t *testing.T) {
	base := testDecision(t)
	baseHash, err := DecisionHash(base)
	require.NoError(t, err)

	changed := base
	changed.Amount = sdkmath.NewInt(5001)
	changedHash, err := DecisionHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, changedHash)

	changed = base
	changed.TargetPool = "pool-8"
	changedHash, err = DecisionHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, changedHash)

	changed = base
	changed.ILImpactBps = -321
	changedHash, err = DecisionHash(changed)
	require.NoError(t, err)
	assert.NotEqual(t, baseHash, changedHash)
}

func TestDecisionHashRejectsMalformedDecision(t *testing.T) {
	_, err := DecisionHash(types.Decision{})
	assert.ErrorIs(t, err, ErrInvalidDecision)

	bad := testDecision(t)
	bad.Action = "BURN"
	_, err = DecisionHash(bad)
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

func TestBind(t *testing.T) {
	decision := testDecision(t)
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	proof, err := Bind(decision, "policy-hash-v1", 300, 5*time.Minute, now)
	require.NoError(t, err)

	expectedHash, err := DecisionHash(decision)
	require.NoError(t, err)

	assert.NotEmpty(t, proof.ProofID)
	assert.Equal(t, expectedHash, proof.DecisionHash)
	assert.Equal(t, int64(300), proof.PublicInputs.ILLimitBps)
	assert.Equal(t, "agent-alpha", proof.PublicInputs.AgentAddress)
	assert.Equal(t, "policy-hash-v1", proof.PublicInputs.PolicyHash)
	assert.NotEmpty(t, proof.AttestationBlob)
	assert.Equal(t, now.Add(5*time.Minute), proof.ExpiresAt)
}

func TestBindDistinctProofIDs(t *testing.T) {
	decision := testDecision(t)
	now := time.Now().UTC()

	first, err := Bind(decision, "policy-hash-v1", 300, time.Minute, now)
	require.NoError(t, err)
	second, err := Bind(decision, "policy-hash-v1", 300, time.Minute, now)
	require.NoError(t, err)

	assert.NotEqual(t, first.ProofID, second.ProofID)
	// Same decision, same recomputable hash.
	assert.Equal(t, first.DecisionHash, second.DecisionHash)
}

func TestBindValidation(t *testing.T) {
	decision := testDecision(t)
	now := time.Now().UTC()

	_, err := Bind(decision, "", 300, time.Minute, now)
	assert.ErrorIs(t, err, ErrInvalidPolicy)

	_, err = Bind(decision, "policy-hash-v1", 300, 0, now)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = Bind(decision, "policy-hash-v1", 300, -time.Minute, now)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	_, err = Bind(types.Decision{}, "policy-hash-v1", 300, time.Minute, now)
	assert.ErrorIs(t, err, ErrInvalidDecision)
}

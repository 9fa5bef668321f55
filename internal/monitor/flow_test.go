package monitor

import (
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shieldvault/ilguard/internal/types"
	"github.com/shieldvault/ilguard/internal/verifier"
)

var flowTestNow = time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

func flowDecision(t *testing.T) types.Decision {
	t.Helper()
	decision, err := types.NewDecision(
		"dec-flow-001",
		"agent-alpha",
		types.ActionWithdraw,
		sdkmath.NewInt(5000),
		"pool-7",
		-320,
		250_000,
		flowTestNow,
	)
	require.NoError(t, err)
	return decision
}

func flowExecution(decision types.Decision) types.ExecutionRecord {
	return types.ExecutionRecord{
		TxHash:      "0xflow",
		Action:      decision.Action,
		Amount:      decision.Amount,
		TargetPool:  decision.TargetPool,
		ILImpactBps: decision.ILImpactBps,
		GasUsed:     decision.ExpectedGas,
		Timestamp:   flowTestNow,
		BlockNumber: 7,
	}
}

func TestFlowHappyPath(t *testing.T) {
	decision := flowDecision(t)
	flow := NewFlow(decision)
	assert.Equal(t, FlowDecided, flow.State())

	require.NoError(t, flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow))
	assert.Equal(t, FlowBound, flow.State())
	assert.NotEmpty(t, flow.Proof().AttestationBlob)

	require.NoError(t, flow.AttachExecution(flowExecution(decision)))
	assert.Equal(t, FlowExecuted, flow.State())

	result, err := flow.Verify(flowTestNow, verifier.DefaultTolerances())
	require.NoError(t, err)
	assert.Equal(t, FlowVerified, flow.State())
	assert.True(t, result.Passed)
	assert.Equal(t, types.VerdictCommit, result.Action)
	assert.Equal(t, result, flow.Result())
}

func TestFlowRejectsSkippedSteps(t *testing.T) {
	decision := flowDecision(t)

	flow := NewFlow(decision)
	err := flow.AttachExecution(flowExecution(decision))
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = flow.Verify(flowTestNow, verifier.DefaultTolerances())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowRejectsRepeatedBind(t *testing.T) {
	flow := NewFlow(flowDecision(t))
	require.NoError(t, flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow))

	err := flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowVerifiesAtMostOnce(t *testing.T) {
	decision := flowDecision(t)
	flow := NewFlow(decision)
	require.NoError(t, flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow))
	require.NoError(t, flow.AttachExecution(flowExecution(decision)))

	_, err := flow.Verify(flowTestNow, verifier.DefaultTolerances())
	require.NoError(t, err)

	_, err = flow.Verify(flowTestNow, verifier.DefaultTolerances())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowRejectsExecutionWithoutTxHash(t *testing.T) {
	decision := flowDecision(t)
	flow := NewFlow(decision)
	require.NoError(t, flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow))

	execution := flowExecution(decision)
	execution.TxHash = ""
	assert.Error(t, flow.AttachExecution(execution))
	// The flow stays Bound so a corrected record can still be attached.
	assert.Equal(t, FlowBound, flow.State())
}

func TestFlowFailedVerificationStillRollsForward(t *testing.T) {
	// A ROLLBACK verdict is a completed verification, not a flow error.
	decision := flowDecision(t)
	flow := NewFlow(decision)
	require.NoError(t, flow.Bind("policy-hash-v1", 300, 5*time.Minute, flowTestNow))

	execution := flowExecution(decision)
	execution.TargetPool = "pool-9"
	require.NoError(t, flow.AttachExecution(execution))

	result, err := flow.Verify(flowTestNow, verifier.DefaultTolerances())
	require.NoError(t, err)
	assert.Equal(t, FlowVerified, flow.State())
	assert.False(t, result.Passed)
	assert.Equal(t, types.VerdictRollback, result.Action)
}

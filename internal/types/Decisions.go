/*

This file contains the decision pipeline types: the protective action
decision, the proof binding it to a policy, and the execution record
returned by the settlement layer.

*/

package types

import (
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
)

// ActionType is the closed set of protective actions a decision can carry.
type ActionType string

const (
	ActionDelegate  ActionType = "DELEGATE"
	ActionWithdraw  ActionType = "WITHDRAW"
	ActionRebalance ActionType = "REBALANCE"
)

var ErrUnknownAction = errors.New("unknown action type")

// ParseActionType validates a raw action string against the closed set.
func ParseActionType(raw string) (ActionType, error) {
	switch ActionType(raw) {
	case ActionDelegate, ActionWithdraw, ActionRebalance:
		return ActionType(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, raw)
	}
}

// Decision is an immutable protective action produced by the monitor for a
// position whose IL reading requires intervention. It is uniquely
// identified by DecisionID.
type Decision struct {
	DecisionID  string      `json:"decision_id"`
	AgentID     string      `json:"agent_id"`
	Action      ActionType  `json:"action"`
	Amount      sdkmath.Int `json:"amount"`
	TargetPool  string      `json:"target_pool"`
	ILImpactBps int64       `json:"il_impact_bps"` // IL reading that triggered the decision
	ExpectedGas uint64      `json:"expected_gas"`
	Timestamp   time.Time   `json:"timestamp"`
}

// NewDecision constructs a validated Decision. The action must be a member
// of the closed set and the amount non-negative.
func NewDecision(decisionID, agentID string, action ActionType, amount sdkmath.Int, targetPool string, ilImpactBps int64, expectedGas uint64, timestamp time.Time) (Decision, error) {
	if decisionID == "" {
		return Decision{}, errors.New("decision ID cannot be empty")
	}
	if agentID == "" {
		return Decision{}, errors.New("agent ID cannot be empty")
	}
	if _, err := ParseActionType(string(action)); err != nil {
		return Decision{}, err
	}
	if amount.IsNil() || amount.IsNegative() {
		return Decision{}, errors.New("decision amount must be a non-negative integer")
	}
	if targetPool == "" {
		return Decision{}, errors.New("target pool cannot be empty")
	}
	return Decision{
		DecisionID:  decisionID,
		AgentID:     agentID,
		Action:      action,
		Amount:      amount,
		TargetPool:  targetPool,
		ILImpactBps: ilImpactBps,
		ExpectedGas: expectedGas,
		Timestamp:   timestamp,
	}, nil
}

// PublicInputs are the fields of a proof visible to any verifier.
type PublicInputs struct {
	ILLimitBps   int64  `json:"il_limit_bps"`
	AgentAddress string `json:"agent_address"`
	PolicyHash   string `json:"policy_hash"`
}

// Proof binds a Decision to an opaque attestation with a bounded lifetime.
// Verification never inspects AttestationBlob beyond its presence, so a
// deployment may substitute a genuine zero-knowledge proof without
// changing the verification contract.
type Proof struct {
	ProofID         string       `json:"proof_id"`
	DecisionHash    string       `json:"decision_hash"` // Hex keccak256 of the canonical decision encoding
	PublicInputs    PublicInputs `json:"public_inputs"`
	AttestationBlob []byte       `json:"attestation_blob"`
	ExpiresAt       time.Time    `json:"expires_at"`
}

// ExecutionRecord is what the settlement layer reports back once the
// transaction for a decision has landed.
type ExecutionRecord struct {
	TxHash      string      `json:"tx_hash"`
	Action      ActionType  `json:"action"`
	Amount      sdkmath.Int `json:"amount"`
	TargetPool  string      `json:"target_pool"`
	ILImpactBps int64       `json:"il_impact_bps"`
	GasUsed     uint64      `json:"gas_used"`
	Timestamp   time.Time   `json:"timestamp"`
	BlockNumber uint64      `json:"block_number"`
}

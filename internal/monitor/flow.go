/*

This file contains the per-decision flow state machine. A decision moves
strictly through Decided -> Bound -> Executed -> Verified; any skipped or
repeated step is an invalid transition. The machine guarantees a decision
is verified at most once per flow.

*/

package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/shieldvault/ilguard/internal/proofbinder"
	"github.com/shieldvault/ilguard/internal/types"
	"github.com/shieldvault/ilguard/internal/verifier"
)

// FlowState tags how far a decision has progressed through the pipeline.
type FlowState string

const (
	FlowDecided  FlowState = "DECIDED"
	FlowBound    FlowState = "BOUND"
	FlowExecuted FlowState = "EXECUTED"
	FlowVerified FlowState = "VERIFIED"
)

var ErrInvalidTransition = errors.New("invalid flow transition")

// Flow carries one decision through binding, execution, and verification.
// It is not safe for concurrent use; each decision gets its own Flow.
type Flow struct {
	state     FlowState
	decision  types.Decision
	proof     types.Proof
	execution types.ExecutionRecord
	result    types.VerificationResult
}

// NewFlow starts a flow in the Decided state.
func NewFlow(decision types.Decision) *Flow {
	return &Flow{state: FlowDecided, decision: decision}
}

// State returns the flow's current state tag.
func (f *Flow) State() FlowState { return f.state }

// Decision returns the decision this flow carries.
func (f *Flow) Decision() types.Decision { return f.decision }

// Proof returns the bound proof. Only meaningful from Bound onward.
func (f *Flow) Proof() types.Proof { return f.proof }

// Execution returns the attached execution record. Only meaningful from
// Executed onward.
func (f *Flow) Execution() types.ExecutionRecord { return f.execution }

// Result returns the verification result. Only meaningful once Verified.
func (f *Flow) Result() types.VerificationResult { return f.result }

// Bind attaches an attestation to the decision, moving Decided -> Bound.
func (f *Flow) Bind(policyHash string, ilLimitBps int64, ttl time.Duration, now time.Time) error {
	if f.state != FlowDecided {
		return fmt.Errorf("%w: cannot bind from state %s", ErrInvalidTransition, f.state)
	}

	proof, err := proofbinder.Bind(f.decision, policyHash, ilLimitBps, ttl, now)
	if err != nil {
		return err
	}

	f.proof = proof
	f.state = FlowBound
	return nil
}

// AttachExecution records the venue's execution report, moving
// Bound -> Executed.
func (f *Flow) AttachExecution(execution types.ExecutionRecord) error {
	if f.state != FlowBound {
		return fmt.Errorf("%w: cannot attach execution from state %s", ErrInvalidTransition, f.state)
	}
	if execution.TxHash == "" {
		return errors.New("execution record has no transaction hash")
	}

	f.execution = execution
	f.state = FlowExecuted
	return nil
}

// Verify runs the full verification once, moving Executed -> Verified.
// A second call is an invalid transition, never a re-verification.
func (f *Flow) Verify(now time.Time, tol verifier.Tolerances) (types.VerificationResult, error) {
	if f.state != FlowExecuted {
		return types.VerificationResult{}, fmt.Errorf("%w: cannot verify from state %s", ErrInvalidTransition, f.state)
	}

	result, err := verifier.Verify(f.decision, f.execution, f.proof, now, tol)
	if err != nil {
		return types.VerificationResult{}, err
	}

	f.result = result
	f.state = FlowVerified
	return result, nil
}

/*

This file contains the verification verdict types. Mismatches are a closed
set of kinds carrying expected/actual/tolerance; the human-readable text is
derived, never stored as the source of truth.

*/

package types

import (
	"fmt"
	"time"
)

// VerdictAction is the terminal disposition of a verified execution.
type VerdictAction string

const (
	VerdictCommit   VerdictAction = "COMMIT"
	VerdictRollback VerdictAction = "ROLLBACK"
)

// MismatchKind identifies which verification check a finding belongs to.
type MismatchKind string

const (
	MismatchAction       MismatchKind = "ACTION"
	MismatchAmount       MismatchKind = "AMOUNT"
	MismatchTargetPool   MismatchKind = "TARGET_POOL"
	MismatchILImpact     MismatchKind = "IL_IMPACT"
	MismatchGasUsed      MismatchKind = "GAS_USED"
	MismatchProofExpired MismatchKind = "PROOF_EXPIRED"
	MismatchDecisionHash MismatchKind = "DECISION_HASH"
)

// Mismatch is one structured verification finding.
type Mismatch struct {
	Kind      MismatchKind `json:"kind"`
	Expected  string       `json:"expected"`
	Actual    string       `json:"actual"`
	Tolerance string       `json:"tolerance,omitempty"` // Empty for exact-match checks
}

// Describe renders the finding for logs and API responses.
func (m Mismatch) Describe() string {
	if m.Tolerance != "" {
		return fmt.Sprintf("%s mismatch: expected %s, got %s (tolerance %s)", m.Kind, m.Expected, m.Actual, m.Tolerance)
	}
	return fmt.Sprintf("%s mismatch: expected %s, got %s", m.Kind, m.Expected, m.Actual)
}

// VerificationResult is the immutable audit record produced exactly once
// per (decisionID, txHash) pair. Passed is true iff Mismatches is empty.
type VerificationResult struct {
	DecisionID string        `json:"decision_id"`
	TxHash     string        `json:"tx_hash"`
	Passed     bool          `json:"passed"`
	Mismatches []Mismatch    `json:"mismatches"`
	Action     VerdictAction `json:"action"`
	VerifiedAt time.Time     `json:"verified_at"`
}

// MismatchSummaries returns the derived human-readable view of all findings.
func (r VerificationResult) MismatchSummaries() []string {
	out := make([]string, 0, len(r.Mismatches))
	for _, m := range r.Mismatches {
		out = append(out, m.Describe())
	}
	return out
}

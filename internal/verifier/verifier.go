/*

This file contains the exhaustive tolerance-based comparison between a
decision, its bound attestation, and the claimed execution record. Every
check runs regardless of earlier outcomes; findings are data, and only
structurally malformed input is a hard error.

*/

package verifier

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/proofbinder"
	"github.com/shieldvault/ilguard/internal/types"
)

var verifyLogger = logger.GetForComponent("verifier")

var (
	ErrMalformedDecision  = errors.New("malformed decision")
	ErrMalformedExecution = errors.New("malformed execution record")
	ErrMalformedProof     = errors.New("malformed proof")
	ErrInvalidTolerance   = errors.New("invalid tolerance configuration")
)

// tolerancePPM converts a percentage tolerance into parts-per-million of
// the expected magnitude, keeping the comparison in exact integers.
const tolerancePPM = 1_000_000

// Tolerances are the allowed relative deviations, in percent of the
// decided value, before an executed field is flagged.
type Tolerances struct {
	AmountPct float64 `json:"amount_pct"`
	ILPct     float64 `json:"il_pct"`
	GasPct    float64 `json:"gas_pct"`
}

// DefaultTolerances is the baseline tolerance set: 0.1% amount, 5% IL
// impact, 50% gas.
func DefaultTolerances() Tolerances {
	return Tolerances{AmountPct: 0.1, ILPct: 5, GasPct: 50}
}

// FromParameters lifts the configured protection parameters into the
// verifier's tolerance set.
func FromParameters(params types.ProtectionParameters) Tolerances {
	return Tolerances{
		AmountPct: params.AmountTolerancePct,
		ILPct:     params.ILTolerancePct,
		GasPct:    params.GasTolerancePct,
	}
}

// Verify compares the execution record against the decision and its proof
// and returns the complete mismatch report. All seven checks always run;
// passed is true iff no check produced a finding, and the verdict is
// COMMIT exactly when passed. The caller supplies now explicitly so expiry
// evaluation stays deterministic.
func Verify(decision types.Decision, execution types.ExecutionRecord, proof types.Proof, now time.Time, tol Tolerances) (types.VerificationResult, error) {
	if err := validateInputs(decision, execution, proof, tol); err != nil {
		return types.VerificationResult{}, err
	}

	mismatches := make([]types.Mismatch, 0)

	// Check 1: action equality.
	if decision.Action != execution.Action {
		mismatches = append(mismatches, types.Mismatch{
			Kind:     types.MismatchAction,
			Expected: string(decision.Action),
			Actual:   string(execution.Action),
		})
	}

	// Check 2: amount within relative tolerance.
	if !withinRelTolerance(decision.Amount, execution.Amount, tol.AmountPct) {
		mismatches = append(mismatches, types.Mismatch{
			Kind:      types.MismatchAmount,
			Expected:  decision.Amount.String(),
			Actual:    execution.Amount.String(),
			Tolerance: formatPct(tol.AmountPct),
		})
	}

	// Check 3: target pool equality.
	if decision.TargetPool != execution.TargetPool {
		mismatches = append(mismatches, types.Mismatch{
			Kind:     types.MismatchTargetPool,
			Expected: decision.TargetPool,
			Actual:   execution.TargetPool,
		})
	}

	// Check 4: IL impact within relative tolerance of the decided reading.
	// Signed comparison: a sign flip is a full-magnitude deviation.
	if !withinRelTolerance(sdkmath.NewInt(decision.ILImpactBps), sdkmath.NewInt(execution.ILImpactBps), tol.ILPct) {
		mismatches = append(mismatches, types.Mismatch{
			Kind:      types.MismatchILImpact,
			Expected:  fmt.Sprintf("%d", decision.ILImpactBps),
			Actual:    fmt.Sprintf("%d", execution.ILImpactBps),
			Tolerance: formatPct(tol.ILPct),
		})
	}

	// Check 5: gas used within relative tolerance of the estimate.
	if !withinRelTolerance(sdkmath.NewIntFromUint64(decision.ExpectedGas), sdkmath.NewIntFromUint64(execution.GasUsed), tol.GasPct) {
		mismatches = append(mismatches, types.Mismatch{
			Kind:      types.MismatchGasUsed,
			Expected:  fmt.Sprintf("%d", decision.ExpectedGas),
			Actual:    fmt.Sprintf("%d", execution.GasUsed),
			Tolerance: formatPct(tol.GasPct),
		})
	}

	// Check 6: proof freshness. Expiry is reported as data, never raised.
	if now.After(proof.ExpiresAt) {
		mismatches = append(mismatches, types.Mismatch{
			Kind:     types.MismatchProofExpired,
			Expected: "verified at or before " + proof.ExpiresAt.UTC().Format(time.RFC3339),
			Actual:   now.UTC().Format(time.RFC3339),
		})
	}

	// Check 7: the proof's decision hash matches a recomputation over the
	// same canonicalization the binder used.
	recomputed, err := proofbinder.DecisionHash(decision)
	if err != nil {
		return types.VerificationResult{}, errors.Join(ErrMalformedDecision, err)
	}
	if recomputed != proof.DecisionHash {
		mismatches = append(mismatches, types.Mismatch{
			Kind:     types.MismatchDecisionHash,
			Expected: recomputed,
			Actual:   proof.DecisionHash,
		})
	}

	result := types.VerificationResult{
		DecisionID: decision.DecisionID,
		TxHash:     execution.TxHash,
		Passed:     len(mismatches) == 0,
		Mismatches: mismatches,
		Action:     types.VerdictCommit,
		VerifiedAt: now,
	}
	if !result.Passed {
		result.Action = types.VerdictRollback
	}

	verifyLogger.Info().
		Str("decisionID", decision.DecisionID).
		Str("txHash", execution.TxHash).
		Bool("passed", result.Passed).
		Int("mismatches", len(mismatches)).
		Str("verdict", string(result.Action)).
		Msg("Execution verified against decision")

	return result, nil
}

// validateInputs enforces the hard-error contract: missing identifiers,
// nil amounts, an absent attestation blob, or a broken tolerance set are
// structural faults, not verification findings.
func validateInputs(decision types.Decision, execution types.ExecutionRecord, proof types.Proof, tol Tolerances) error {
	if decision.DecisionID == "" {
		return errors.Join(ErrMalformedDecision, errors.New("decision ID is empty"))
	}
	if decision.Amount.IsNil() || decision.Amount.IsNegative() {
		return errors.Join(ErrMalformedDecision, errors.New("amount must be a non-negative integer"))
	}
	if execution.TxHash == "" {
		return errors.Join(ErrMalformedExecution, errors.New("transaction hash is empty"))
	}
	if execution.Amount.IsNil() || execution.Amount.IsNegative() {
		return errors.Join(ErrMalformedExecution, errors.New("amount must be a non-negative integer"))
	}
	if proof.DecisionHash == "" {
		return errors.Join(ErrMalformedProof, errors.New("decision hash is empty"))
	}
	if len(proof.AttestationBlob) == 0 {
		return errors.Join(ErrMalformedProof, errors.New("attestation blob is absent"))
	}
	for _, pct := range []float64{tol.AmountPct, tol.ILPct, tol.GasPct} {
		if math.IsNaN(pct) || math.IsInf(pct, 0) || pct < 0 {
			return ErrInvalidTolerance
		}
	}
	return nil
}

// withinRelTolerance reports whether actual deviates from expected by at
// most pct percent of expected. The comparison is exact:
//
//	|actual - expected| * 1e6 <= |expected| * pct * 1e4
//
// A zero expected value admits only a zero actual.
func withinRelTolerance(expected, actual sdkmath.Int, pct float64) bool {
	if expected.IsZero() {
		return actual.IsZero()
	}

	diff := new(big.Int).Sub(actual.BigInt(), expected.BigInt())
	diff.Abs(diff)
	diff.Mul(diff, big.NewInt(tolerancePPM))

	tolScaled := big.NewInt(int64(math.Round(pct * 10_000)))
	allowed := new(big.Int).Abs(expected.BigInt())
	allowed.Mul(allowed, tolScaled)

	return diff.Cmp(allowed) <= 0
}

func formatPct(pct float64) string {
	return fmt.Sprintf("%g%%", pct)
}

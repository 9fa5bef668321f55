/*

This file contains the tunable protection parameters: the IL policy limit,
urgency tier boundaries, verification tolerances, and proof lifetime.
Different parameter sets can be versioned and activated in the database.

*/

package types

// ProtectionParameters holds all tunable thresholds used by the IL policy
// evaluation and the execution verification. They are configuration rather
// than constants because no single value is right for every asset or
// network.
type ProtectionParameters struct {
	// --- IL Policy ---
	MaxILBps int64 `json:"max_il_bps"` // Policy limit on |IL|; equality does not violate.

	// Urgency tier boundaries over excess = |IL| - |MaxILBps|.
	// excess <= LowUrgencyMaxBps       -> Low
	// excess <= MediumUrgencyMaxBps    -> Medium
	// excess  > MediumUrgencyMaxBps    -> High
	LowUrgencyMaxBps    int64 `json:"low_urgency_max_bps"`
	MediumUrgencyMaxBps int64 `json:"medium_urgency_max_bps"`

	// Alert rule inputs: warn when |IL| exceeds AlertFraction of the limit
	// and the last-vs-third-last history delta exceeds MomentumDeltaBps.
	AlertFraction    float64 `json:"alert_fraction"`
	MomentumDeltaBps int64   `json:"momentum_delta_bps"`

	// --- Verification Tolerances (relative percentages) ---
	AmountTolerancePct float64 `json:"amount_tolerance_pct"` // Allowed deviation of executed amount
	ILTolerancePct     float64 `json:"il_tolerance_pct"`     // Allowed deviation of executed IL impact
	GasTolerancePct    float64 `json:"gas_tolerance_pct"`    // Allowed deviation of gas used

	// --- Proof Lifetime ---
	ProofTTLSeconds int64 `json:"proof_ttl_seconds"` // Attestation validity window
}

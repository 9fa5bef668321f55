/*

This file contains the default protection parameters. They live here as a
named default set so deployments can version and activate alternatives in
the database without a rebuild.

*/

package config

import (
	"github.com/shieldvault/ilguard/internal/types"
)

// DefaultProtectionParameters is the baseline parameter set, used when no
// active set is found in the database during initialization. None of the
// numeric values has a universal justification across assets or networks,
// which is precisely why they are parameters.
var DefaultProtectionParameters = types.ProtectionParameters{
	// --- IL Policy ---
	MaxILBps: 300, // Tolerate up to 3% impermanent loss before the policy is violated.
	// Equality with the limit does not violate; the check is strict.

	LowUrgencyMaxBps:    100, // Excess of up to 1% over the limit stays low urgency.
	MediumUrgencyMaxBps: 500, // Excess of up to 5% is medium; anything beyond is high.

	AlertFraction:    0.8, // Start watching momentum once |IL| passes 80% of the limit.
	MomentumDeltaBps: 50,  // Alert when IL worsened by more than 50 bps across the
	// last three history samples.

	// --- Verification Tolerances ---
	AmountTolerancePct: 0.1, // Executed amount may deviate 0.1% from the decision.
	ILTolerancePct:     5.0, // Executed IL impact may deviate 5% from the reading.
	GasTolerancePct:    50.0, // Gas estimates are coarse; allow 50% deviation.

	// --- Proof Lifetime ---
	ProofTTLSeconds: 300, // Attestations are stale after five minutes.
}

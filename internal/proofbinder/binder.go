/*

This file contains the deterministic binding of a decision to an opaque
attestation. The decision hash is a keccak256 over a canonical field
encoding; the attestation blob itself is never interpreted, so a real
zero-knowledge backend can replace it without touching verification.

*/

package proofbinder

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/types"
)

var bindLogger = logger.GetForComponent("proof_binder")

var (
	ErrInvalidDecision = errors.New("invalid decision")
	ErrInvalidPolicy   = errors.New("invalid policy hash")
	ErrInvalidTTL      = errors.New("proof TTL must be positive")
)

// hashEncodingVersion is prefixed into the canonical encoding so a future
// field change cannot silently collide with old hashes.
const hashEncodingVersion = "ilguard/decision/v1"

// DecisionHash computes the canonical content hash over the semantically
// relevant decision fields: action, amount, target pool, IL impact, and
// agent. Two decisions with equal fields always hash identically.
func DecisionHash(decision types.Decision) (string, error) {
	if err := validateDecision(decision); err != nil {
		return "", err
	}

	payload := fmt.Sprintf("%s|%s|%s|%s|%d|%s",
		hashEncodingVersion,
		decision.Action,
		decision.Amount.String(),
		decision.TargetPool,
		decision.ILImpactBps,
		decision.AgentID,
	)
	return crypto.Keccak256Hash([]byte(payload)).Hex(), nil
}

// Bind produces a Proof for the decision: the recomputable decision hash,
// the public inputs a verifier may rely on, an opaque attestation blob,
// and an expiry of now + ttl. The TTL is configuration, never hardwired.
func Bind(decision types.Decision, policyHash string, ilLimitBps int64, ttl time.Duration, now time.Time) (types.Proof, error) {
	if policyHash == "" {
		return types.Proof{}, ErrInvalidPolicy
	}
	if ttl <= 0 {
		return types.Proof{}, ErrInvalidTTL
	}

	decisionHash, err := DecisionHash(decision)
	if err != nil {
		return types.Proof{}, err
	}

	proofID := uuid.New().String()

	// The blob is a placeholder attestation derived from the binding
	// inputs. Verification only ever checks that it is present.
	blob := crypto.Keccak256(
		[]byte(decisionHash),
		[]byte(policyHash),
		[]byte(proofID),
	)

	proof := types.Proof{
		ProofID:      proofID,
		DecisionHash: decisionHash,
		PublicInputs: types.PublicInputs{
			ILLimitBps:   ilLimitBps,
			AgentAddress: decision.AgentID,
			PolicyHash:   policyHash,
		},
		AttestationBlob: blob,
		ExpiresAt:       now.Add(ttl),
	}

	bindLogger.Debug().
		Str("decisionID", decision.DecisionID).
		Str("proofID", proofID).
		Str("decisionHash", decisionHash).
		Time("expiresAt", proof.ExpiresAt).
		Msg("Decision bound to attestation")

	return proof, nil
}

// validateDecision rejects structurally malformed decisions before hashing.
func validateDecision(decision types.Decision) error {
	if decision.DecisionID == "" {
		return errors.Join(ErrInvalidDecision, errors.New("decision ID is empty"))
	}
	if decision.AgentID == "" {
		return errors.Join(ErrInvalidDecision, errors.New("agent ID is empty"))
	}
	if _, err := types.ParseActionType(string(decision.Action)); err != nil {
		return errors.Join(ErrInvalidDecision, err)
	}
	if decision.Amount.IsNil() || decision.Amount.IsNegative() {
		return errors.Join(ErrInvalidDecision, errors.New("amount must be a non-negative integer"))
	}
	if decision.TargetPool == "" {
		return errors.Join(ErrInvalidDecision, errors.New("target pool is empty"))
	}
	return nil
}

/*

This file contains the policy violation check, urgency classification, and
the Hold/Alert/Exit action recommendation built on an IL reading and its
recent history.

*/

package ilengine

import (
	"errors"

	"github.com/shieldvault/ilguard/internal/types"
)

// UrgencyLevel classifies how far past the policy limit a position sits.
type UrgencyLevel string

const (
	UrgencyLow    UrgencyLevel = "LOW"
	UrgencyMedium UrgencyLevel = "MEDIUM"
	UrgencyHigh   UrgencyLevel = "HIGH"
)

// Recommendation is the protective stance for a monitored position.
type Recommendation string

const (
	RecommendHold  Recommendation = "HOLD"
	RecommendAlert Recommendation = "ALERT"
	RecommendExit  Recommendation = "EXIT"
)

var ErrInvalidParameters = errors.New("invalid protection parameters")

// PositionAssessment bundles the three policy outputs for one evaluation.
type PositionAssessment struct {
	Violates       bool           `json:"violates"`
	Urgency        UrgencyLevel   `json:"urgency"`
	Recommendation Recommendation `json:"recommendation"`
}

// ViolatesPolicy reports whether the IL reading breaches the policy limit.
// The comparison is strict on magnitudes: equality does not violate.
func ViolatesPolicy(record types.ILRecord, maxILBps int64) bool {
	return absInt64(record.ILPercentageBps) > absInt64(maxILBps)
}

// Urgency classifies the excess of |IL| over the policy limit into tiers.
// The boundaries are inclusive on the lower tier: an excess exactly at a
// boundary stays in the lower tier.
func Urgency(excessBps int64, params types.ProtectionParameters) UrgencyLevel {
	switch {
	case excessBps <= params.LowUrgencyMaxBps:
		return UrgencyLow
	case excessBps <= params.MediumUrgencyMaxBps:
		return UrgencyMedium
	default:
		return UrgencyHigh
	}
}

// RecommendAction runs the Hold/Alert/Exit state machine. Rules are
// evaluated in order:
//
//  1. |currentIL| over the limit -> Exit.
//  2. |currentIL| over AlertFraction of the limit, and the IL magnitude
//     grew by more than MomentumDeltaBps between the third-most-recent and
//     most recent history samples -> Alert. Fewer than three samples skip
//     this rule.
//  3. Otherwise -> Hold.
func RecommendAction(currentILBps, maxILBps int64, ilHistory []types.ILSample, params types.ProtectionParameters) Recommendation {
	currentAbs := absInt64(currentILBps)
	limitAbs := absInt64(maxILBps)

	if currentAbs > limitAbs {
		return RecommendExit
	}

	if float64(currentAbs) > params.AlertFraction*float64(limitAbs) && len(ilHistory) >= 3 {
		latest := absInt64(ilHistory[len(ilHistory)-1].ILBps)
		thirdLast := absInt64(ilHistory[len(ilHistory)-3].ILBps)
		if latest-thirdLast > params.MomentumDeltaBps {
			return RecommendAlert
		}
	}

	return RecommendHold
}

// EvaluatePosition is the single entry point the monitor calls per
// position: it combines the violation check, the urgency tier, and the
// action recommendation for one IL record and its history.
func EvaluatePosition(record types.ILRecord, ilHistory []types.ILSample, params types.ProtectionParameters) (PositionAssessment, error) {
	if err := ValidateProtectionParameters(params); err != nil {
		return PositionAssessment{}, errors.Join(ErrInvalidParameters, err)
	}

	excess := absInt64(record.ILPercentageBps) - absInt64(params.MaxILBps)
	assessment := PositionAssessment{
		Violates:       ViolatesPolicy(record, params.MaxILBps),
		Urgency:        Urgency(excess, params),
		Recommendation: RecommendAction(record.ILPercentageBps, params.MaxILBps, ilHistory, params),
	}

	ilLogger.Debug().
		Uint64("poolID", uint64(record.PoolID)).
		Int64("ilBps", record.ILPercentageBps).
		Int64("limitBps", params.MaxILBps).
		Int64("excessBps", excess).
		Bool("violates", assessment.Violates).
		Str("urgency", string(assessment.Urgency)).
		Str("recommendation", string(assessment.Recommendation)).
		Msg("Position evaluated against policy")

	return assessment, nil
}

// ValidateProtectionParameters rejects parameter sets the policy engine
// cannot evaluate consistently.
func ValidateProtectionParameters(params types.ProtectionParameters) error {
	if params.MaxILBps <= 0 {
		return errors.New("MaxILBps must be positive")
	}
	if params.LowUrgencyMaxBps < 0 {
		return errors.New("LowUrgencyMaxBps cannot be negative")
	}
	if params.MediumUrgencyMaxBps <= params.LowUrgencyMaxBps {
		return errors.New("MediumUrgencyMaxBps must exceed LowUrgencyMaxBps")
	}
	if params.AlertFraction <= 0 || params.AlertFraction >= 1 {
		return errors.New("AlertFraction must be between 0 and 1 exclusive")
	}
	if params.MomentumDeltaBps < 0 {
		return errors.New("MomentumDeltaBps cannot be negative")
	}
	if params.AmountTolerancePct < 0 || params.ILTolerancePct < 0 || params.GasTolerancePct < 0 {
		return errors.New("verification tolerances cannot be negative")
	}
	if params.ProofTTLSeconds <= 0 {
		return errors.New("ProofTTLSeconds must be positive")
	}
	return nil
}

func absInt64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

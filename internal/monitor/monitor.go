/*

This file contains the monitor core: the protection cycle that evaluates
every monitored position, produces decisions for positions past the policy
limit, and drives each decision through binding, execution, and
verification. Each cycle is persisted as an auditable snapshot.

*/

package monitor

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shieldvault/ilguard/internal/datafetcher"
	"github.com/shieldvault/ilguard/internal/executor"
	"github.com/shieldvault/ilguard/internal/ilengine"
	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/state"
	"github.com/shieldvault/ilguard/internal/types"
	"github.com/shieldvault/ilguard/internal/verifier"
)

var ErrInvalidMonitorConfig = errors.New("invalid monitor configuration")

// withdrawGasEstimate is the gas budget attached to withdraw decisions.
// TODO: derive per-venue estimates once a live execution backend exists.
const withdrawGasEstimate = 250_000

// PositionSource supplies the positions a cycle evaluates.
type PositionSource interface {
	FetchMonitoredPositions() ([]datafetcher.MonitoredPosition, error)
}

// Config carries the monitor's identity and proof settings.
type Config struct {
	AgentAddress string
	PolicyHash   string
	ProofTTL     time.Duration
}

// Monitor runs protection cycles over the agent's LP positions.
type Monitor struct {
	config    Config
	params    types.ProtectionParameters
	paramsID  int64
	positions PositionSource
	exec      executor.ExecutionLayer
	log       zerolog.Logger
}

// NewMonitor creates a monitor after validating its configuration and
// parameter set.
func NewMonitor(config Config, params types.ProtectionParameters, paramsID int64, positions PositionSource, exec executor.ExecutionLayer) (*Monitor, error) {
	if err := validateMonitorConfig(config); err != nil {
		return nil, errors.Join(ErrInvalidMonitorConfig, err)
	}
	if err := ilengine.ValidateProtectionParameters(params); err != nil {
		return nil, errors.Join(ErrInvalidMonitorConfig, err)
	}
	if positions == nil {
		return nil, errors.Join(ErrInvalidMonitorConfig, errors.New("position source is nil"))
	}
	if exec == nil {
		return nil, errors.Join(ErrInvalidMonitorConfig, errors.New("execution layer is nil"))
	}

	return &Monitor{
		config:    config,
		params:    params,
		paramsID:  paramsID,
		positions: positions,
		exec:      exec,
		log:       logger.GetForComponent("monitor"),
	}, nil
}

func validateMonitorConfig(config Config) error {
	if config.AgentAddress == "" {
		return errors.New("agent address cannot be empty")
	}
	if config.PolicyHash == "" {
		return errors.New("policy hash cannot be empty")
	}
	if config.ProofTTL <= 0 {
		return errors.New("proof TTL must be positive")
	}
	return nil
}

// RunCycle executes one full protection cycle: fetch, evaluate, decide,
// bind, execute, verify, persist. A single failing position aborts the
// cycle; partial cycles must never be persisted as complete.
func (m *Monitor) RunCycle() error {
	cycleTraceID := uuid.New().String()
	cycleStart := time.Now().UTC()
	cycleLogger := m.log.With().Str("cycleTraceID", cycleTraceID).Logger()

	cycleLogger.Info().Msg("Starting protection cycle")

	monitored, err := m.positions.FetchMonitoredPositions()
	if err != nil {
		cycleLogger.Error().Err(err).Msg("Failed to fetch monitored positions")
		return fmt.Errorf("cycle %s: %w", cycleTraceID, err)
	}

	snapshot := types.CycleSnapshot{
		Timestamp:         cycleStart,
		ParamsID:          m.paramsID,
		Positions:         make([]types.PositionSnapshot, 0, len(monitored)),
		Decisions:         make([]types.Decision, 0),
		Verifications:     make([]types.VerificationResult, 0),
		TransactionHashes: make([]string, 0),
	}

	for _, mp := range monitored {
		record, assessment, err := m.evaluatePosition(mp)
		if err != nil {
			cycleLogger.Error().
				Err(err).
				Uint64("poolID", uint64(mp.Position.PoolID)).
				Msg("Position evaluation failed, aborting cycle")
			return fmt.Errorf("cycle %s: pool %d: %w", cycleTraceID, mp.Position.PoolID, err)
		}

		snapshot.Positions = append(snapshot.Positions, types.PositionSnapshot{
			PoolID:         record.PoolID,
			ILBps:          record.ILPercentageBps,
			Violates:       assessment.Violates,
			Urgency:        string(assessment.Urgency),
			Recommendation: string(assessment.Recommendation),
			EstimatedLoss:  ilengine.EstimatedLoss(record).String(),
		})

		if assessment.Recommendation != ilengine.RecommendExit {
			continue
		}

		result, decision, txHash, err := m.protectPosition(cycleLogger, mp, record)
		if err != nil {
			cycleLogger.Error().
				Err(err).
				Uint64("poolID", uint64(mp.Position.PoolID)).
				Msg("Protection flow failed, aborting cycle")
			return fmt.Errorf("cycle %s: pool %d: %w", cycleTraceID, mp.Position.PoolID, err)
		}

		snapshot.Decisions = append(snapshot.Decisions, decision)
		snapshot.TransactionHashes = append(snapshot.TransactionHashes, txHash)
		if result != nil {
			snapshot.Verifications = append(snapshot.Verifications, *result)
			if result.Action == types.VerdictCommit {
				snapshot.Committed++
			} else {
				snapshot.RolledBack++
			}
		}
	}

	cycleNumber, err := state.IncrementCycleNumber()
	if err != nil {
		return fmt.Errorf("cycle %s: %w", cycleTraceID, err)
	}
	snapshot.CycleNumber = cycleNumber

	snapshotID, err := state.SaveCycleSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("cycle %s: %w", cycleTraceID, err)
	}

	cycleLogger.Info().
		Int("cycleNumber", cycleNumber).
		Int64("snapshotID", snapshotID).
		Int("positions", len(snapshot.Positions)).
		Int("decisions", len(snapshot.Decisions)).
		Int("committed", snapshot.Committed).
		Int("rolledBack", snapshot.RolledBack).
		Dur("elapsed", time.Since(cycleStart)).
		Msg("Protection cycle completed")

	return nil
}

// evaluatePosition computes the IL record for one position and assesses it
// against the active policy.
func (m *Monitor) evaluatePosition(mp datafetcher.MonitoredPosition) (types.ILRecord, ilengine.PositionAssessment, error) {
	ilBps, err := ilengine.ImpermanentLossBps(mp.Position.InitialRatio, mp.CurrentRatio)
	if err != nil {
		return types.ILRecord{}, ilengine.PositionAssessment{}, err
	}

	hodlValue, lpValue, err := ilengine.HodlVsLp(
		mp.Position.InitialDeposit,
		mp.Position.InitialRatio,
		mp.CurrentRatio,
		mp.Position.LPTokens,
		mp.Pool,
	)
	if err != nil {
		return types.ILRecord{}, ilengine.PositionAssessment{}, err
	}

	record := types.ILRecord{
		PoolID:          mp.Position.PoolID,
		InitialRatio:    mp.Position.InitialRatio,
		CurrentRatio:    mp.CurrentRatio,
		ILPercentageBps: ilBps,
		HodlValue:       hodlValue,
		LPValue:         lpValue,
		EvaluatedAt:     time.Now().UTC(),
	}

	assessment, err := ilengine.EvaluatePosition(record, mp.Position.ILHistory, m.params)
	if err != nil {
		return types.ILRecord{}, ilengine.PositionAssessment{}, err
	}

	return record, assessment, nil
}

// protectPosition drives one exit decision through the full flow. The
// returned result is nil when the pair was already verified earlier, in
// which case the stored verdict stands untouched.
func (m *Monitor) protectPosition(cycleLogger zerolog.Logger, mp datafetcher.MonitoredPosition, record types.ILRecord) (*types.VerificationResult, types.Decision, string, error) {
	now := time.Now().UTC()

	decision, err := types.NewDecision(
		uuid.New().String(),
		m.config.AgentAddress,
		types.ActionWithdraw,
		record.LPValue,
		fmt.Sprintf("pool-%d", record.PoolID),
		record.ILPercentageBps,
		withdrawGasEstimate,
		now,
	)
	if err != nil {
		return nil, types.Decision{}, "", err
	}

	cycleLogger.Info().
		Str("decisionID", decision.DecisionID).
		Uint64("poolID", uint64(record.PoolID)).
		Int64("ilBps", record.ILPercentageBps).
		Str("amount", decision.Amount.String()).
		Msg("Exit decision created for position past policy limit")

	flow := NewFlow(decision)
	if err := flow.Bind(m.config.PolicyHash, m.params.MaxILBps, m.config.ProofTTL, now); err != nil {
		return nil, types.Decision{}, "", err
	}

	execution, err := m.exec.Execute(decision)
	if err != nil {
		return nil, types.Decision{}, "", err
	}
	if err := flow.AttachExecution(execution); err != nil {
		return nil, types.Decision{}, "", err
	}

	// Idempotency guard: a pair verified in an earlier run keeps its
	// original verdict.
	already, err := state.HasVerification(decision.DecisionID, execution.TxHash)
	if err != nil {
		return nil, types.Decision{}, "", err
	}
	if already {
		cycleLogger.Warn().
			Str("decisionID", decision.DecisionID).
			Str("txHash", execution.TxHash).
			Msg("Pair already verified, keeping stored verdict")
		return nil, decision, execution.TxHash, nil
	}

	result, err := flow.Verify(time.Now().UTC(), verifier.FromParameters(m.params))
	if err != nil {
		return nil, types.Decision{}, "", err
	}

	if _, err := state.SaveVerificationResult(result); err != nil {
		if errors.Is(err, state.ErrAlreadyVerified) {
			cycleLogger.Warn().
				Str("decisionID", decision.DecisionID).
				Str("txHash", execution.TxHash).
				Msg("Concurrent verification detected, keeping stored verdict")
			return nil, decision, execution.TxHash, nil
		}
		return nil, types.Decision{}, "", err
	}

	return &result, decision, execution.TxHash, nil
}

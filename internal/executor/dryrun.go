/*

This file implements the dry-run execution layer. It mirrors each decision
into a synthetic execution record without touching any venue, so the full
decide/bind/execute/verify pipeline can run end to end in development and
in tests. Gas usage is reported slightly under the estimate to exercise
the verifier's tolerance path.

*/

package executor

import (
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/types"
)

// gasUsedNumerator / gasUsedDenominator shave 2% off the gas estimate in
// the synthetic record.
const (
	gasUsedNumerator   = 98
	gasUsedDenominator = 100
	startingBlock      = 1_000_000
)

// DryRunExecutor is an ExecutionLayer that fabricates execution records
// instead of submitting transactions.
type DryRunExecutor struct {
	mu          sync.Mutex
	closed      bool
	nonce       uint64
	blockNumber uint64
	log         zerolog.Logger
}

// NewDryRunExecutor creates a dry-run execution layer.
func NewDryRunExecutor() *DryRunExecutor {
	return &DryRunExecutor{
		blockNumber: startingBlock,
		log:         logger.GetForComponent("dryrun_executor"),
	}
}

// Execute fabricates an execution record that faithfully mirrors the
// decision. The tx hash is derived from the decision ID and a nonce so
// repeated executions of the same decision produce distinct hashes.
func (e *DryRunExecutor) Execute(decision types.Decision) (types.ExecutionRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return types.ExecutionRecord{}, ErrExecutorClosed
	}
	if decision.DecisionID == "" {
		return types.ExecutionRecord{}, fmt.Errorf("%w: decision ID is empty", ErrExecutionFailed)
	}

	e.nonce++
	e.blockNumber++

	txHash := crypto.Keccak256Hash(
		[]byte(decision.DecisionID),
		[]byte(fmt.Sprintf("%d", e.nonce)),
	).Hex()

	record := types.ExecutionRecord{
		TxHash:      txHash,
		Action:      decision.Action,
		Amount:      decision.Amount,
		TargetPool:  decision.TargetPool,
		ILImpactBps: decision.ILImpactBps,
		GasUsed:     decision.ExpectedGas * gasUsedNumerator / gasUsedDenominator,
		Timestamp:   time.Now().UTC(),
		BlockNumber: e.blockNumber,
	}

	e.log.Info().
		Str("decisionID", decision.DecisionID).
		Str("txHash", txHash).
		Str("action", string(decision.Action)).
		Uint64("blockNumber", e.blockNumber).
		Msg("Dry-run execution completed")

	return record, nil
}

// Close marks the executor closed. Further Execute calls fail.
func (e *DryRunExecutor) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.log.Info().Msg("Dry-run executor closed")
	return nil
}

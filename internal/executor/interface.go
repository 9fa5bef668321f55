/*

This file defines the execution layer boundary. The monitor only ever
talks to this interface; whether a decision hits a live venue or a
dry-run simulator is decided once at startup.

*/

package executor

import (
	"errors"

	"github.com/shieldvault/ilguard/internal/types"
)

var (
	ErrExecutionFailed = errors.New("decision execution failed")
	ErrExecutorClosed  = errors.New("executor is closed")
)

// ExecutionLayer carries out protection decisions and reports what
// actually happened on the venue.
type ExecutionLayer interface {
	// Execute submits the decision and returns the observed execution
	// record. The record reflects venue truth, not the decision's intent.
	Execute(decision types.Decision) (types.ExecutionRecord, error)

	// Close releases any resources held by the executor.
	Close() error
}

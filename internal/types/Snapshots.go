/*

This file contains the per-cycle snapshot types persisted for auditing and
served by the web dashboard.

*/

package types

import "time"

// PositionSnapshot captures the evaluated state of one position in a cycle.
type PositionSnapshot struct {
	PoolID         PoolID `json:"pool_id"`
	ILBps          int64  `json:"il_bps"`
	Violates       bool   `json:"violates"`
	Urgency        string `json:"urgency"`
	Recommendation string `json:"recommendation"`
	EstimatedLoss  string `json:"estimated_loss"` // Quote-unit integer, stringified
}

// CycleSnapshot is the complete record of one monitor cycle: what was
// evaluated, what was decided, and how executions were verified.
type CycleSnapshot struct {
	SnapshotID        int64                `json:"snapshot_id,omitempty"` // Auto-incremented by DB
	CycleNumber       int                  `json:"cycle_number"`
	Timestamp         time.Time            `json:"timestamp"`
	ParamsID          int64                `json:"params_id,omitempty"`
	Positions         []PositionSnapshot   `json:"positions"`
	Decisions         []Decision           `json:"decisions"`
	Verifications     []VerificationResult `json:"verifications"`
	TransactionHashes []string             `json:"transaction_hashes"`
	Committed         int                  `json:"committed"`
	RolledBack        int                  `json:"rolled_back"`
}

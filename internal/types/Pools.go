/*

This file contains the pool-side types consumed by the IL engine: oracle
price ratios, constant-product pool snapshots, and the per-evaluation IL
record.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

type PoolID uint64

// AssetRatio carries the oracle prices of the two pool assets at a point in
// time, both scaled by the configured ratio scale. The pair price is
// AssetAAmount / AssetBAmount. Both amounts must be strictly positive; a
// zero AssetBAmount would make every downstream ratio undefined.
type AssetRatio struct {
	AssetAAmount sdkmath.Int `json:"asset_a_amount"` // Scaled price of asset A
	AssetBAmount sdkmath.Int `json:"asset_b_amount"` // Scaled price of asset B, never zero
}

// PoolState is a snapshot of a constant-product pool between trades.
// ReserveA * ReserveB is the invariant at rest; TotalLPTokens is positive
// whenever the pool holds liquidity.
type PoolState struct {
	PoolID         PoolID      `json:"pool_id"`
	ReserveA       sdkmath.Int `json:"reserve_a"`
	ReserveB       sdkmath.Int `json:"reserve_b"`
	TotalLPTokens  sdkmath.Int `json:"total_lp_tokens"`
	LastUpdateTime time.Time   `json:"last_update_time"`
}

// ILRecord is the immutable result of one impermanent-loss evaluation.
// ILPercentageBps is signed; negative denotes loss versus holding.
type ILRecord struct {
	PoolID          PoolID      `json:"pool_id"`
	InitialRatio    AssetRatio  `json:"initial_ratio"`
	CurrentRatio    AssetRatio  `json:"current_ratio"`
	ILPercentageBps int64       `json:"il_percentage_bps"`
	HodlValue       sdkmath.Int `json:"hodl_value"` // Value of holding the original deposit
	LPValue         sdkmath.Int `json:"lp_value"`   // Value of the LP share of current reserves
	EvaluatedAt     time.Time   `json:"evaluated_at"`
}

// ILSample is one point of the per-position IL history used by the action
// recommendation momentum rule.
type ILSample struct {
	ILBps     int64     `json:"il_bps"`
	Timestamp time.Time `json:"timestamp"`
}

// LPPosition describes a monitored liquidity position: the deposit it was
// opened with and the LP tokens it holds.
type LPPosition struct {
	PoolID         PoolID      `json:"pool_id"`
	InitialDeposit sdkmath.Int `json:"initial_deposit"` // Quote-unit deposit at entry
	InitialRatio   AssetRatio  `json:"initial_ratio"`   // Oracle prices at entry
	LPTokens       sdkmath.Int `json:"lp_tokens"`
	OpenedAt       time.Time   `json:"opened_at"`
	ILHistory      []ILSample  `json:"il_history,omitempty"`
}

// ./internal/state/snapshot_store.go
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/shieldvault/ilguard/internal/types"
)

// SaveCycleSnapshot saves a complete monitor cycle snapshot to the database.
func SaveCycleSnapshot(snapshot types.CycleSnapshot) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	positionsJSON, err := json.Marshal(snapshot.Positions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal positions: %w", err)
	}

	decisionsJSON, err := json.Marshal(snapshot.Decisions)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal decisions: %w", err)
	}

	verificationsJSON, err := json.Marshal(snapshot.Verifications)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal verifications: %w", err)
	}

	query := `
		INSERT INTO cycle_snapshots (
			cycle_number, snapshot_timestamp, params_id,
			positions, decisions, verifications,
			transaction_hashes, committed, rolled_back
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING snapshot_id;
	`

	var paramsID interface{}
	if snapshot.ParamsID > 0 {
		paramsID = snapshot.ParamsID
	}

	var snapshotID int64
	err = DB.QueryRow(
		query,
		snapshot.CycleNumber, snapshot.Timestamp, paramsID,
		positionsJSON, decisionsJSON, verificationsJSON,
		pq.Array(snapshot.TransactionHashes), snapshot.Committed, snapshot.RolledBack,
	).Scan(&snapshotID)
	if err != nil {
		return 0, fmt.Errorf("failed to save cycle snapshot: %w", err)
	}

	log.Info().
		Int64("snapshot_id", snapshotID).
		Int("cycle_number", snapshot.CycleNumber).
		Int("committed", snapshot.Committed).
		Int("rolled_back", snapshot.RolledBack).
		Msg("Cycle snapshot saved to database")

	return snapshotID, nil
}

// GetRecentCycles returns the latest cycle snapshots, newest first.
func GetRecentCycles(limit int) ([]types.CycleSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := DB.Query(`
		SELECT snapshot_id, cycle_number, snapshot_timestamp, COALESCE(params_id, 0),
			positions, decisions, verifications, transaction_hashes, committed, rolled_back
		FROM cycle_snapshots
		ORDER BY snapshot_timestamp DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle snapshots: %w", err)
	}
	defer rows.Close()

	snapshots := make([]types.CycleSnapshot, 0, limit)
	for rows.Next() {
		snapshot, err := scanCycleSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cycle snapshot iteration failed: %w", err)
	}

	return snapshots, nil
}

// GetCycleByID returns a single cycle snapshot by its snapshot_id.
func GetCycleByID(snapshotID int64) (*types.CycleSnapshot, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.Query(`
		SELECT snapshot_id, cycle_number, snapshot_timestamp, COALESCE(params_id, 0),
			positions, decisions, verifications, transaction_hashes, committed, rolled_back
		FROM cycle_snapshots
		WHERE snapshot_id = $1;
	`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle snapshot %d: %w", snapshotID, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, fmt.Errorf("cycle snapshot %d not found", snapshotID)
	}
	snapshot, err := scanCycleSnapshot(rows)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// GetProtectionSummary aggregates verdict counts for the dashboard.
func GetProtectionSummary() (map[string]interface{}, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	var totalVerifications, committed, rolledBack, cycles int
	err := DB.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM verification_results),
			(SELECT COUNT(*) FROM verification_results WHERE verdict = 'COMMIT'),
			(SELECT COUNT(*) FROM verification_results WHERE verdict = 'ROLLBACK'),
			(SELECT COUNT(*) FROM cycle_snapshots);
	`).Scan(&totalVerifications, &committed, &rolledBack, &cycles)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate protection summary: %w", err)
	}

	return map[string]interface{}{
		"total_verifications": totalVerifications,
		"committed":           committed,
		"rolled_back":         rolledBack,
		"cycles":              cycles,
	}, nil
}

// scanCycleSnapshot decodes one row from the cycle_snapshots projection
// used by the queries above.
func scanCycleSnapshot(rows *sql.Rows) (types.CycleSnapshot, error) {
	var snapshot types.CycleSnapshot
	var positionsJSON, decisionsJSON, verificationsJSON sql.NullString

	err := rows.Scan(
		&snapshot.SnapshotID, &snapshot.CycleNumber, &snapshot.Timestamp, &snapshot.ParamsID,
		&positionsJSON, &decisionsJSON, &verificationsJSON,
		pq.Array(&snapshot.TransactionHashes), &snapshot.Committed, &snapshot.RolledBack,
	)
	if err != nil {
		return types.CycleSnapshot{}, fmt.Errorf("failed to scan cycle snapshot: %w", err)
	}

	if positionsJSON.Valid && positionsJSON.String != "" {
		if err := json.Unmarshal([]byte(positionsJSON.String), &snapshot.Positions); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal positions: %w", err)
		}
	}
	if decisionsJSON.Valid && decisionsJSON.String != "" {
		if err := json.Unmarshal([]byte(decisionsJSON.String), &snapshot.Decisions); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal decisions: %w", err)
		}
	}
	if verificationsJSON.Valid && verificationsJSON.String != "" {
		if err := json.Unmarshal([]byte(verificationsJSON.String), &snapshot.Verifications); err != nil {
			return types.CycleSnapshot{}, fmt.Errorf("failed to unmarshal verifications: %w", err)
		}
	}

	return snapshot, nil
}

/*

This file persists verification verdicts. The UNIQUE (decision_id, tx_hash)
constraint is the idempotency key: a pair that has already been verified is
rejected with ErrAlreadyVerified so downstream commit/rollback side effects
can never double-trigger.

*/

package state

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/shieldvault/ilguard/internal/types"
)

// ErrAlreadyVerified is returned when a (decisionID, txHash) pair has
// already produced a verdict.
var ErrAlreadyVerified = errors.New("decision/transaction pair already verified")

// uniqueViolation is the PostgreSQL error code for unique constraint hits.
const uniqueViolation = "23505"

// SaveVerificationResult appends a verdict to the audit table, returning
// the new result_id. A repeated pair returns ErrAlreadyVerified.
func SaveVerificationResult(result types.VerificationResult) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if result.DecisionID == "" || result.TxHash == "" {
		return 0, fmt.Errorf("verification result missing decision ID or tx hash")
	}

	mismatchesJSON, err := json.Marshal(result.Mismatches)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal mismatches: %w", err)
	}

	query := `
		INSERT INTO verification_results (
			decision_id, tx_hash, passed, verdict, mismatches, verified_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING result_id;
	`

	var resultID int64
	err = DB.QueryRow(
		query,
		result.DecisionID, result.TxHash, result.Passed, string(result.Action),
		mismatchesJSON, result.VerifiedAt,
	).Scan(&resultID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return 0, ErrAlreadyVerified
		}
		return 0, fmt.Errorf("failed to save verification result: %w", err)
	}

	log.Info().
		Int64("resultID", resultID).
		Str("decisionID", result.DecisionID).
		Str("txHash", result.TxHash).
		Str("verdict", string(result.Action)).
		Msg("Verification result saved to audit table")

	return resultID, nil
}

// HasVerification reports whether a verdict already exists for the pair.
func HasVerification(decisionID, txHash string) (bool, error) {
	if DB == nil {
		return false, fmt.Errorf("database not initialized")
	}

	var exists bool
	err := DB.QueryRow(
		`SELECT EXISTS (SELECT 1 FROM verification_results WHERE decision_id = $1 AND tx_hash = $2);`,
		decisionID, txHash,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check verification existence: %w", err)
	}
	return exists, nil
}

// GetRecentVerifications returns the latest verdicts, newest first.
func GetRecentVerifications(limit int) ([]types.VerificationResult, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := DB.Query(`
		SELECT decision_id, tx_hash, passed, verdict, mismatches, verified_at
		FROM verification_results
		ORDER BY verified_at DESC
		LIMIT $1;
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query verification results: %w", err)
	}
	defer rows.Close()

	results := make([]types.VerificationResult, 0, limit)
	for rows.Next() {
		var result types.VerificationResult
		var verdict string
		var mismatchesJSON sql.NullString
		if err := rows.Scan(&result.DecisionID, &result.TxHash, &result.Passed, &verdict, &mismatchesJSON, &result.VerifiedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification row: %w", err)
		}
		result.Action = types.VerdictAction(verdict)
		if mismatchesJSON.Valid && mismatchesJSON.String != "" {
			if err := json.Unmarshal([]byte(mismatchesJSON.String), &result.Mismatches); err != nil {
				return nil, fmt.Errorf("failed to unmarshal mismatches: %w", err)
			}
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("verification row iteration failed: %w", err)
	}

	return results, nil
}

/*

This file persists versioned protection parameter sets. Exactly one set per
config name is active at a time; activating a new set deactivates the rest
in the same transaction.

*/

package state

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shieldvault/ilguard/internal/types"
)

// ErrNoActiveParameters is returned when no active parameter set exists
// for a config name. Callers seed defaults only on this error; anything
// else is a real database failure.
var ErrNoActiveParameters = errors.New("no active protection parameters")

// SaveProtectionParameters inserts a new parameter set version and
// optionally activates it, returning the new params_id.
func SaveProtectionParameters(params types.ProtectionParameters, configName string, version int, activate bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}
	if configName == "" {
		return 0, fmt.Errorf("config name cannot be empty")
	}
	if version <= 0 {
		return 0, fmt.Errorf("version must be positive, got %d", version)
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if activate {
		if _, err := tx.Exec(
			`UPDATE protection_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`,
			configName,
		); err != nil {
			return 0, fmt.Errorf("failed to deactivate previous parameter sets: %w", err)
		}
	}

	insertSQL := `
		INSERT INTO protection_parameters (
			version, config_name, is_active,
			max_il_bps, low_urgency_max_bps, medium_urgency_max_bps,
			alert_fraction, momentum_delta_bps,
			amount_tolerance_pct, il_tolerance_pct, gas_tolerance_pct,
			proof_ttl_seconds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING params_id;
	`

	var paramsID int64
	err = tx.QueryRow(
		insertSQL,
		version, configName, activate,
		params.MaxILBps, params.LowUrgencyMaxBps, params.MediumUrgencyMaxBps,
		params.AlertFraction, params.MomentumDeltaBps,
		params.AmountTolerancePct, params.ILTolerancePct, params.GasTolerancePct,
		params.ProofTTLSeconds,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert protection parameters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit parameter save: %w", err)
	}

	log.Info().
		Int64("paramsID", paramsID).
		Str("configName", configName).
		Int("version", version).
		Bool("active", activate).
		Msg("Protection parameters saved")

	return paramsID, nil
}

// LoadActiveProtectionParameters returns the active parameter set for the
// given config name along with its params_id.
func LoadActiveProtectionParameters(configName string) (*types.ProtectionParameters, int64, error) {
	if DB == nil {
		return nil, 0, fmt.Errorf("database not initialized")
	}

	query := `
		SELECT params_id,
			max_il_bps, low_urgency_max_bps, medium_urgency_max_bps,
			alert_fraction, momentum_delta_bps,
			amount_tolerance_pct, il_tolerance_pct, gas_tolerance_pct,
			proof_ttl_seconds
		FROM protection_parameters
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;
	`

	var params types.ProtectionParameters
	var paramsID int64
	err := DB.QueryRow(query, configName).Scan(
		&paramsID,
		&params.MaxILBps, &params.LowUrgencyMaxBps, &params.MediumUrgencyMaxBps,
		&params.AlertFraction, &params.MomentumDeltaBps,
		&params.AmountTolerancePct, &params.ILTolerancePct, &params.GasTolerancePct,
		&params.ProofTTLSeconds,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("%w for config %q", ErrNoActiveParameters, configName)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to load protection parameters: %w", err)
	}

	log.Debug().
		Int64("paramsID", paramsID).
		Str("configName", configName).
		Msg("Loaded active protection parameters")

	return &params, paramsID, nil
}

package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolAPI is the HTTP endpoint serving pool reserve snapshots.
	PoolAPI string
	// PriceAPI is the HTTP endpoint serving oracle price ratios.
	PriceAPI string
)

// loadEndpointConfig loads endpoint configuration from environment
// variables. This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	PoolAPI, err = getEnv("POOL_API")
	if err != nil {
		return err
	}

	PriceAPI, err = getEnv("PRICE_API")
	if err != nil {
		return err
	}

	log.Debug().
		Str("PoolAPI", PoolAPI).
		Str("PriceAPI", PriceAPI).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}

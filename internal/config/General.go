package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment
// variables. These are populated at startup by the LoadConfig function.
var (
	// AgentAddress identifies this protection agent in decisions and
	// proof public inputs.
	AgentAddress string

	// PolicyHash is the hash of the active protection policy document,
	// bound into every proof.
	PolicyHash string

	// ProofTTL is the attestation validity window.
	ProofTTL time.Duration

	// MonitorSchedule is the cron expression driving evaluation cycles.
	MonitorSchedule string

	// ExecutionMode selects the execution layer: "dryrun" settles
	// decisions synthetically, "live" requires a real settlement backend.
	ExecutionMode string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All listed environment variables are required.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	AgentAddress, err = getEnv("ILGUARD_AGENT_ADDRESS")
	if err != nil {
		return err
	}

	PolicyHash, err = getEnv("ILGUARD_POLICY_HASH")
	if err != nil {
		return err
	}

	ttlSeconds, err := getEnvAsInt64("ILGUARD_PROOF_TTL_SECONDS")
	if err != nil {
		return err
	}
	if ttlSeconds <= 0 {
		return errors.New("ILGUARD_PROOF_TTL_SECONDS must be positive")
	}
	ProofTTL = time.Duration(ttlSeconds) * time.Second

	MonitorSchedule, err = getEnv("ILGUARD_MONITOR_SCHEDULE")
	if err != nil {
		return err
	}

	ExecutionMode, err = getEnv("ILGUARD_EXECUTION_MODE")
	if err != nil {
		return err
	}

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("AgentAddress", AgentAddress).
		Dur("ProofTTL", ProofTTL).
		Str("MonitorSchedule", MonitorSchedule).
		Str("ExecutionMode", ExecutionMode).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns
// error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

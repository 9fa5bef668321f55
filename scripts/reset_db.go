/*

Standalone utility to wipe and recreate the ILGuard database schema.
Run with: go run scripts/reset_db.go

*/

package main

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/state"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on process environment")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Resetting ILGuard database schema...")

	dbConfig := state.DBConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     mustAtoi(getEnvOrDefault("DB_PORT", "5432")),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: getEnvOrDefault("DB_PASSWORD", ""),
		DBName:   getEnvOrDefault("DB_NAME", "ilguard"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
	if err := state.InitDB(dbConfig); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()

	dropSQL := `
		DROP TABLE IF EXISTS cycle_snapshots;
		DROP TABLE IF EXISTS verification_results;
		DROP TABLE IF EXISTS protection_parameters;
		DROP TABLE IF EXISTS cycle_counter;
	`
	if _, err := state.DB.Exec(dropSQL); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop tables")
	}
	log.Info().Msg("Existing tables dropped")

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate schema")
	}
	log.Info().Msg("Database schema reset complete")
}

func getEnvOrDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func mustAtoi(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Fatal().Str("value", value).Msg("Expected an integer environment value")
	}
	return n
}

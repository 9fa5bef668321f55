/*

ILGuard entry point. Wires configuration, database, the web audit server,
the execution layer, and the cron-driven protection monitor together, then
runs until interrupted.

*/

package main

import (
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/shieldvault/ilguard/internal/config"
	"github.com/shieldvault/ilguard/internal/datafetcher"
	"github.com/shieldvault/ilguard/internal/executor"
	"github.com/shieldvault/ilguard/internal/logger"
	"github.com/shieldvault/ilguard/internal/monitor"
	"github.com/shieldvault/ilguard/internal/state"
	"github.com/shieldvault/ilguard/internal/types"
	"github.com/shieldvault/ilguard/internal/web"
)

const parameterConfigName = "default"

func main() {
	// A missing .env file is fine in containerized deployments; the
	// environment is injected directly there.
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on process environment")
	}

	logger.Initialize(os.Getenv("LOG_LEVEL"))
	log.Info().Msg("Starting ILGuard protection monitor...")

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

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

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	params, paramsID := loadOrSeedParameters()

	webPort := mustAtoi(getEnvOrDefault("WEB_PORT", "8080"))
	server, err := web.NewServer(webPort, parameterConfigName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create web server")
	}
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Web server stopped unexpectedly")
		}
	}()
	defer server.Close()

	exec := buildExecutionLayer()
	defer exec.Close()

	fetcher, err := datafetcher.NewClient(config.PoolAPI, config.PriceAPI, config.AgentAddress)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create position fetcher")
	}

	mon, err := monitor.NewMonitor(
		monitor.Config{
			AgentAddress: config.AgentAddress,
			PolicyHash:   config.PolicyHash,
			ProofTTL:     config.ProofTTL,
		},
		*params, paramsID, fetcher, exec,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create monitor")
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(config.MonitorSchedule, func() {
		if err := mon.RunCycle(); err != nil {
			log.Error().Err(err).Msg("Protection cycle failed")
		}
	}); err != nil {
		log.Fatal().Err(err).Str("schedule", config.MonitorSchedule).Msg("Invalid monitor schedule")
	}
	scheduler.Start()
	defer scheduler.Stop()

	log.Info().
		Str("schedule", config.MonitorSchedule).
		Int("webPort", webPort).
		Str("executionMode", config.ExecutionMode).
		Msg("ILGuard is running")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received, stopping...")
}

// loadOrSeedParameters returns the active parameter set, seeding the
// defaults on first run. Only a genuine no-active-set result triggers
// seeding; any other load failure is fatal.
func loadOrSeedParameters() (*types.ProtectionParameters, int64) {
	params, paramsID, err := state.LoadActiveProtectionParameters(parameterConfigName)
	if err == nil {
		log.Info().Int64("paramsID", paramsID).Msg("Loaded active protection parameters")
		return params, paramsID
	}
	if !errors.Is(err, state.ErrNoActiveParameters) {
		log.Fatal().Err(err).Msg("Failed to load protection parameters")
	}

	log.Warn().Err(err).Msg("No active protection parameters, seeding defaults")
	defaults := config.DefaultProtectionParameters
	paramsID, err = state.SaveProtectionParameters(defaults, parameterConfigName, 1, true)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to seed default protection parameters")
	}
	return &defaults, paramsID
}

// buildExecutionLayer selects the execution backend from configuration.
// Live mode is refused until a real settlement backend exists; silently
// dry-running a "live" deployment would be worse than failing.
func buildExecutionLayer() executor.ExecutionLayer {
	switch config.ExecutionMode {
	case "dryrun":
		return executor.NewDryRunExecutor()
	case "live":
		log.Fatal().Msg("Live execution mode requires a settlement backend; none is configured")
		return nil
	default:
		log.Fatal().Str("mode", config.ExecutionMode).Msg("Unknown execution mode, expected 'dryrun' or 'live'")
		return nil
	}
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

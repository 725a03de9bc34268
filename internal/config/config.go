package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// Server
	Port        string
	FrontendURL string

	// Match Settings
	TurnTimerSeconds       int
	DisconnectGraceSeconds int
	StaleMatchMinutes      int
	SweepIntervalMinutes   int
	EvictGraceSeconds      int
	MinStakeAmount         int
	PlatformFeePercent     int

	// Anti-abuse heuristics (advisory, never block settlement)
	FastWinSeconds         int
	AbortFlagThreshold     int
	CollusionFlagThreshold int

	// Security
	JWTSecret         string
	SessionTimeoutMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/turnstake?sslmode=disable"),

		// Redis
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		// Server
		Port:        getEnv("APP_PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),

		// Match Settings
		TurnTimerSeconds:       getEnvInt("TURN_TIMER_SECONDS", 45),
		DisconnectGraceSeconds: getEnvInt("DISCONNECT_GRACE_SECONDS", 120),
		StaleMatchMinutes:      getEnvInt("STALE_MATCH_MINUTES", 60),
		SweepIntervalMinutes:   getEnvInt("SWEEP_INTERVAL_MINUTES", 10),
		EvictGraceSeconds:      getEnvInt("EVICT_GRACE_SECONDS", 120),
		MinStakeAmount:         getEnvInt("MIN_STAKE_AMOUNT", 100),
		PlatformFeePercent:     getEnvInt("PLATFORM_FEE_PERCENT", 10),

		// Anti-abuse heuristics
		FastWinSeconds:         getEnvInt("FAST_WIN_SECONDS", 10),
		AbortFlagThreshold:     getEnvInt("ABORT_FLAG_THRESHOLD", 3),
		CollusionFlagThreshold: getEnvInt("COLLUSION_FLAG_THRESHOLD", 5),

		// Security
		JWTSecret:         getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTimeoutMin: getEnvInt("SESSION_TIMEOUT_MINUTES", 30),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath     string
	LogLevel         string
	Port             int
	DevMode          bool
	RiskFreeRate     float64       // annual, percent
	SearchTimeBudget time.Duration // wall-clock cap for one optimization run
	SearchMaxRetries int           // iteration cap for the search loop
	SearchWorkers    int           // candidate evaluation workers, 1 = deterministic reference mode
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnvAsInt("PORT", 8090),
		DevMode:          getEnvAsBool("DEV_MODE", false),
		DatabasePath:     getEnv("DATABASE_PATH", "./data/market.db"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		RiskFreeRate:     getEnvAsFloat("RISK_FREE_RATE", 2.0),
		SearchTimeBudget: time.Duration(getEnvAsInt("SEARCH_TIME_BUDGET_SECONDS", 60)) * time.Second,
		SearchMaxRetries: getEnvAsInt("SEARCH_MAX_RETRIES", 10),
		SearchWorkers:    getEnvAsInt("SEARCH_WORKERS", 4),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.SearchMaxRetries < 1 {
		return fmt.Errorf("SEARCH_MAX_RETRIES must be at least 1")
	}
	if c.SearchWorkers < 1 {
		return fmt.Errorf("SEARCH_WORKERS must be at least 1")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir       string // Base directory for all databases (always absolute)
	LogLevel      string
	Port          int
	DevMode       bool
	Workers       int           // Worker pool size for batch scoring
	CacheEnabled  bool          // Read-through score cache; scoring is correct with it off
	ScoreCacheTTL time.Duration // TTL for cached score records
	NavCacheTTL   time.Duration // TTL for cached NAV series
	ScoreCron     string        // cron expression for the nightly scoring run
	ValidateCron  string        // cron expression for the validation sweep
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	// Determine data directory with fallback logic:
	// FUNDSCORE_DATA_DIR env var, otherwise ./data, always absolute.
	dataDir := getEnv("FUNDSCORE_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "data"
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:       absDataDir,
		Port:          getEnvAsInt("PORT", 8001),
		DevMode:       getEnvAsBool("DEV_MODE", false),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		Workers:       getEnvAsInt("SCORING_WORKERS", 8),
		CacheEnabled:  getEnvAsBool("SCORE_CACHE_ENABLED", true),
		ScoreCacheTTL: getEnvAsDuration("SCORE_CACHE_TTL", 6*time.Hour),
		NavCacheTTL:   getEnvAsDuration("NAV_CACHE_TTL", time.Hour),
		ScoreCron:     getEnv("SCORE_CRON", "0 0 2 * * *"),    // 02:00 daily
		ValidateCron:  getEnv("VALIDATE_CRON", "0 30 3 * * *"), // 03:30 daily
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("SCORING_WORKERS must be at least 1, got %d", c.Workers)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	return nil
}

// DatabasePath returns the absolute path for a named database file.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

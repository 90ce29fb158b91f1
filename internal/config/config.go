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
	DataDir    string // Base directory for databases and reports (always absolute)
	ReportDir  string // Directory for generated CSV reports (defaults under DataDir)
	SourceURL  string // Base URL of the upstream production feed
	WebhookURL string // Optional webhook for high-severity alert delivery
	LogLevel   string
	Port       int
	DevMode    bool

	// AlertThreshold is the efficiency percentage below which an employee
	// is flagged as an underperformer.
	AlertThreshold float64

	// RefreshInterval is how often the background monitor re-fetches the
	// upstream snapshot.
	RefreshInterval time.Duration

	// FilterDebounce is how long the filter coordinator waits after the
	// last selection change before fetching options.
	FilterDebounce time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("RTMS_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}

	// Always resolve to absolute path
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	// Ensure directory exists
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	reportDir := getEnv("REPORT_DIR", "")
	if reportDir == "" {
		reportDir = filepath.Join(absDataDir, "reports")
	}
	if err := os.MkdirAll(reportDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	cfg := &Config{
		DataDir:         absDataDir,
		ReportDir:       reportDir,
		Port:            getEnvAsInt("RTMS_PORT", 8001),
		DevMode:         getEnvAsBool("DEV_MODE", false),
		SourceURL:       getEnv("RTMS_SOURCE_URL", "http://localhost:8000"),
		WebhookURL:      getEnv("ALERT_WEBHOOK_URL", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		AlertThreshold:  getEnvAsFloat("ALERT_THRESHOLD", 85.0),
		RefreshInterval: time.Duration(getEnvAsInt("REFRESH_INTERVAL_MINUTES", 10)) * time.Minute,
		FilterDebounce:  time.Duration(getEnvAsInt("FILTER_DEBOUNCE_MS", 300)) * time.Millisecond,
	}

	if cfg.AlertThreshold <= 0 || cfg.AlertThreshold > 100 {
		return nil, fmt.Errorf("ALERT_THRESHOLD must be in (0, 100], got %.2f", cfg.AlertThreshold)
	}
	if cfg.RefreshInterval < time.Minute {
		return nil, fmt.Errorf("REFRESH_INTERVAL_MINUTES must be at least 1")
	}

	return cfg, nil
}

// DatabasePath returns the path of a named SQLite database under DataDir.
func (c *Config) DatabasePath(name string) string {
	return filepath.Join(c.DataDir, name+".db")
}

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

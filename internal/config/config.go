package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"retail-dashboard-api/internal/logging"
)

// Config holds all configuration for the application
type Config struct {
	Port                 string
	LogLevel             string
	LogFormat            string
	Environment          string
	DefaultLocale        string
	SeedDataPath         string
	PreferencesDriver    string
	PreferencesDSN       string
	PageSize             string
	SplitDraftTTL        string
	CacheCleanupInterval string
	SyncDuration         string
	SyncSteps            string
	SyncJobTTL           string
	MaxEventsInQueue     string
	AnalyticsSeed        string
	MetricsExporter      string
	MetricsAddr          string
}

// LoadConfig loads configuration from .env file and environment variables
func LoadConfig() *Config {
	// Existing environment variables take precedence over .env entries
	err := godotenv.Load()
	if err != nil {
		slog.Warn("Could not load .env file, continuing with system environment variables only", "error", err)
	} else {
		slog.Info("Successfully loaded .env file")
	}

	config := &Config{
		Port:                 getEnvWithDefault("PORT", "8080"),
		LogLevel:             getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvWithDefault("LOG_FORMAT", "text"),
		Environment:          getEnvWithDefault("ENVIRONMENT", "development"),
		DefaultLocale:        getEnvWithDefault("DEFAULT_LOCALE", "zh"),
		SeedDataPath:         getEnvWithDefault("SEED_DATA_PATH", ""),
		PreferencesDriver:    getEnvWithDefault("PREFERENCES_DRIVER", "memory"),
		PreferencesDSN:       getEnvWithDefault("PREFERENCES_DSN", "data/preferences.db"),
		PageSize:             getEnvWithDefault("PAGE_SIZE", "10"),
		SplitDraftTTL:        getEnvWithDefault("SPLIT_DRAFT_TTL", "30m"),
		CacheCleanupInterval: getEnvWithDefault("CACHE_CLEANUP_INTERVAL", "1m"),
		SyncDuration:         getEnvWithDefault("SYNC_DURATION", "3s"),
		SyncSteps:            getEnvWithDefault("SYNC_STEPS", "5"),
		SyncJobTTL:           getEnvWithDefault("SYNC_JOB_TTL", "10m"),
		MaxEventsInQueue:     getEnvWithDefault("MAX_EVENTS_IN_QUEUE", "1000"),
		AnalyticsSeed:        getEnvWithDefault("ANALYTICS_SEED", "42"),
		MetricsExporter:      getEnvWithDefault("METRICS_EXPORTER", ""),
		MetricsAddr:          getEnvWithDefault("METRICS_ADDR", ":9080"),
	}

	logging.SetupLogging(config.LogLevel, config.LogFormat)

	slog.Info("Configuration loaded",
		"port", config.Port,
		"environment", config.Environment,
		"logLevel", config.LogLevel,
		"defaultLocale", config.DefaultLocale,
		"seedDataPath", config.SeedDataPath,
		"preferencesDriver", config.PreferencesDriver,
		"pageSize", config.PageSize,
		"splitDraftTTL", config.SplitDraftTTL,
		"syncDuration", config.SyncDuration,
		"syncSteps", config.SyncSteps,
		"maxEventsInQueue", config.MaxEventsInQueue,
		"metricsExporter", config.MetricsExporter)

	return config
}

// Defaults returns a configuration with every default applied, without reading the environment.
func Defaults() *Config {
	return &Config{
		Port:                 "8080",
		LogLevel:             "info",
		LogFormat:            "text",
		Environment:          "test",
		DefaultLocale:        "zh",
		PreferencesDriver:    "memory",
		PreferencesDSN:       "data/preferences.db",
		PageSize:             "10",
		SplitDraftTTL:        "30m",
		CacheCleanupInterval: "1m",
		SyncDuration:         "3s",
		SyncSteps:            "5",
		SyncJobTTL:           "10m",
		MaxEventsInQueue:     "1000",
		AnalyticsSeed:        "42",
		MetricsAddr:          ":9080",
	}
}

// getEnvWithDefault gets an environment variable with a default fallback
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ParseBool parses a string to bool with a default value
func ParseBool(value string, defaultValue bool) bool {
	if value == "" {
		return defaultValue
	}

	switch strings.ToLower(value) {
	case "true", "1", "yes", "on", "enabled":
		return true
	case "false", "0", "no", "off", "disabled":
		return false
	default:
		slog.Warn("Invalid boolean value, using default",
			"value", value, "default", defaultValue)
		return defaultValue
	}
}

// ParseInt parses a string to int with a default value.
// Values below min are replaced by the default.
func ParseInt(value string, defaultValue, min int) int {
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		slog.Warn("Invalid integer value, using default",
			"value", value, "default", defaultValue, "error", err)
		return defaultValue
	}
	if parsed < min {
		slog.Warn("Integer value below minimum, using default",
			"value", parsed, "min", min, "default", defaultValue)
		return defaultValue
	}

	return parsed
}

// ParseInt64 parses a string to int64 with a default value
func ParseInt64(value string, defaultValue int64) int64 {
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		slog.Warn("Invalid integer value, using default",
			"value", value, "default", defaultValue, "error", err)
		return defaultValue
	}
	return parsed
}

// ParseDuration parses a Go duration string, falling back to the default on
// empty, malformed or non-positive input
func ParseDuration(value string, defaultValue time.Duration) time.Duration {
	if value == "" {
		return defaultValue
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		slog.Warn("Invalid duration value, using default",
			"value", value, "default", defaultValue.String(), "error", err)
		return defaultValue
	}
	return parsed
}

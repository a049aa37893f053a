// Package config loads the optional HTTP API's configuration from
// environment variables, in the teacher's backend/prover and
// backend/attester idiom (typed config with env-var defaults).
package config

import (
	"os"
	"strconv"
)

// Config holds the zkscaapi service configuration.
type Config struct {
	Port                   string
	Environment            string
	LogLevel               string
	RateLimitPerSecond     float64
	RateLimitBurst         int
	DevModeDefault         bool
	CycleReportDefault     bool
	MaxRequestBodyBytes    int64
}

// Load reads configuration from ZKSCA_* environment variables, falling
// back to production-sane defaults.
func Load() Config {
	return Config{
		Port:                getEnv("ZKSCA_PORT", "8080"),
		Environment:         getEnv("ZKSCA_ENVIRONMENT", "production"),
		LogLevel:            getEnv("ZKSCA_LOG_LEVEL", "info"),
		RateLimitPerSecond:  getEnvFloat("ZKSCA_RATE_LIMIT_PER_SECOND", 20),
		RateLimitBurst:      getEnvInt("ZKSCA_RATE_LIMIT_BURST", 5),
		DevModeDefault:      getEnvBool("ZKSCA_DEV_MODE_DEFAULT", false),
		CycleReportDefault:  getEnvBool("ZKSCA_CYCLE_REPORT_DEFAULT", false),
		MaxRequestBodyBytes: getEnvInt64("ZKSCA_MAX_REQUEST_BODY_BYTES", 64<<20),
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

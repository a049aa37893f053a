// Package obslog wraps zap as the module's structured logger: one global
// *zap.Logger configured once at process start and used via package-level
// helpers, mirroring the teacher's backend/pkg/logger package.
package obslog

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var log *zap.Logger

// Config configures the global logger.
type Config struct {
	Environment string
	Level       string
	Service     string
	Version     string
}

// Initialize builds and installs the global logger. Production
// environments get JSON output; anything else gets a human-readable
// console encoder.
func Initialize(cfg Config) error {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
	}

	var zapCfg zap.Config
	if cfg.Environment == "production" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	built, err := zapCfg.Build(zap.Fields(
		zap.String("service", cfg.Service),
		zap.String("version", cfg.Version),
	))
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	log = built
	return nil
}

func ensure() *zap.Logger {
	if log == nil {
		log, _ = zap.NewProduction()
	}
	return log
}

// Info logs at info level.
func Info(msg string, fields ...zap.Field) { ensure().Info(msg, fields...) }

// Warn logs at warn level.
func Warn(msg string, fields ...zap.Field) { ensure().Warn(msg, fields...) }

// Error logs at error level.
func Error(msg string, fields ...zap.Field) { ensure().Error(msg, fields...) }

// Fatal logs at fatal level and terminates the process.
func Fatal(msg string, fields ...zap.Field) { ensure().Fatal(msg, fields...) }

// Sync flushes buffered log entries. Call before process exit.
func Sync() {
	if log != nil {
		_ = log.Sync()
	}
}

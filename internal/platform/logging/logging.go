// Package logging builds the zap loggers used by claims entrypoints.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Settings selects the log level and encoding.
type Settings struct {
	Level  string `env:"REIMBURSE_LOG_LEVEL" envDefault:"info"`
	Format string `env:"REIMBURSE_LOG_FORMAT" envDefault:"json"`
}

// New returns a production logger writing to stderr with the given level
// (debug, info, warn, error) and format (json or console), tagged with the
// service name.
func New(service string, settings Settings) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.TrimSpace(settings.Level))
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}

	var config zap.Config
	switch strings.ToLower(strings.TrimSpace(settings.Format)) {
	case "", "json":
		config = zap.NewProductionConfig()
	case "console":
		config = zap.NewDevelopmentConfig()
		config.Development = false
	default:
		return nil, fmt.Errorf("unknown log format %q", settings.Format)
	}
	config.Level = zap.NewAtomicLevelAt(level)
	config.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

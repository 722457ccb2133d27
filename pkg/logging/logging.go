// Package logging configures the process-wide zap logger.
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel maps LOG_LEVEL values onto zap levels, defaulting to info.
func ParseLevel(v string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(v)))); err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// Setup builds a production logger at LOG_LEVEL and installs it as the
// global returned by zap.L(). Development environments get the console
// encoder.
func Setup() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if strings.EqualFold(os.Getenv("ENVIRONMENT"), "development") {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(os.Getenv("LOG_LEVEL")))

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}

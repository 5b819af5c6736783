// Package logging provides the structured logger carried by
// config.ProcessingConfig.Logger. Every component accepts a *zap.Logger instead of
// reaching for a package-level global; New/Nop give callers (including
// tests) an explicit, substitutable instance.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style console logger at the given level.
// verbose raises the level to debug; otherwise info.
func New(verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// Nop returns a logger that discards everything, used as the zero-value
// default so components never nil-check their logger.
func Nop() *zap.Logger { return zap.NewNop() }

// OrNop returns l if non-nil, otherwise a no-op logger.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

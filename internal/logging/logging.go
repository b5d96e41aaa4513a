// Package logging builds the logr.Logger used by the daemon, backed by zap.
package logging

import (
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level picks the zap level for the given switches.
// Disabled logging still reports errors. Verbose enables V(1) messages.
func Level(enabled, verbose bool) zapcore.Level {
	switch {
	case !enabled:
		return zapcore.ErrorLevel
	case verbose:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// New returns a logger writing to stderr, as JSON when json is set.
// The returned flush func syncs buffered entries and should be deferred.
func New(enabled, verbose, json bool) (logr.Logger, func(), error) {
	cfg := zap.NewDevelopmentConfig()
	if json {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(Level(enabled, verbose))
	cfg.DisableStacktrace = true

	zl, err := cfg.Build()
	if err != nil {
		return logr.Discard(), func() {}, err
	}
	return zapr.NewLogger(zl), func() { _ = zl.Sync() }, nil
}

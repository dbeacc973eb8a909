// Package logger constructs the single zap.Logger shared by every binary in
// the module: the certificate issuer, the config materializer, the sidecar,
// the policy-hashing driver, and the client all build one of these at
// startup; the issuer and the sidecar also pass it down to their library
// entry points.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls the verbosity and encoding of the process-wide
// logger. Debug selects development-style console output with debug level
// and caller info; otherwise the logger emits production JSON at info level.
type LoggerConfig struct {
	Debug bool
}

// NewLogger builds a *zap.Logger from cfg. Every caller in this module
// follows the same pattern: build the logger first thing in an Action or
// main, defer l.Sync(), and read/write through l.Sugar() everywhere else.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	var zapCfg zap.Config
	if cfg.Debug {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zapCfg = zap.NewProductionConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, nil
}

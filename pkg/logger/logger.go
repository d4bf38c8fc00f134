package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig controls logger construction.
type LoggerConfig struct {
	// Debug enables development-style output and debug-level logging.
	Debug bool
}

// NewLogger creates a zap logger. Production config by default; Debug flips to
// the development config with debug level enabled.
func NewLogger(cfg *LoggerConfig) (*zap.Logger, error) {
	if cfg == nil {
		cfg = &LoggerConfig{}
	}

	if cfg.Debug {
		zapCfg := zap.NewDevelopmentConfig()
		zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		return zapCfg.Build()
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return zapCfg.Build()
}

// NewNopLogger returns a logger that discards everything. For tests.
func NewNopLogger() *zap.Logger {
	return zap.NewNop()
}

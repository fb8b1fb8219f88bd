// Package logger builds the zap loggers shared by the server, worker, and
// CLI, plus helpers that keep sensitive values out of log output.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProductionLogger returns a JSON logger. Debug mode lowers the level;
// the encoding stays the same so log pipelines need no special casing.
func NewProductionLogger(debugMode bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFor(debugMode))
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	cfg.EncoderConfig.FunctionKey = zapcore.OmitKey
	return cfg.Build()
}

// NewDevelopmentLogger returns a console logger for local runs
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(levelFor(debugMode))
	return cfg.Build()
}

func levelFor(debugMode bool) zapcore.Level {
	if debugMode {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

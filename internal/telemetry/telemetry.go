// Package telemetry provides the structured logger shared across landmarked.
package telemetry

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = mustBuild()
)

func mustBuild() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	l, err := cfg.Build()
	if err != nil {
		// zap itself failed to initialize; fall back to a no-op logger
		// rather than letting a logging failure take down the process.
		return zap.NewNop()
	}
	return l
}

// Configure swaps the global logger, e.g. to point at a file sink or
// change level. Safe to call concurrently with Info/Warn/Error.
func Configure(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Info logs an informational message, mirroring the teacher's
// utils/logger.Info(msg string) call convention.
func Info(msg string, fields ...zap.Field) {
	current().Info(msg, fields...)
}

// Warn logs a recoverable-condition message.
func Warn(msg string, fields ...zap.Field) {
	current().Warn(msg, fields...)
}

// Error logs an error, mirroring the teacher's utils/logger.Error(err error).
func Error(err error, fields ...zap.Field) {
	if err == nil {
		return
	}
	current().Error(err.Error(), fields...)
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() {
	_ = current().Sync()
}

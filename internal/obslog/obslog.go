// Package obslog is the process-wide structured logger, wired the way
// the teacher's internal/utils/log package is used throughout its
// service layer: package-level Debug/Info/Warn/Error/Fatal functions
// backed by a shared *zap.Logger.
package obslog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.Mutex
	logger *zap.Logger
)

func current() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		l, err := zap.NewProduction()
		if err != nil {
			logger = zap.NewNop()
		} else {
			logger = l
		}
	}
	return logger
}

// SetLogger replaces the package-level logger, for callers that want
// development mode or a custom sink.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// Sync flushes any buffered log entries. Call before process exit.
func Sync() error {
	return current().Sync()
}

func Debug(msg string, fields ...zap.Field) { current().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { current().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { current().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { current().Error(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { current().Fatal(msg, fields...) }

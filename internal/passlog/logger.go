// Package passlog is the logging singleton shared by internal/vthread and
// internal/boundcheck: a sync.Once-guarded *zap.Logger, no-op by default.
package passlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the pass logger. It is a no-op logger unless SetLogger has
// been called, so passes stay quiet unless a caller opts in.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger installs l as the pass logger. Intended for the CLI and tests
// that want to observe pass tracing; it replaces the logger whether or not
// Logger() has already been called.
func SetLogger(l *zap.Logger) {
	loggerOnce.Do(func() {})
	logger = l
}

// Debugf is a convenience wrapper used by vthread and boundcheck for their
// debug tracing.
func Debugf(format string, args ...any) {
	Logger().Sugar().Debugf(format, args...)
}

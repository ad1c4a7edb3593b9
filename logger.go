package retouch

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[zap.Logger]

func init() {
	loggerPtr.Store(zap.NewNop())
}

// SetLogger configures the logger used by the editing engine.
// By default nothing is logged. Pass nil to restore the silent logger.
//
// Log levels used by the package:
//   - Debug: history transitions and per-operation statistics
//   - Error: broken internal invariants, like a boundary trace overflow
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger.
func Logger() *zap.Logger {
	return loggerPtr.Load()
}

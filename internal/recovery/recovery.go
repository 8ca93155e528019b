// Package recovery contains panics raised by background work so they are
// logged instead of crashing the process.
package recovery

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/yuyuan/litportal/internal/metrics"
)

// Go runs fn in a new goroutine. A panic inside fn is logged with its stack
// and swallowed. The returned channel is closed when fn returns.
func Go(logger *zap.Logger, name string, fn func()) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer Recover(logger, name)
		fn()
	}()
	return done
}

// Recover must be deferred. It stops a panic from propagating and logs it.
func Recover(logger *zap.Logger, name string) {
	rvr := recover()
	if rvr == nil {
		return
	}
	metrics.PanicsRecoveredTotal.WithLabelValues("goroutine").Inc()
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Error("panic recovered",
		zap.String("task", name),
		zap.String("panic", fmt.Sprint(rvr)),
		zap.Stack("stacktrace"),
	)
}

// Do runs fn on the calling goroutine and converts a panic into an error.
func Do(fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			metrics.PanicsRecoveredTotal.WithLabelValues("call").Inc()
			err = fmt.Errorf("panic: %v", rvr)
		}
	}()
	return fn()
}

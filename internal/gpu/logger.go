//go:build !nogpu

package gpu

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler silently discards all log records.
// Enabled returns false so no attributes are formatted while logging is off.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// loggerPtr stores the active logger. Accessed atomically for thread safety:
// combine.SetLogger may run while a dispatch is logging.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(slog.New(nopHandler{}))
}

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function.
//
// Messages are prefixed with "gpu-combine:" and use these levels:
//   - [slog.LevelDebug]: one record per dispatch with format, shape and
//     the number of planes encoded.
//   - [slog.LevelInfo]: adapter selected at Init, switch to a shared device.
//   - [slog.LevelWarn]: GPU initialization failed and the accelerator will
//     decline every job, so combines run on the CPU.
func slogger() *slog.Logger { return loggerPtr.Load() }

// setLogger updates the package-level logger.
// Called from CombineAccelerator.SetLogger when combine.SetLogger propagates.
// A nil logger restores the silent default.
//
// Example, from an application:
//
//	combine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func setLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(nopHandler{})
	}
	loggerPtr.Store(l)
}

package combine

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip attribute formatting entirely, which
// keeps disabled logging off the Execute hot path.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for combine and all its sub-packages.
// By default, combine produces no log output. Call SetLogger to enable
// logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically
// and passes it on to the registered accelerator, if that accelerator
// accepts a logger. Pass nil to disable logging (restore the silent
// default).
//
// Log levels used by combine:
//   - [slog.LevelDebug]: per-instance diagnostics. Configure logs the
//     instance id, format and shape it bound, or the error it rejected;
//     Execute logs the backend that ran (cpu or the accelerator name) and
//     the execution count, and notes when the accelerator declined a job.
//     The GPU accelerator logs each dispatch (format, shape, plane count).
//   - [slog.LevelInfo]: lifecycle events. Accelerator registration, GPU
//     adapter selection and switching to a shared GPU device.
//   - [slog.LevelWarn]: non-fatal problems. An accelerator error that forced
//     a CPU fallback, or a GPU that could not be initialized.
//
// Nothing is logged at [slog.LevelError]: every failure is returned to the
// caller as an error instead.
//
// Example:
//
//	// Enable info-level logging to stderr:
//	combine.SetLogger(slog.Default())
//
//	// Enable debug-level logging for full diagnostics:
//	combine.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	if a != nil {
		propagateLogger(a, l)
	}
}

// Logger returns the current logger used by combine.
// Sub-packages (gpu) call this to share the same logger
// configuration without introducing import cycles.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by accelerators that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes the logger to an accelerator if it implements
// loggerSetter.
func propagateLogger(a GPUAccelerator, l *slog.Logger) {
	if ls, ok := a.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

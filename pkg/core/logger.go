package core

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// NewNopLogger creates a logger that discards all output
func NewNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active package-wide logger
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(NewNopLogger())
}

// SetLogger configures the logger shared by the raytracer packages.
// By default nothing is logged. Pass nil to restore the silent default.
//
// Log levels used:
//   - [slog.LevelDebug]: per-tile and per-statement diagnostics
//   - [slog.LevelInfo]: render passes, scene loading
//   - [slog.LevelWarn]: skipped scene files, recoverable problems
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current shared logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

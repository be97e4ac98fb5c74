package glstate

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// Enabled returns false so callers skip message formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger configures the logger for glstate and its backends.
// By default, glstate produces no log output.
//
// SetLogger is safe for concurrent use. Pass nil to restore the silent
// default. Contexts created with [WithLogger] keep their own logger.
//
// Log levels used by glstate:
//   - [slog.LevelDebug]: every committed state transition
//   - [slog.LevelInfo]: context creation, backend selection
//   - [slog.LevelWarn]: rejected calls and native failures
//
// Example:
//
//	glstate.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the current logger used by glstate.
// Backends call this to share the same logger configuration.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by native layers that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// propagateLogger passes l to n if it implements loggerSetter.
func propagateLogger(n Native, l *slog.Logger) {
	if ls, ok := n.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}

// logger returns the logger of c, falling back to the package logger.
func (c *Context) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}
	return Logger()
}

// logAt logs msg tagged with the context id. Arguments are only assembled
// when the level is enabled.
func (c *Context) logAt(level slog.Level, msg string, args ...any) {
	l := c.logger()
	if !l.Enabled(context.Background(), level) {
		return
	}
	attrs := make([]any, 0, len(args)+4)
	attrs = append(attrs, "context_id", c.id.String())
	if c.label != "" {
		attrs = append(attrs, "label", c.label)
	}
	attrs = append(attrs, args...)
	l.Log(context.Background(), level, msg, attrs...)
}

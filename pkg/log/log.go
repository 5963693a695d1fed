// Package log defines the logging interface used across the module.
package log

import "log/slog"

// Logger is implemented by anything that can accept structured log lines.
// The engine and its collaborators depend on this interface rather than
// on *slog.Logger directly so an embedder can plug in their own logger.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
	// With returns a Logger that tags every subsequent line with
	// component, the way danl5-goelect splits one *slog.Logger into a
	// "rpc server" and "rpc client" logger via logger.With("component",
	// ...) in NewRPC. Each package constructor here (role.NewEngine,
	// registry.New, tcp.New, admin.NewServer) calls With once on the
	// logger it's handed so log lines are attributable to a subsystem
	// without every call site passing a message prefix by hand.
	With(component string) Logger
}

// slogLogger adapts a *slog.Logger to Logger.
type slogLogger struct {
	l *slog.Logger
}

// New wraps an existing *slog.Logger as a Logger.
func New(l *slog.Logger) Logger { return slogLogger{l: l} }

// Default returns a Logger backed by slog.Default().
func Default() Logger { return slogLogger{l: slog.Default()} }

func (s slogLogger) Debug(msg string, keysAndValues ...any) { s.l.Debug(msg, keysAndValues...) }
func (s slogLogger) Info(msg string, keysAndValues ...any)  { s.l.Info(msg, keysAndValues...) }
func (s slogLogger) Warn(msg string, keysAndValues ...any)  { s.l.Warn(msg, keysAndValues...) }
func (s slogLogger) Error(msg string, keysAndValues ...any) { s.l.Error(msg, keysAndValues...) }

func (s slogLogger) With(component string) Logger {
	return slogLogger{l: s.l.With("component", component)}
}

// noop discards everything. Useful as a default when the embedder does
// not care to wire a logger.
type noop struct{}

func (noop) Debug(string, ...any) {}
func (noop) Info(string, ...any)  {}
func (noop) Warn(string, ...any)  {}
func (noop) Error(string, ...any) {}
func (noop) With(string) Logger   { return noop{} }

// Noop returns a Logger that discards all messages.
func Noop() Logger { return noop{} }

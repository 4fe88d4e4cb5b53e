// Package log provides structured logging for recipeforge's build pipeline.
//
// Build components log through the Logger interface so tests can capture or
// silence output. Verbosity is a first-class type here rather than a raw
// slog.Level: the CLI's --quiet/--verbose/--debug flags map onto it, and New
// derives the handler configuration from it, so no caller ever constructs a
// slog handler directly.
package log

import (
	"io"
	"log/slog"
	"sync/atomic"
)

// Verbosity selects how much of a build run is narrated.
type Verbosity int

const (
	// Quiet keeps only per-artifact build failures and fatal errors.
	Quiet Verbosity = iota
	// Normal adds warnings: skipped manifests, dependency-failure skips.
	Normal
	// Verbose adds per-artifact progress: cache hits, downloads, unchanged
	// recipes.
	Verbose
	// Debug adds internal detail for troubleshooting a single recipe.
	Debug
)

// level returns the minimum slog.Level a Verbosity lets through.
func (v Verbosity) level() slog.Level {
	switch v {
	case Quiet:
		return slog.LevelError
	case Verbose:
		return slog.LevelInfo
	case Debug:
		return slog.LevelDebug
	default:
		return slog.LevelWarn
	}
}

// Logger is recipeforge's logging interface. The leveled methods match
// slog's signatures; ForArtifact scopes a Logger to one artifact id so
// every record from a build worker names the artifact it belongs to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	// With returns a Logger carrying extra key-value context on every
	// subsequent record.
	With(args ...any) Logger

	// ForArtifact returns a Logger whose records all carry the given
	// artifact id.
	ForArtifact(id string) Logger
}

// New returns a Logger writing slog text records to w, filtered to v.
func New(w io.Writer, v Verbosity) Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: v.level()})
	return &buildLogger{l: slog.New(h)}
}

// NewNoop returns a Logger that discards everything. Used by tests and as
// the fallback when no default has been installed.
func NewNoop() Logger {
	return New(io.Discard, Quiet)
}

// buildLogger is the slog-backed Logger implementation.
type buildLogger struct {
	l *slog.Logger
}

func (b *buildLogger) Debug(msg string, args ...any) { b.l.Debug(msg, args...) }
func (b *buildLogger) Info(msg string, args ...any)  { b.l.Info(msg, args...) }
func (b *buildLogger) Warn(msg string, args ...any)  { b.l.Warn(msg, args...) }
func (b *buildLogger) Error(msg string, args ...any) { b.l.Error(msg, args...) }

func (b *buildLogger) With(args ...any) Logger {
	return &buildLogger{l: b.l.With(args...)}
}

func (b *buildLogger) ForArtifact(id string) Logger {
	return b.With("artifact", id)
}

// holder wraps a Logger so defaultLogger only ever stores one concrete
// type, which atomic.Value requires.
type holder struct {
	l Logger
}

var defaultLogger atomic.Value

// Default returns the logger installed by SetDefault, or a discard logger
// if none has been installed yet.
func Default() Logger {
	if h, ok := defaultLogger.Load().(holder); ok {
		return h.l
	}
	return NewNoop()
}

// SetDefault installs the process-wide logger. Called once from main after
// the verbosity flags are parsed.
func SetDefault(l Logger) {
	defaultLogger.Store(holder{l: l})
}

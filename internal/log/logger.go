// Package log provides structured logging for ocrbatch.
//
// Subsystems take a Logger through functional options and fall back to the
// process-wide default. The default discards everything until main installs
// a CLI logger.
//
// Output semantics:
//   - User output (stdout): run summary and the report path
//   - Diagnostic logging (stderr): Debug, Info, Warn, Error messages
//
// Verbosity levels:
//   - ERROR (--quiet): errors only, including per-image failures
//   - WARN (default): warnings and errors
//   - INFO (--verbose): one line per processed image
//   - DEBUG (--debug): request parameters, media types, timings
package log

import (
	"io"
	"log/slog"
	"sync"
)

// Logger is the interface for structured logging.
// Methods match slog's signature for easy integration.
type Logger interface {
	// Debug logs internal details such as request parameters.
	Debug(msg string, args ...any)

	// Info logs operational context such as "image recognized".
	Info(msg string, args ...any)

	// Warn logs recoverable issues such as a clamped setting.
	Warn(msg string, args ...any)

	// Error logs failures, including per-image recognition failures
	// that do not stop the run.
	Error(msg string, args ...any)

	// With returns a Logger that adds the given key-value pairs to
	// every entry.
	With(args ...any) Logger
}

type slogLogger struct {
	l *slog.Logger
}

// New creates a Logger backed by slog with the given handler.
func New(h slog.Handler) Logger {
	return &slogLogger{l: slog.New(h)}
}

func (s *slogLogger) Debug(msg string, args ...any) {
	s.l.Debug(msg, args...)
}

func (s *slogLogger) Info(msg string, args ...any) {
	s.l.Info(msg, args...)
}

func (s *slogLogger) Warn(msg string, args ...any) {
	s.l.Warn(msg, args...)
}

func (s *slogLogger) Error(msg string, args ...any) {
	s.l.Error(msg, args...)
}

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

// NewCLIHandler returns the text handler used by the command line.
// Timestamps are dropped since every line belongs to a single run.
func NewCLIHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	})
}

// LevelFromFlags maps the verbosity flags to a slog level.
// The most verbose flag wins when several are set.
func LevelFromFlags(quiet, verbose, debug bool) slog.Level {
	switch {
	case debug:
		return slog.LevelDebug
	case verbose:
		return slog.LevelInfo
	case quiet:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

type noopLogger struct{}

// NewNoop returns a logger that discards all output.
func NewNoop() Logger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) With(...any) Logger   { return noopLogger{} }

var (
	defaultLogger Logger = noopLogger{}
	defaultMu     sync.RWMutex
)

// Default returns the global logger configured at startup.
// Returns a noop logger if SetDefault has not been called.
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// SetDefault sets the global logger. main calls it once after parsing the
// verbosity flags.
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

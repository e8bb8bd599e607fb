package emdgo

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with emdgo-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogPairFailure logs one failed pair during a batch computation.
func (l *Logger) LogPairFailure(err *PairError) {
	l.Error("pair computation failed",
		"i", err.I,
		"j", err.J,
		"status", err.Status.String(),
		"code", int(err.Status),
	)
}

// LogBatch logs the completion of a batch computation.
func (l *Logger) LogBatch(pairs int64, failures int, seconds float64) {
	if failures > 0 {
		l.Warn("pairwise batch completed with failures",
			"pairs", pairs,
			"failures", failures,
			"seconds", seconds,
		)
	} else {
		l.Info("pairwise batch completed",
			"pairs", pairs,
			"seconds", seconds,
		)
	}
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
)

// contextKey is a type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "requestID"
	runIDKey     contextKey = "runID"
)

// LevelTrace is below debug and only enabled with -vv
const LevelTrace = slog.LevelDebug - 4

var (
	mu     sync.RWMutex
	logger *slog.Logger
	output io.Writer = os.Stderr
)

func init() {
	// Compact handler for readable console output; stderr keeps stdout free for reports
	logger = slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

func current() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

func set(l *slog.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}

// SetOutput redirects log output, keeping the compact format at the given level
func SetOutput(w io.Writer, level slog.Level) {
	mu.Lock()
	output = w
	mu.Unlock()
	SetLevel(level)
}

// SetLevel changes the logging level
func SetLevel(level slog.Level) {
	mu.RLock()
	w := output
	mu.RUnlock()
	set(slog.New(NewCompactHandler(w, &slog.HandlerOptions{Level: level})))
}

// SetJSONOutput switches to JSON format output
func SetJSONOutput(level slog.Level) {
	mu.RLock()
	w := output
	mu.RUnlock()
	set(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

// LevelForVerbosity maps the -v count to a level: 0 info, 1 debug, 2+ trace
func LevelForVerbosity(count int) slog.Level {
	switch {
	case count >= 2:
		return LevelTrace
	case count == 1:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// Configure applies the verbosity count and format ("text" or "json")
func Configure(verbose int, format string) {
	level := LevelForVerbosity(verbose)
	if format == "json" {
		SetJSONOutput(level)
		return
	}
	SetLevel(level)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(requestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// WithRunID tags the context with the ID of one analysis run
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// GetRunID retrieves the analysis run ID from context
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(runIDKey).(string); ok {
		return runID
	}
	return ""
}

// Helper function to add request and run IDs to log attributes if present
func withIDs(ctx context.Context, args []any) []any {
	if runID := GetRunID(ctx); runID != "" {
		args = append([]any{"runID", runID}, args...)
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	return args
}

// Trace logs at TRACE level (very verbose, debug-time only)
func Trace(msg string, args ...any) {
	current().Log(context.Background(), LevelTrace, msg, args...)
}

// TraceContext logs at TRACE level with context
func TraceContext(ctx context.Context, msg string, args ...any) {
	current().Log(ctx, LevelTrace, msg, withIDs(ctx, args)...)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	current().Debug(msg, args...)
}

// DebugContext logs at DEBUG level with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	current().DebugContext(ctx, msg, withIDs(ctx, args)...)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	current().Info(msg, args...)
}

// InfoContext logs at INFO level with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	current().InfoContext(ctx, msg, withIDs(ctx, args)...)
}

// Warn logs at WARN level (per-file problems, skipped input)
func Warn(msg string, args ...any) {
	current().Warn(msg, args...)
}

// WarnContext logs at WARN level with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	current().WarnContext(ctx, msg, withIDs(ctx, args)...)
}

// Error logs at ERROR level (logical bugs that shouldn't happen)
func Error(msg string, args ...any) {
	current().Error(msg, args...)
}

// ErrorContext logs at ERROR level with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	current().ErrorContext(ctx, msg, withIDs(ctx, args)...)
}

// Fatal logs at ERROR level and exits
func Fatal(msg string, args ...any) {
	current().Error(msg, args...)
	os.Exit(1)
}

package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

const requestIDKey contextKey = "request_id"

var (
	level         = new(slog.LevelVar)
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default JSON logger
	SetOutput(os.Stdout)
}

// SetOutput sends all log lines to w as JSON.
func SetOutput(w io.Writer) {
	defaultLogger = slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

// SetLevel accepts debug, info, warn or error.
func SetLevel(name string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	level.Set(l)
	return nil
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Info logs an informational message with context.
func Info(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelInfo, msg, args...)
}

// Error logs an error message with context.
func Error(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelError, msg, args...)
}

// Warn logs a warning message with context.
func Warn(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelWarn, msg, args...)
}

// Debug logs a debug message with context.
func Debug(ctx context.Context, msg string, args ...any) {
	log(ctx, slog.LevelDebug, msg, args...)
}

func log(ctx context.Context, level slog.Level, msg string, args ...any) {
	id := GetRequestID(ctx)
	if id != "" {
		args = append(args, slog.String("request_id", id))
	}
	defaultLogger.Log(ctx, level, msg, args...)
}

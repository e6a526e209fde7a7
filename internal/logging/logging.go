// Package logging wraps zerolog with a process-wide logger and request-scoped helpers.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const requestIDKey contextKey = "request_id"

var (
	mu     sync.RWMutex
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
)

// Setup configures the global logger. format is "json" or "console".
func Setup(level, format string) {
	SetupWriter(level, format, os.Stdout)
}

func SetupWriter(level, format string, w io.Writer) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	out := w
	if format == "console" {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	mu.Lock()
	global = zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()
}

func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

func NewRequestID() string {
	return uuid.New().String()
}

func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// Ctx returns the global logger annotated with the request id carried by ctx.
//
//	logging.Ctx(ctx).Info().Uint("api_id", id).Msg("like recorded")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	if id := RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}

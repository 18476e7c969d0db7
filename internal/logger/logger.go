// Package logger provides a context-carried zerolog logger for the server.
package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

var loggerKey = ctxKey{}

// Init sets up the global logger at the given level.
func Init(level zerolog.Level) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(level)
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}
	log.Logger = zerolog.New(consoleWriter).With().Timestamp().Caller().Logger()
}

// ParseLevel maps a config string to a zerolog.Level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

// FromContext extracts the logger carried on ctx, falling back to the global logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return log.Logger
	}
	if l, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return l
	}
	return log.Logger
}

// WithContext attaches a logger to ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID attaches a request_id field and returns the updated context and logger.
func WithRequestID(ctx context.Context, requestID string) (context.Context, zerolog.Logger) {
	l := FromContext(ctx).With().Str("request_id", requestID).Logger()
	return WithContext(ctx, l), l
}

// WithScanID attaches a scan_id field.
func WithScanID(ctx context.Context, scanID string) (context.Context, zerolog.Logger) {
	l := FromContext(ctx).With().Str("scan_id", scanID).Logger()
	return WithContext(ctx, l), l
}

// WithJobID attaches a job_id field.
func WithJobID(ctx context.Context, jobID string) (context.Context, zerolog.Logger) {
	l := FromContext(ctx).With().Str("job_id", jobID).Logger()
	return WithContext(ctx, l), l
}

// WithSessionID attaches a session_id field.
func WithSessionID(ctx context.Context, sessionID string) (context.Context, zerolog.Logger) {
	l := FromContext(ctx).With().Str("session_id", sessionID).Logger()
	return WithContext(ctx, l), l
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config selects the level and handler format.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // text or json
}

// New returns a logger configured with a text handler writing to STDOUT.
func New() *slog.Logger {
	return NewWithConfig(os.Stdout, Config{})
}

// NewWithConfig returns a logger writing to w.
func NewWithConfig(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// NewFromEnv reads LOG_LEVEL and LOG_FORMAT.
func NewFromEnv(w io.Writer) *slog.Logger {
	return NewWithConfig(w, Config{Level: os.Getenv("LOG_LEVEL"), Format: os.Getenv("LOG_FORMAT")})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

// NewContext returns a copy of ctx with the logger stored.
func NewContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves a logger from ctx or returns slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.Default()
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

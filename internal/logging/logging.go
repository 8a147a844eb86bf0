// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls how Configure builds the logger.
type Config struct {
	Level      string
	Structured bool
	Format     string // "json" or "text"; only meaningful when Structured
}

// Configure builds a slog.Logger from cfg, sets it as the process
// default, and returns it.
func Configure(cfg Config) *slog.Logger {
	level := parseLevel(cfg.Level)
	out := io.Writer(os.Stderr)

	var handler slog.Handler
	if cfg.Structured && strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(out, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

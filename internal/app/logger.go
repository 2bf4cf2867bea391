package app

import (
	"io"
	"log/slog"
	"strings"
)

// NewLogger returns a slog.Logger writing to w, formatted by env:
// prod is JSON at INFO, anything else is text at DEBUG.
// LOG_LEVEL-style overrides ("warn", "error"...) go through level.
func NewLogger(env, level string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}
	if env == "prod" {
		opts.Level = slog.LevelInfo
	}
	if lvl, ok := parseLevel(level); ok {
		opts.Level = lvl
	}

	var handler slog.Handler
	if env == "prod" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("service", "realtime-relay")
}

func parseLevel(s string) (slog.Level, bool) {
	var l slog.Level
	if s == "" {
		return l, false
	}
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return l, false
	}
	return l, true
}

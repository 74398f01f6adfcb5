// Package logging builds the agent's structured logger. All log output is
// JSON on stderr; stdout stays free for the banner and anything a one-shot
// invocation may want to pipe.
package logging

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger at the given level. Level names
// follow slog ("debug", "info", "warn", "error", case-insensitive); an
// unrecognized name falls back to info rather than failing startup.
// Debug level also records source locations.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl == slog.LevelDebug,
	})
	return slog.New(handler)
}

// SanitizeToken shortens an auth token to its first and last four
// characters so a rejected credential can be correlated in logs without
// being disclosed by them.
func SanitizeToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}

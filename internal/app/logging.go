package app

import (
	"io"
	"log/slog"
	"strings"
)

// SetupLogging installs a text handler at the given level as the default
// slog logger, which clog falls back to when the context carries none.
// Unknown levels mean info.
func SetupLogging(w io.Writer, level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl})))
}

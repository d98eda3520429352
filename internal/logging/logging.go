// Package logging builds the service's slog logger and adapts it for GORM and gin.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/emilythestrangee/stackit/backend/internal/config"
)

// ParseLevel maps a config level name to a slog.Level. Unknown names yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "trace":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// New returns a logger writing to w. Format "json" selects the JSON handler,
// anything else the tint console handler.
func New(cfg config.LogConfig, w io.Writer) *slog.Logger {
	level := ParseLevel(cfg.Level)

	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.DateTime,
		})
	}
	return slog.New(h)
}

// Module returns a child logger tagged with the module name.
func Module(l *slog.Logger, name string) *slog.Logger {
	return l.With("module", name)
}

// LogError writes a failure with the event and error attributes every store
// and engine error carries.
func LogError(l *slog.Logger, event string, err error, attrs ...any) {
	args := append([]any{"event", event, "error", err}, attrs...)
	l.Error(fmt.Sprintf("%s failed", event), args...)
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}

package logsvc

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/trezcool/potluck/core"
)

// ParseLevel maps debug, info, warn and error to a slog level (info by default).
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewStdLogger returns a slog.Logger writing colored lines in debug mode and JSON otherwise.
// component is added to every record.
func NewStdLogger(w io.Writer, conf *core.Config, component string) *slog.Logger {
	level := ParseLevel(conf.LogLevel)
	if conf.Debug && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	var h slog.Handler
	if conf.Debug {
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return slog.New(h).With("component", component)
}

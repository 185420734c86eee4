// Package logging builds the process-wide slog logger and adapts it for gorm.
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	gormlogger "gorm.io/gorm/logger"
)

// New returns a logger writing to w. format is "json" or "text"; level is
// one of debug, info, warn, error (case-insensitive, default info).
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "text") {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(h)
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Gorm returns a gorm logger that writes through l. SQL statements are
// logged at debug level only; slow queries and errors always surface.
func Gorm(l *slog.Logger, level slog.Level) gormlogger.Interface {
	gl := gormlogger.Warn
	if level <= slog.LevelDebug {
		gl = gormlogger.Info
	}
	return gormlogger.New(
		slog.NewLogLogger(l.Handler(), slog.LevelInfo),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gl,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger and returns it.
// format "json" (or ENVIRONMENT=production) selects JSON output for log
// aggregation; anything else uses the human-readable text handler.
// Logs go to w so that CLI output on stdout stays machine-readable.
func Init(w io.Writer, level, format string) *slog.Logger {
	if strings.ToLower(os.Getenv("ENVIRONMENT")) == "production" {
		format = "json"
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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

// WithQuery returns a logger scoped to one query.
func WithQuery(logger *slog.Logger, kind, id string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("query_kind", kind, "query_id", id)
}

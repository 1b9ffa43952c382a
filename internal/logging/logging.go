package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ParseLevel converts a level name to slog.Level. Unknown names map to Info.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
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

// Setup builds a text logger writing to file, or to stderr when file is nil.
// Timestamps are RFC3339 in UTC.
func Setup(file io.Writer, level string) *slog.Logger {
	if file == nil {
		file = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
	return slog.New(slog.NewTextHandler(file, opts))
}

// OpenFile opens path for appending, creating it if needed. An empty path
// returns a nil writer so Setup falls back to stderr.
func OpenFile(path string) (io.WriteCloser, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return f, nil
}

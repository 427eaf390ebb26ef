package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds the logger configuration.
type Config struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Output is stdout, stderr or a file path prefixed with "file:".
	Output string `mapstructure:"output"`
}

// NewLogger initializes a slog logger for the runner. When output is nil the
// destination is taken from cfg.Output.
func NewLogger(cfg Config, output io.Writer) *slog.Logger {
	if output == nil {
		output = openOutput(cfg.Output)
	}

	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler).With("service", "orgu-runner")
}

// ParseLevel converts a level name to a slog.Level, falling back to info.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func openOutput(target string) io.Writer {
	switch {
	case target == "stderr":
		return os.Stderr
	case strings.HasPrefix(target, "file:"):
		path := strings.TrimPrefix(target, "file:")
		file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v\n", path, err)
			return os.Stdout
		}
		return file
	default:
		return os.Stdout
	}
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Name is the name of the application the logger is created for.
type Name string

// Config is the configuration for the logger.
type Config struct {
	// appName is added to every record.
	appName Name

	// level is the minimum level that is logged.
	level slog.Level

	// w is where the records are written to.
	w io.Writer
}

// NewConfig creates a new logging configuration. The level is read from the LOG_LEVEL environment variable and
// defaults to info.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: appName,
		level:   ParseLevel(os.Getenv(EnvLogLevel)),
		w:       os.Stdout,
	}
}

// WithWriter sets the writer of the config.
func (c *Config) WithWriter(w io.Writer) *Config {
	c.w = w
	return c
}

// CommonLogger creates the logger used across the application and sets it as the default logger.
func CommonLogger(c *Config) (*slog.Logger, error) {
	if c == nil {
		return nil, fmt.Errorf("logging config is nil")
	}
	if c.appName == "" {
		return nil, fmt.Errorf("logging config has no app name")
	}

	h := slog.NewJSONHandler(c.w, &slog.HandlerOptions{
		AddSource: c.level == slog.LevelDebug,
		Level:     c.level,
	})

	l := slog.New(h).With(slog.String(KeyApp, string(c.appName)))
	slog.SetDefault(l)
	return l, nil
}

// ParseLevel converts a level name into a slog level. Unknown names are treated as info.
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

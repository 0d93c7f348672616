// Package logging configures the zerolog loggers used by the binaries.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultLevel is used when no level is configured.
const DefaultLevel = zerolog.InfoLevel

// ParseLevel maps a level name onto a zerolog level. An empty name selects
// DefaultLevel.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.TrimSpace(strings.ToLower(name))
	if name == "" {
		return DefaultLevel, nil
	}

	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", name, err)
	}

	return level, nil
}

// New builds a console logger for app writing to w and installs it as the
// global logger. Binaries pass os.Stderr: stdout carries the protocol.
func New(app string, w io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}
	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app).
		Logger()
	log.Logger = logger

	return logger
}

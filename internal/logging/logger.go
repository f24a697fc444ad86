// Package logging construit le logger zerolog du service.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type loggerConfig struct {
	level   string
	sinks   []io.Writer
	console bool
	fields  map[string]string
}

type LoggerOpt func(*loggerConfig)

// WithLevel fixe le niveau (trace, debug, info, warn, error)
func WithLevel(level string) LoggerOpt {
	return func(c *loggerConfig) {
		c.level = level
	}
}

// WithSink ajoute une destination, stdout par défaut
func WithSink(w io.Writer) LoggerOpt {
	return func(c *loggerConfig) {
		c.sinks = append(c.sinks, w)
	}
}

// WithConsole active la sortie lisible du mode développement
func WithConsole(enabled bool) LoggerOpt {
	return func(c *loggerConfig) {
		c.console = enabled
	}
}

// WithField ajoute un champ fixe à chaque entrée
func WithField(key, value string) LoggerOpt {
	return func(c *loggerConfig) {
		c.fields[key] = value
	}
}

func NewLogger(opts ...LoggerOpt) (*zerolog.Logger, error) {
	cfg := &loggerConfig{level: "info", fields: map[string]string{}}
	for _, opt := range opts {
		opt(cfg)
	}

	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.level, err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	sinks := cfg.sinks
	if len(sinks) == 0 {
		sinks = []io.Writer{os.Stdout}
	}

	if cfg.console {
		for i, w := range sinks {
			sinks[i] = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
		}
	}

	var out io.Writer = sinks[0]
	if len(sinks) > 1 {
		out = zerolog.MultiLevelWriter(sinks...)
	}

	zctx := zerolog.New(out).Level(level).With().Timestamp()
	for k, v := range cfg.fields {
		zctx = zctx.Str(k, v)
	}

	logger := zctx.Logger()
	return &logger, nil
}

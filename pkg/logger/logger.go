// Package logger provides the structured logger shared by all eats packages.
// It is a thin wrapper over logrus so that callers can keep using
// WithField/WithError chains while components are tagged consistently.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a component-scoped logrus entry.
type Logger struct {
	*logrus.Entry
}

// Config configures a Logger.
type Config struct {
	Component string
	Level     string // debug, info, warn, error
	Format    string // text, json
	Output    io.Writer
}

// New creates a logger from cfg. Unknown levels fall back to info and unknown
// formats fall back to text.
func New(cfg Config) *Logger {
	base := logrus.New()

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	base.SetOutput(out)

	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		base.SetFormatter(&logrus.JSONFormatter{})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	component := strings.TrimSpace(cfg.Component)
	if component == "" {
		component = "eats"
	}
	return &Logger{Entry: base.WithField("component", component)}
}

// NewDefault creates an info-level text logger for a component.
func NewDefault(component string) *Logger {
	return New(Config{Component: component})
}

// Named returns a logger sharing the same sink but tagged with another component.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return NewDefault(component)
	}
	return &Logger{Entry: l.Entry.WithField("component", component)}
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *Logger {
	return New(Config{Component: "discard", Output: io.Discard})
}

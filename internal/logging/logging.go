// Package logging configures the process logger. Output always goes to
// stderr because stdout carries the MCP protocol stream.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Level  string
	Format string // text|json
	Output io.Writer
}

func New(opts Options) *logrus.Logger {
	l := logrus.New()
	if opts.Output != nil {
		l.SetOutput(opts.Output)
	} else {
		l.SetOutput(os.Stderr)
	}

	lvl, err := logrus.ParseLevel(strings.TrimSpace(opts.Level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return l
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Component returns an entry tagged with the component name.
func Component(l logrus.FieldLogger, name string) *logrus.Entry {
	if l == nil {
		l = Discard()
	}
	return l.WithField("component", name)
}

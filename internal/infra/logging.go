package infra

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// NewLogger builds a logger from the logging config values.
// Level is one of debug, info, warn, error (default info); format is
// "text" or "json" (default text).
func NewLogger(level, format string, out io.Writer) (*logrus.Logger, error) {
	l := logrus.New()
	if out != nil {
		l.SetOutput(out)
	}

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	l.SetLevel(lvl)

	switch strings.ToLower(format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, &ErrUnknownLogFormat{Format: format}
	}
	return l, nil
}

// ErrUnknownLogFormat is returned for a logging format other than text or json.
type ErrUnknownLogFormat struct {
	Format string
}

func (e *ErrUnknownLogFormat) Error() string {
	return "unknown log format: " + e.Format
}

// Discard returns an entry that drops everything. Components use it when
// no logger is supplied.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

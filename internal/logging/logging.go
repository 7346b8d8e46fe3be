// Package logging builds the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// New returns a logrus logger writing to stderr.  Production environments
// get JSON output so log shippers can parse fields; everything else gets the
// human-friendly text formatter.  An unknown level falls back to info.
func New(env, level string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	switch strings.ToLower(env) {
	case "prod", "production":
		log.SetFormatter(&logrus.JSONFormatter{})
	default:
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Discard returns a logger that drops everything.  Handy for tests.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

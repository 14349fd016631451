// Package logger owns the process-wide logrus logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log is the global logger instance.
var Log = logrus.New()

// Options configures Init.
type Options struct {
	Level  string
	Format string // "text" or "json"
	Output io.Writer
}

// Init configures the global logger. Output defaults to stderr so command
// output on stdout stays clean.
func Init(opts Options) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	Log.SetOutput(out)

	level, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		Log.SetLevel(logrus.InfoLevel)
		Log.Warnf("Invalid log level '%s', defaulting to 'info'. Error: %v", opts.Level, err)
	} else {
		Log.SetLevel(level)
	}

	if strings.EqualFold(opts.Format, "json") {
		Log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	Log.Debugf("Log level set to: %s", Log.GetLevel().String())
}

// Get returns the configured global logger.
func Get() *logrus.Logger {
	return Log
}

// With returns an entry tagged with the given component name.
func With(component string) *logrus.Entry {
	return Log.WithField("component", component)
}

// Package log is the logging front-end shared by all omnimedia packages.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

var std = logrus.New()

func init() {
	std.SetOutput(os.Stderr)
	std.SetLevel(logrus.InfoLevel)
	std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Options configures the logger.
type Options struct {
	Level  string
	JSON   bool
	Output io.Writer
}

// Setup applies opts to the shared logger. An unparsable level falls back
// to info.
func Setup(opts Options) {
	if opts.Output != nil {
		std.SetOutput(opts.Output)
	}

	if opts.JSON {
		std.SetFormatter(&logrus.JSONFormatter{})
	} else {
		std.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)
}

// Logger returns the shared logger.
func Logger() *logrus.Logger {
	return std
}

// WithField returns an entry with a single field set.
func WithField(key string, value interface{}) *logrus.Entry {
	return std.WithField(key, value)
}

// WithFields returns an entry with the given fields set.
func WithFields(fields Fields) *logrus.Entry {
	return std.WithFields(fields)
}

// WithError returns an entry with the error field set.
func WithError(err error) *logrus.Entry {
	return std.WithError(err)
}

func Error(args ...interface{})                 { std.Error(args...) }
func Errorf(format string, args ...interface{}) { std.Errorf(format, args...) }
func Warn(args ...interface{})                  { std.Warn(args...) }
func Warnf(format string, args ...interface{})  { std.Warnf(format, args...) }
func Info(args ...interface{})                  { std.Info(args...) }
func Infof(format string, args ...interface{})  { std.Infof(format, args...) }
func Debug(args ...interface{})                 { std.Debug(args...) }
func Debugf(format string, args ...interface{}) { std.Debugf(format, args...) }
func Fatal(args ...interface{})                 { std.Fatal(args...) }
func Fatalf(format string, args ...interface{}) { std.Fatalf(format, args...) }

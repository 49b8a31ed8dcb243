// Package logger provides structured logging for App Doctor using Logrus.
// It supports JSON and text formats, multiple log levels, and structured
// field logging through a process-wide logger instance.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// Global logger instance
var (
	log            *logrus.Logger
	mu             sync.Mutex
	currentLogFile io.Closer
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

// Initialize sets up the global logger with the specified configuration.
// It is safe to call more than once; a previously opened log file is closed.
// Parameters:
//   - level: log level (debug, info, warn, error, fatal)
//   - format: output format (json, text)
//   - output: output destination (stdout, stderr, file)
//   - outputFile: file path when output is "file"
func Initialize(level, format, output, outputFile string) error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to close previous log file: %v\n", err)
		}
		currentLogFile = nil
	}

	l := logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	l.SetLevel(lvl)

	switch format {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	case "text":
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}

	switch output {
	case "stdout":
		l.SetOutput(os.Stdout)
	case "stderr":
		l.SetOutput(os.Stderr)
	case "file":
		if outputFile == "" {
			return fmt.Errorf("logFile must be specified when logOutput is \"file\"")
		}
		file, err := os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", outputFile, err)
		}
		currentLogFile = file
		l.SetOutput(file)
	default:
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", output)
	}

	log = l
	return nil
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	return log
}

// WithFields returns a logger entry with structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// WithField returns a logger entry with a single structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return log.WithField(key, value)
}

// WithError returns a logger entry with an error field.
func WithError(err error) *logrus.Entry {
	return log.WithError(err)
}

// Debug logs a message at level Debug.
func Debug(args ...interface{}) { log.Debug(args...) }

// Info logs a message at level Info.
func Info(args ...interface{}) { log.Info(args...) }

// Warn logs a message at level Warn.
func Warn(args ...interface{}) { log.Warn(args...) }

// Error logs a message at level Error.
func Error(args ...interface{}) { log.Error(args...) }

// Fatal logs a message at level Fatal then exits.
func Fatal(args ...interface{}) { log.Fatal(args...) }

// Debugf logs a formatted message at level Debug.
func Debugf(format string, args ...interface{}) { log.Debugf(format, args...) }

// Infof logs a formatted message at level Info.
func Infof(format string, args ...interface{}) { log.Infof(format, args...) }

// Warnf logs a formatted message at level Warn.
func Warnf(format string, args ...interface{}) { log.Warnf(format, args...) }

// Errorf logs a formatted message at level Error.
func Errorf(format string, args ...interface{}) { log.Errorf(format, args...) }

// Fatalf logs a formatted message at level Fatal then exits.
func Fatalf(format string, args ...interface{}) { log.Fatalf(format, args...) }

// Close closes the log file if one is open. Safe to call multiple times.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		err := currentLogFile.Close()
		currentLogFile = nil
		return err
	}
	return nil
}

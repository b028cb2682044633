// Package logging wraps charmbracelet/log for jsonmend.
//
// All log output goes to stderr so stdout carries nothing but formatted JSON,
// reports and diffs. Call Setup once while the CLI starts, then create
// per-package loggers with New:
//
//	var logger = logging.New("repair")
//	logger.Debug("pass applied", "pass", "trailing_commas")
package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// Setup configures the global logger. quiet wins over verbose.
func Setup(verbose, quiet, jsonFormat bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	if quiet {
		level = log.ErrorLevel
	}

	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	if jsonFormat {
		log.SetFormatter(log.JSONFormatter)
	} else {
		log.SetFormatter(log.TextFormatter)
	}
}

// New returns a logger with the given component prefix. Loggers copy the
// default logger's settings when created, so Setup must run first.
func New(component string) *log.Logger {
	return log.WithPrefix(component)
}

// Discard returns a logger that drops everything. Library callers that do not
// want pipeline chatter pass it to the repair and batch packages.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// SetOutput overrides the default logger's writer, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Package rlog provides a thin per-module logging backend over
// github.com/op/go-logging, the logging library the katzenpost example
// repo uses throughout its server and client packages. It backs the
// ratchet session's debug-only state-transition logging (spec §4.10).
package rlog

import (
	"io"
	"os"

	logging "gopkg.in/op/go-logging.v1"
)

// Logger wraps a module-scoped go-logging logger.
type Logger struct {
	l *logging.Logger
}

var format = logging.MustStringFormatter(
	`%{time:15:04:05.000} %{level:.4s} %{module}: %{message}`,
)

// New returns a Logger for module that writes formatted records to stderr.
func New(module string) *Logger {
	return newWithWriter(module, os.Stderr, logging.DEBUG)
}

// Discard returns a Logger whose records are never written anywhere; used
// when Options.Debug is false so the hot path never even formats a string
// it won't emit.
func Discard() *Logger {
	return newWithWriter("ratchet", io.Discard, logging.CRITICAL)
}

func newWithWriter(module string, w io.Writer, level logging.Level) *Logger {
	base := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(base, format)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(level, "")

	l := logging.MustGetLogger(module)
	l.SetBackend(leveled)
	return &Logger{l: l}
}

// Debugf logs a debug-level state-transition record.
func (lg *Logger) Debugf(format string, args ...any) {
	if lg == nil {
		return
	}
	lg.l.Debugf(format, args...)
}

// Warningf logs a warning-level record.
func (lg *Logger) Warningf(format string, args ...any) {
	if lg == nil {
		return
	}
	lg.l.Warningf(format, args...)
}

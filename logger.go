package holdfast

import (
	"log"
	"os"
)

// Logger is the diagnostic sink the core reports non-fatal errors
// through (spec §6 "Error channel"). Runtime errors during append are
// reported but non-fatal; the engine keeps running. No third-party
// logging library appears anywhere in the retrieval pack, so the
// default implementation wraps the standard library logger (see
// DESIGN.md).
type Logger interface {
	Errorf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// stdLogger adapts *log.Logger to the Logger interface.
type stdLogger struct {
	l *log.Logger
}

// NewStdLogger returns a Logger backed by the standard library,
// writing to os.Stderr with a "holdfast: " prefix.
func NewStdLogger() Logger {
	return stdLogger{log.New(os.Stderr, "holdfast: ", log.LstdFlags)}
}

func (s stdLogger) Errorf(format string, args ...interface{}) {
	s.l.Printf("ERROR "+format, args...)
}

func (s stdLogger) Warnf(format string, args ...interface{}) {
	s.l.Printf("WARN "+format, args...)
}

func (s stdLogger) Debugf(format string, args ...interface{}) {
	s.l.Printf("DEBUG "+format, args...)
}

// noopLogger discards everything; used as a test default.
type noopLogger struct{}

func (noopLogger) Errorf(string, ...interface{}) {}
func (noopLogger) Warnf(string, ...interface{})  {}
func (noopLogger) Debugf(string, ...interface{}) {}

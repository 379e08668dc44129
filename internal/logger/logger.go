// Package logger is the command-line logging layer: a log.Logger with
// scopes, a verbose switch and optional size-rotated file output.
package logger

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Log flags
const (
	LstdFlags     = log.LstdFlags
	Lmicroseconds = log.Lmicroseconds
)

// Logger wraps the standard log.Logger with additional functionality.
type Logger struct {
	*log.Logger
	verbose bool
	closer  io.Closer
}

// New creates a logger that writes to stdout.
func New() *Logger {
	return NewWriter(os.Stdout)
}

// NewWriter creates a logger that writes to w.
func NewWriter(w io.Writer) *Logger {
	return &Logger{
		Logger: log.New(w, "", log.LstdFlags),
	}
}

// NewFile creates a logger that appends to path, rotating the file once it
// reaches maxSizeMB and deleting rotated files older than maxAgeDays.
func NewFile(path string, maxSizeMB, maxAgeDays int) *Logger {
	lj := &lumberjack.Logger{
		Filename: path,
		MaxSize:  maxSizeMB,
		MaxAge:   maxAgeDays,
	}
	l := NewWriter(lj)
	l.SetFlags(log.LstdFlags | log.Lmicroseconds)
	l.closer = lj
	return l
}

// SetVerbose enables Debugf output.
func (l *Logger) SetVerbose(v bool) {
	l.verbose = v
}

// WithScope returns a logger sharing l's output whose lines start with
// "[scope] ".
func (l *Logger) WithScope(scope string) *Logger {
	return &Logger{
		Logger:  log.New(l.Writer(), "["+scope+"] ", l.Flags()|log.Lmsgprefix),
		verbose: l.verbose,
	}
}

// Infof logs an informational message.
func (l *Logger) Infof(format string, args ...any) {
	l.Printf("INFO "+format, args...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...any) {
	l.Printf("ERROR "+format, args...)
}

// Debugf logs only when verbose output is enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l.verbose {
		l.Printf("DEBUG "+format, args...)
	}
}

// Close closes the log file, if any. Scoped loggers never own the output.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	c := l.closer
	l.closer = nil
	return c.Close()
}

// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// RunLogTimeFormat is the timestamp layout of run log lines.
const RunLogTimeFormat = "2006-01-02 15:04:05"

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, TimeFormat: RunLogTimeFormat}
	return log.NewWithOptions(w, opts)
}

// OpenRunLog opens (creating if needed) the append-only run log at path.
func OpenRunLog(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	return f, nil
}

// NewRunLogger returns a logger writing to both the console writer and the run log file.
//
// An empty path disables the file and the returned closer is a no-op.
func NewRunLogger(console io.Writer, path, level string) (*log.Logger, io.Closer, error) {
	if console == nil {
		console = os.Stderr
	}

	var closer io.Closer = io.NopCloser(nil)
	w := console
	if path != "" {
		f, err := OpenRunLog(path)
		if err != nil {
			return nil, nil, err
		}
		w = io.MultiWriter(console, f)
		closer = f
	}

	logger := NewLogger(w)
	if level != "" {
		ll, err := log.ParseLevel(level)
		if err != nil {
			closer.Close()
			return nil, nil, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
		}
		SetLogLevel(logger, ll)
	}
	return logger, closer, nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the [log.Level] for the given [log.Logger].
func SetLogLevel(l *log.Logger, ll log.Level) {
	l.SetLevel(ll)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// package shared defines shared helpers
package shared

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance with the specified [io.Writer], with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// NewFileLogger creates a [log.Logger] that appends to the file at path, creating parent directories as needed.
//
// Used by the TUI so log lines don't tear the rendered frame.
func NewFileLogger(path string) (*log.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return NewLogger(f), nil
}

// WithLogger creates a child [log.Logger] with the specified key-value pairs added to all log entries.
func WithLogger(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// SetLogLevel sets the level of l from its name ("debug", "info", "warn", "error").
//
// Unknown names leave the level untouched and return [ErrInvalidConfig].
func SetLogLevel(l *log.Logger, level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	ll, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: log level %q", ErrInvalidConfig, level)
	}
	l.SetLevel(ll)
	return nil
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}

// FormatDuration renders a track length in seconds as m:ss.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}

// Stars renders a 1-5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = max(0, min(rating, 5))
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

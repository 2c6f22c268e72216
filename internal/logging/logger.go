// Package logging provides the file-backed debug logger shared by the
// curriculum packages.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is the minimal logging surface used across curricula.
type Logger interface {
	Log(format string, args ...interface{})
}

var (
	pkgLogger   Logger
	pkgLoggerMu sync.RWMutex
)

// SetDefault installs the process-wide logger used by Logf.
// Passing nil disables package-level logging.
func SetDefault(l Logger) {
	pkgLoggerMu.Lock()
	defer pkgLoggerMu.Unlock()
	pkgLogger = l
}

// Default returns the process-wide logger, or a no-op logger if none is set.
func Default() Logger {
	pkgLoggerMu.RLock()
	defer pkgLoggerMu.RUnlock()
	if pkgLogger == nil {
		return NopLogger()
	}
	return pkgLogger
}

// Logf writes a message using the package-level logger.
// Components that are not handed a logger explicitly log through here.
func Logf(format string, args ...interface{}) {
	Default().Log(format, args...)
}

// DebugLogger writes timestamped lines to a file or writer.
type DebugLogger struct {
	mu   sync.Mutex
	out  io.Writer
	file *os.File
}

// NewDebugLogger creates a logger appending to the specified path.
// If the path is empty, returns a no-op logger.
// Creates parent directories if they don't exist.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	dir := filepath.Dir(logPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	logger := &DebugLogger{out: f, file: f}
	logger.Log("=== Curriculum Log Started at %s ===", time.Now().Format(time.RFC3339))

	return logger, nil
}

// NewWriterLogger creates a logger writing to w.
func NewWriterLogger(w io.Writer) *DebugLogger {
	return &DebugLogger{out: w}
}

// NewDebugLoggerForDir creates a logger in dir/.curricula/logs/curricula.log.
// Returns a no-op logger if the directory cannot be created.
func NewDebugLoggerForDir(dir string) *DebugLogger {
	logPath := filepath.Join(dir, ".curricula", "logs", "curricula.log")
	logger, err := NewDebugLogger(logPath)
	if err != nil {
		return &DebugLogger{}
	}
	return logger
}

// NopLogger returns a no-op logger for testing or when logging is disabled.
func NopLogger() *DebugLogger {
	return &DebugLogger{}
}

// Log writes a timestamped message.
// If the logger is nil or has no output, this is a no-op.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.out, "[%s] %s\n", timestamp, msg)
	if l.file != nil {
		l.file.Sync()
	}
}

// Close closes the log file.
// Safe to call on nil logger or logger without file.
func (l *DebugLogger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	return l.file.Close()
}

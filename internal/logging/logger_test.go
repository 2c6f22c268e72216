package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDebugLogger_EmptyPathIsNoop(t *testing.T) {
	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger(\"\") error: %v", err)
	}
	// Must not panic.
	l.Log("hello %d", 1)
	if err := l.Close(); err != nil {
		t.Errorf("Close() error: %v", err)
	}
}

func TestNewDebugLogger_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "debug.log")

	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger error: %v", err)
	}
	l.Log("lesson advanced for %s", "Brain1")
	if err := l.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "Curriculum Log Started") {
		t.Errorf("log missing header: %q", content)
	}
	if !strings.Contains(content, "lesson advanced for Brain1") {
		t.Errorf("log missing message: %q", content)
	}
}

func TestWriterLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	l.Log("value=%v", 0.5)

	if !strings.Contains(buf.String(), "value=0.5") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestNilLoggerIsSafe(t *testing.T) {
	var l *DebugLogger
	l.Log("ignored")
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil logger returned %v", err)
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewWriterLogger(&buf))
	t.Cleanup(func() { SetDefault(nil) })

	Logf("through %s", "package logger")
	if !strings.Contains(buf.String(), "through package logger") {
		t.Errorf("Logf did not reach default logger: %q", buf.String())
	}

	SetDefault(nil)
	// Falls back to no-op.
	Logf("dropped")
}

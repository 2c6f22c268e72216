package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/internal/metacurriculum"
)

const (
	lessonsV1 = `{"measure": "reward", "thresholds": [1, 2], "parameters": {"speed": [1, 2, 3]}}`
	lessonsV2 = `{"measure": "reward", "thresholds": [1, 2], "parameters": {"speed": [10, 20, 30]}}`
)

func setupWatcher(t *testing.T) (string, *metacurriculum.MetaCurriculum, *Watcher) {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Brain1.json"), []byte(lessonsV1), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mc, err := metacurriculum.New(dir, metacurriculum.WithLogger(logging.NopLogger()))
	if err != nil {
		t.Fatalf("metacurriculum.New failed: %v", err)
	}

	w, err := New(dir, mc, 20*time.Millisecond, logging.NopLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { w.Close() })

	return dir, mc, w
}

// nextEvent waits for an event about brain, skipping unrelated ones.
func nextEvent(t *testing.T, w *Watcher, brain string) Event {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-w.Events():
			if !ok {
				t.Fatal("events channel closed")
			}
			if ev.Brain == brain {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for event for %s", brain)
		}
	}
}

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	dir, mc, w := setupWatcher(t)
	mc.SetLessonNums(map[string]int{"Brain1": 1})

	if err := os.WriteFile(filepath.Join(dir, "Brain1.json"), []byte(lessonsV2), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	ev := nextEvent(t, w, "Brain1")
	if ev.Err != nil {
		t.Fatalf("reload error: %v", ev.Err)
	}
	if got := mc.Config(); got["speed"] != 20 {
		t.Errorf("Config() = %v, want speed 20 at lesson 1", got)
	}
}

func TestWatcher_AddsNewBrain(t *testing.T) {
	dir, mc, w := setupWatcher(t)

	if err := os.WriteFile(filepath.Join(dir, "Brain2.json"), []byte(lessonsV1), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	nextEvent(t, w, "Brain2")
	if _, ok := mc.Curriculum("Brain2"); !ok {
		t.Errorf("Brain2 not added; brains = %v", mc.Brains())
	}
}

func TestWatcher_RemovesDeletedBrain(t *testing.T) {
	dir, mc, w := setupWatcher(t)

	if err := os.Remove(filepath.Join(dir, "Brain1.json")); err != nil {
		t.Fatalf("remove: %v", err)
	}

	ev := nextEvent(t, w, "Brain1")
	if !ev.Removed {
		t.Errorf("expected removal event, got %+v", ev)
	}
	if len(mc.Brains()) != 0 {
		t.Errorf("brains = %v, want none", mc.Brains())
	}
	if got := mc.Config(); len(got) != 0 {
		t.Errorf("Config() = %v, want empty", got)
	}
}

func TestWatcher_InvalidFileReportsError(t *testing.T) {
	dir, mc, w := setupWatcher(t)

	if err := os.WriteFile(filepath.Join(dir, "Brain1.json"), []byte(`{"measure": `), 0644); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	ev := nextEvent(t, w, "Brain1")
	if ev.Err == nil {
		t.Error("expected reload error for malformed file")
	}
	if got := mc.Config(); got["speed"] != 1 {
		t.Errorf("Config() = %v, want previous curriculum kept", got)
	}
}

func TestIgnored(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/c/Brain1.json", false},
		{"/c/.Brain1.json.swp", true},
		{"/c/Brain1.json~", true},
	}
	for _, tt := range tests {
		if got := ignored(tt.path); got != tt.want {
			t.Errorf("ignored(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestClose_Idempotent(t *testing.T) {
	_, _, w := setupWatcher(t)

	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
}

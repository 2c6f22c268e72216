package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ShayCichocki/curricula/internal/metacurriculum"
	"github.com/ShayCichocki/curricula/internal/trainerconfig"
)

func TestExampleFilesLoad(t *testing.T) {
	root := t.TempDir()

	written, err := createExampleCurricula(root, false)
	if err != nil {
		t.Fatalf("createExampleCurricula failed: %v", err)
	}
	if !written {
		t.Fatal("expected example curricula to be written")
	}

	mc, err := metacurriculum.New(filepath.Join(root, exampleCurriculaDir))
	if err != nil {
		t.Fatalf("example curricula do not load: %v", err)
	}
	want := []string{"BigWallBrain", "SmallWallBrain"}
	if got := mc.Brains(); !reflect.DeepEqual(got, want) {
		t.Errorf("Brains() = %v, want %v", got, want)
	}

	cfg, err := trainerconfig.Parse([]byte(exampleTrainerConfig))
	if err != nil {
		t.Fatalf("example trainer config does not parse: %v", err)
	}
	for _, brain := range want {
		h, err := cfg.ForBrain(brain)
		if err != nil {
			t.Fatalf("ForBrain(%s) failed: %v", brain, err)
		}
		if h.BatchSize != 128 {
			t.Errorf("%s batch_size = %d, want 128", brain, h.BatchSize)
		}
	}
}

func TestCreateExampleCurricula_KeepsExisting(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, exampleCurriculaDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "Mine.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	written, err := createExampleCurricula(root, false)
	if err != nil {
		t.Fatalf("createExampleCurricula failed: %v", err)
	}
	if written {
		t.Error("existing curriculum folder should be left untouched")
	}
	if _, err := os.Stat(filepath.Join(dir, "BigWallBrain.json")); !os.IsNotExist(err) {
		t.Error("example file written despite existing folder")
	}
}

func TestUpdateGitignore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ".gitignore")
	if err := os.WriteFile(path, []byte("bin/"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := updateGitignore(root); err != nil {
		t.Fatalf("updateGitignore failed: %v", err)
	}
	if err := updateGitignore(root); err != nil {
		t.Fatalf("second updateGitignore failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "bin/\n") {
		t.Errorf("existing entries not preserved: %q", content)
	}
	if n := strings.Count(content, ".curricula/logs/"); n != 1 {
		t.Errorf(".curricula/logs/ appears %d times, want 1", n)
	}
}

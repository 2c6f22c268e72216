package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// tempDBPath returns a path to a temp database file.
func tempDBPath(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	return filepath.Join(dir, "test.db")
}

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

const insertRun = "INSERT INTO runs (id, curriculum_dir, started_at, updated_at, status) VALUES (?, ?, ?, ?, ?)"

func TestOpen(t *testing.T) {
	path := tempDBPath(t)
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if db.Path() != path {
		t.Errorf("Path() = %q, want %q", db.Path(), path)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b", "c")
	path := filepath.Join(nested, "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(nested); os.IsNotExist(err) {
		t.Errorf("parent directories not created: %s", nested)
	}
}

func TestClose(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	if err := db.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	_, err = db.Query("SELECT 1")
	if err == nil {
		t.Error("expected error after close, got nil")
	}
}

func TestMigrate(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	tables := []string{"schema_version", "runs", "lesson_nums", "lesson_events"}
	for _, table := range tables {
		var count int
		row := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table)
		if err := row.Scan(&count); err != nil {
			t.Errorf("failed to check table %s: %v", table, err)
		}
		if count != 1 {
			t.Errorf("table %s does not exist", table)
		}
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := Open(tempDBPath(t))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate (iteration %d) failed: %v", i, err)
		}
	}

	var version int
	row := db.QueryRow("SELECT MAX(version) FROM schema_version")
	if err := row.Scan(&version); err != nil {
		t.Fatalf("failed to get schema version: %v", err)
	}
	if version != 4 {
		t.Errorf("schema version = %d, want 4", version)
	}
}

func TestTransaction_Success(t *testing.T) {
	db := setupTestDB(t)

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(insertRun, "tx-1", "curricula", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "active")
		return err
	})
	if err != nil {
		t.Fatalf("Transaction failed: %v", err)
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", "tx-1")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if count != 1 {
		t.Error("transaction was not committed")
	}
}

func TestTransaction_Rollback(t *testing.T) {
	db := setupTestDB(t)

	err := db.Transaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(insertRun, "tx-fail", "curricula", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "active")
		if err != nil {
			return err
		}
		return fmt.Errorf("simulated error")
	})
	if err == nil {
		t.Error("expected error from Transaction")
	}

	var count int
	row := db.QueryRow("SELECT COUNT(*) FROM runs WHERE id = ?", "tx-fail")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if count != 0 {
		t.Error("transaction was not rolled back")
	}
}

func TestGlobalDBPath(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	path := GlobalDBPath()
	expected := "/custom/data/curricula/curricula.db"
	if path != expected {
		t.Errorf("GlobalDBPath() = %q, want %q", path, expected)
	}

	t.Setenv("XDG_DATA_HOME", "")
	path = GlobalDBPath()
	home, _ := os.UserHomeDir()
	expected = filepath.Join(home, ".local", "share", "curricula", "curricula.db")
	if path != expected {
		t.Errorf("GlobalDBPath() = %q, want %q", path, expected)
	}
}

func TestProjectDBPath(t *testing.T) {
	path := ProjectDBPath("/my/project")
	expected := "/my/project/.curricula/state.db"
	if path != expected {
		t.Errorf("ProjectDBPath() = %q, want %q", path, expected)
	}
}

func TestFormatAndParseTime(t *testing.T) {
	now := time.Now()
	formatted := formatTime(now)
	parsed, err := parseTime(formatted)
	if err != nil {
		t.Fatalf("parseTime failed: %v", err)
	}

	if !now.UTC().Equal(parsed) {
		t.Errorf("time round-trip failed: got %v, want %v", parsed, now.UTC())
	}
}

func TestFormatTime_SortsLexically(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	earlier := formatTime(base)
	later := formatTime(base.Add(500 * time.Millisecond))

	if !(earlier < later) {
		t.Errorf("formatted times do not sort: %q >= %q", earlier, later)
	}
}

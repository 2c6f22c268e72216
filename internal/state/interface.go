// Package state provides SQLite-based persistence for training runs.
package state

import "io"

// RunStore handles run-related persistence operations.
type RunStore interface {
	CreateRun(r *Run) error
	GetRun(id string) (*Run, error)
	GetLatestRun(status *RunStatus) (*Run, error)
	GetLatestRunInDir(dir string, status *RunStatus) (*Run, error)
	UpdateRun(r *Run) error
}

// LessonStore handles per-brain lesson persistence.
type LessonStore interface {
	SaveLessonNums(runID string, nums map[string]int) error
	LoadLessonNums(runID string) (map[string]int, error)
	SaveSmoothedValues(runID string, values map[string]float64) error
	LoadSmoothedValues(runID string) (map[string]float64, error)
	RecordLessonEvent(e *LessonEvent) error
	ListLessonEvents(runID string) ([]LessonEvent, error)
}

// Migrator handles database schema migrations.
// Separating this allows clients to depend only on migration functionality.
type Migrator interface {
	// Migrate applies all pending schema migrations.
	Migrate() error
}

// StateStore defines the interface for state persistence.
// It composes focused sub-interfaces for better modularity.
type StateStore interface {
	io.Closer
	Migrator
	RunStore
	LessonStore
}

// Compile-time verification that DB implements all interfaces.
var (
	_ StateStore  = (*DB)(nil)
	_ Migrator    = (*DB)(nil)
	_ RunStore    = (*DB)(nil)
	_ LessonStore = (*DB)(nil)
)

package state

import (
	"database/sql"
	"fmt"
	"time"
)

// RunStatus represents the status of a training run.
type RunStatus string

const (
	RunActive    RunStatus = "active"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)

// Run is one training run driven by a curriculum folder.
type Run struct {
	ID            string    `json:"id"`
	CurriculumDir string    `json:"curriculum_dir"`
	StartedAt     time.Time `json:"started_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Status        RunStatus `json:"status"`
}

// LessonEvent records one brain moving from one lesson to another.
type LessonEvent struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Brain      string    `json:"brain"`
	FromLesson int       `json:"from_lesson"`
	ToLesson   int       `json:"to_lesson"`
	Measure    float64   `json:"measure"`
	CreatedAt  time.Time `json:"created_at"`
}

// Run CRUD operations

// CreateRun creates a new run.
func (db *DB) CreateRun(r *Run) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.StartedAt
	}
	_, err := db.Exec(`
		INSERT INTO runs (id, curriculum_dir, started_at, updated_at, status)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.CurriculumDir, formatTime(r.StartedAt), formatTime(r.UpdatedAt), string(r.Status))
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. Returns nil if no such run exists.
func (db *DB) GetRun(id string) (*Run, error) {
	row := db.QueryRow(`
		SELECT id, curriculum_dir, started_at, updated_at, status
		FROM runs WHERE id = ?
	`, id)
	return scanRun(row)
}

// GetLatestRun returns the most recently started run, optionally filtered
// by status. Returns nil if there is none.
func (db *DB) GetLatestRun(status *RunStatus) (*Run, error) {
	var row *sql.Row
	if status != nil {
		row = db.QueryRow(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs WHERE status = ? ORDER BY started_at DESC LIMIT 1
		`, string(*status))
	} else {
		row = db.QueryRow(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs ORDER BY started_at DESC LIMIT 1
		`)
	}
	return scanRun(row)
}

// GetLatestRunInDir returns the most recently started run driven by the
// curriculum folder dir, optionally filtered by status. Returns nil if there
// is none.
func (db *DB) GetLatestRunInDir(dir string, status *RunStatus) (*Run, error) {
	var row *sql.Row
	if status != nil {
		row = db.QueryRow(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs WHERE curriculum_dir = ? AND status = ?
			ORDER BY started_at DESC LIMIT 1
		`, dir, string(*status))
	} else {
		row = db.QueryRow(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs WHERE curriculum_dir = ?
			ORDER BY started_at DESC LIMIT 1
		`, dir)
	}
	return scanRun(row)
}

// ListRuns lists runs newest first, optionally filtered by status.
func (db *DB) ListRuns(status *RunStatus) ([]Run, error) {
	var rows *sql.Rows
	var err error
	if status != nil {
		rows, err = db.Query(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs WHERE status = ? ORDER BY started_at DESC
		`, string(*status))
	} else {
		rows, err = db.Query(`
			SELECT id, curriculum_dir, started_at, updated_at, status
			FROM runs ORDER BY started_at DESC
		`)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedAt, updatedAt string
		if err := rows.Scan(&r.ID, &r.CurriculumDir, &startedAt, &updatedAt, &r.Status); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = parseTime(startedAt)
		r.UpdatedAt, _ = parseTime(updatedAt)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// UpdateRun updates a run's status and touches its update time.
func (db *DB) UpdateRun(r *Run) error {
	r.UpdatedAt = time.Now()
	_, err := db.Exec(`
		UPDATE runs SET curriculum_dir = ?, updated_at = ?, status = ?
		WHERE id = ?
	`, r.CurriculumDir, formatTime(r.UpdatedAt), string(r.Status), r.ID)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var startedAt, updatedAt string
	err := row.Scan(&r.ID, &r.CurriculumDir, &startedAt, &updatedAt, &r.Status)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	r.StartedAt, _ = parseTime(startedAt)
	r.UpdatedAt, _ = parseTime(updatedAt)
	return &r, nil
}

// Lesson operations

// SaveLessonNums upserts the lesson of every brain in nums for a run.
func (db *DB) SaveLessonNums(runID string, nums map[string]int) error {
	now := formatTime(time.Now())
	return db.Transaction(func(tx *sql.Tx) error {
		for brain, n := range nums {
			_, err := tx.Exec(`
				INSERT INTO lesson_nums (run_id, brain, lesson_num, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (run_id, brain) DO UPDATE SET
					lesson_num = excluded.lesson_num,
					updated_at = excluded.updated_at
			`, runID, brain, n, now)
			if err != nil {
				return fmt.Errorf("save lesson for %s: %w", brain, err)
			}
		}
		if _, err := tx.Exec(`UPDATE runs SET updated_at = ? WHERE id = ?`, now, runID); err != nil {
			return fmt.Errorf("touch run: %w", err)
		}
		return nil
	})
}

// LoadLessonNums returns the stored lesson of every brain in a run.
func (db *DB) LoadLessonNums(runID string) (map[string]int, error) {
	rows, err := db.Query(`
		SELECT brain, lesson_num FROM lesson_nums WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load lesson nums: %w", err)
	}
	defer rows.Close()

	nums := make(map[string]int)
	for rows.Next() {
		var brain string
		var n int
		if err := rows.Scan(&brain, &n); err != nil {
			return nil, fmt.Errorf("scan lesson num: %w", err)
		}
		nums[brain] = n
	}
	return nums, rows.Err()
}

// SaveSmoothedValues upserts the running smoothed measure of every brain in
// values for a run.
func (db *DB) SaveSmoothedValues(runID string, values map[string]float64) error {
	now := formatTime(time.Now())
	return db.Transaction(func(tx *sql.Tx) error {
		for brain, v := range values {
			_, err := tx.Exec(`
				INSERT INTO lesson_nums (run_id, brain, smoothed_value, updated_at)
				VALUES (?, ?, ?, ?)
				ON CONFLICT (run_id, brain) DO UPDATE SET
					smoothed_value = excluded.smoothed_value,
					updated_at = excluded.updated_at
			`, runID, brain, v, now)
			if err != nil {
				return fmt.Errorf("save smoothed value for %s: %w", brain, err)
			}
		}
		return nil
	})
}

// LoadSmoothedValues returns the stored smoothed measure of every brain in
// a run.
func (db *DB) LoadSmoothedValues(runID string) (map[string]float64, error) {
	rows, err := db.Query(`
		SELECT brain, smoothed_value FROM lesson_nums WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("load smoothed values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]float64)
	for rows.Next() {
		var brain string
		var v float64
		if err := rows.Scan(&brain, &v); err != nil {
			return nil, fmt.Errorf("scan smoothed value: %w", err)
		}
		values[brain] = v
	}
	return values, rows.Err()
}

// RecordLessonEvent appends a lesson change to the run's history.
func (db *DB) RecordLessonEvent(e *LessonEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	result, err := db.Exec(`
		INSERT INTO lesson_events (run_id, brain, from_lesson, to_lesson, measure, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Brain, e.FromLesson, e.ToLesson, e.Measure, formatTime(e.CreatedAt))
	if err != nil {
		return fmt.Errorf("record lesson event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get lesson event id: %w", err)
	}
	e.ID = id
	return nil
}

// ListLessonEvents returns a run's lesson changes in the order they happened.
func (db *DB) ListLessonEvents(runID string) ([]LessonEvent, error) {
	rows, err := db.Query(`
		SELECT id, run_id, brain, from_lesson, to_lesson, measure, created_at
		FROM lesson_events WHERE run_id = ? ORDER BY id
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list lesson events: %w", err)
	}
	defer rows.Close()

	var events []LessonEvent
	for rows.Next() {
		var e LessonEvent
		var createdAt string
		if err := rows.Scan(&e.ID, &e.RunID, &e.Brain, &e.FromLesson, &e.ToLesson, &e.Measure, &createdAt); err != nil {
			return nil, fmt.Errorf("scan lesson event: %w", err)
		}
		e.CreatedAt, _ = parseTime(createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

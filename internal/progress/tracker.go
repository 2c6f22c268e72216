// Package progress ties a meta curriculum to persistent run state. A
// Tracker is called by the training loop after each evaluation window; it
// advances lessons and records every change so the run can be resumed.
package progress

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/internal/state"
	"github.com/ShayCichocki/curricula/pkg/models"
)

// ErrNoRun is returned when an operation needs a run and none is active.
var ErrNoRun = errors.New("no active run")

// ErrRunDirMismatch is returned when resuming a run that was driven by a
// different curriculum folder.
var ErrRunDirMismatch = errors.New("run belongs to a different curriculum folder")

// Coordinator is the lesson state a Tracker drives.
type Coordinator interface {
	Dir() string
	LessonNums() map[string]int
	SetLessonNums(nums map[string]int)
	SmoothedValues() map[string]float64
	SetSmoothedValues(values map[string]float64)
	SetAllCurriculaToLessonNum(n int)
	IncrementLessons(measures map[string]float64, bufferSizes map[string]int) map[string]bool
	Config() models.ResetParameters
}

// Store persists runs and their lessons.
type Store interface {
	state.RunStore
	state.LessonStore
}

// Tracker advances lessons and persists the outcome.
type Tracker struct {
	coord  Coordinator
	store  Store
	logger logging.Logger
	run    *state.Run
}

// NewTracker creates a tracker. A nil logger falls back to the package
// default.
func NewTracker(coord Coordinator, store Store, logger logging.Logger) *Tracker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Tracker{
		coord:  coord,
		store:  store,
		logger: logger,
	}
}

// Run returns the tracked run, or nil before Start or Resume.
func (t *Tracker) Run() *state.Run {
	return t.run
}

// Start begins a new run. If startLesson is non-negative every brain is
// moved to that lesson first.
func (t *Tracker) Start(startLesson int) (*state.Run, error) {
	if startLesson >= 0 {
		t.coord.SetAllCurriculaToLessonNum(startLesson)
	}

	run := &state.Run{
		ID:            uuid.New().String(),
		CurriculumDir: t.coord.Dir(),
		StartedAt:     time.Now(),
		Status:        state.RunActive,
	}
	if err := t.store.CreateRun(run); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	if err := t.save(run.ID); err != nil {
		return nil, fmt.Errorf("save initial lessons: %w", err)
	}

	t.run = run
	t.logger.Log("run %s started from %s with lessons %s", run.ID, run.CurriculumDir, formatLessons(t.coord.LessonNums()))
	return run, nil
}

// Resume continues an existing run, restoring the stored lessons and
// smoothed measures. An empty runID resumes the most recent active run of
// the coordinator's curriculum folder. A run from another folder is
// rejected with ErrRunDirMismatch.
func (t *Tracker) Resume(runID string) (*state.Run, error) {
	dir := t.coord.Dir()

	var run *state.Run
	var err error
	if runID == "" {
		active := state.RunActive
		run, err = t.store.GetLatestRunInDir(dir, &active)
	} else {
		run, err = t.store.GetRun(runID)
	}
	if err != nil {
		return nil, fmt.Errorf("resume run: %w", err)
	}
	if run == nil {
		return nil, ErrNoRun
	}
	if filepath.Clean(run.CurriculumDir) != filepath.Clean(dir) {
		return nil, fmt.Errorf("resume run %s from %s in %s: %w", run.ID, run.CurriculumDir, dir, ErrRunDirMismatch)
	}

	nums, err := t.store.LoadLessonNums(run.ID)
	if err != nil {
		return nil, fmt.Errorf("resume run %s: %w", run.ID, err)
	}
	smoothed, err := t.store.LoadSmoothedValues(run.ID)
	if err != nil {
		return nil, fmt.Errorf("resume run %s: %w", run.ID, err)
	}
	t.coord.SetLessonNums(nums)
	t.coord.SetSmoothedValues(smoothed)

	t.run = run
	t.logger.Log("run %s resumed with lessons %s", run.ID, formatLessons(t.coord.LessonNums()))
	return run, nil
}

// Step offers one evaluation window's measures to the coordinator.
// bufferSizes may be nil. Every lesson change is recorded as an event
// carrying the value that crossed the threshold, and the resulting lessons
// and smoothed measures are saved. The returned map is the coordinator's
// advancement result.
func (t *Tracker) Step(measures map[string]float64, bufferSizes map[string]int) (map[string]bool, error) {
	if t.run == nil {
		return nil, ErrNoRun
	}

	before := t.coord.LessonNums()
	advanced := t.coord.IncrementLessons(measures, bufferSizes)
	after := t.coord.LessonNums()
	compared := t.coord.SmoothedValues()

	brains := make([]string, 0, len(advanced))
	for brain, ok := range advanced {
		if ok {
			brains = append(brains, brain)
		}
	}
	sort.Strings(brains)

	for _, brain := range brains {
		event := &state.LessonEvent{
			RunID:      t.run.ID,
			Brain:      brain,
			FromLesson: before[brain],
			ToLesson:   after[brain],
			Measure:    compared[brain],
		}
		if err := t.store.RecordLessonEvent(event); err != nil {
			return advanced, fmt.Errorf("record lesson change for %s: %w", brain, err)
		}
		t.logger.Log("run %s: %s moved from lesson %d to %d (measure %g)",
			t.run.ID, brain, event.FromLesson, event.ToLesson, event.Measure)
	}

	if len(advanced) > 0 {
		if err := t.save(t.run.ID); err != nil {
			return advanced, fmt.Errorf("save lessons: %w", err)
		}
	}
	return advanced, nil
}

// SetLessonNums overrides lessons for the named brains and persists them.
func (t *Tracker) SetLessonNums(nums map[string]int) error {
	if t.run == nil {
		return ErrNoRun
	}
	t.coord.SetLessonNums(nums)
	return t.save(t.run.ID)
}

// SetAllLessonNums moves every brain to lesson n and persists the result.
func (t *Tracker) SetAllLessonNums(n int) error {
	if t.run == nil {
		return ErrNoRun
	}
	t.coord.SetAllCurriculaToLessonNum(n)
	return t.save(t.run.ID)
}

// save persists the coordinator's lessons and smoothed measures.
func (t *Tracker) save(runID string) error {
	if err := t.store.SaveLessonNums(runID, t.coord.LessonNums()); err != nil {
		return err
	}
	return t.store.SaveSmoothedValues(runID, t.coord.SmoothedValues())
}

// LessonNums returns the current lesson of every brain.
func (t *Tracker) LessonNums() map[string]int {
	return t.coord.LessonNums()
}

// Config returns the combined reset parameters for the next episode.
func (t *Tracker) Config() models.ResetParameters {
	return t.coord.Config()
}

// Finish marks the run with a terminal status.
func (t *Tracker) Finish(status state.RunStatus) error {
	if t.run == nil {
		return ErrNoRun
	}
	t.run.Status = status
	if err := t.store.UpdateRun(t.run); err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	t.logger.Log("run %s finished: %s", t.run.ID, status)
	return nil
}

func formatLessons(nums map[string]int) string {
	brains := make([]string, 0, len(nums))
	for brain := range nums {
		brains = append(brains, brain)
	}
	sort.Strings(brains)

	s := "{"
	for i, brain := range brains {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s:%d", brain, nums[brain])
	}
	return s + "}"
}

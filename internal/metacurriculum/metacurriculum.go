// Package metacurriculum coordinates the curricula of every brain in a
// training run: it loads them from a folder, decides when each brain moves
// to its next lesson, and combines the active lessons into one set of reset
// parameters.
package metacurriculum

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ShayCichocki/curricula/internal/curriculum"
	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/pkg/models"
)

// Curriculum is the per-brain lesson state the coordinator drives.
type Curriculum interface {
	LessonNum() int
	SetLessonNum(n int)
	MinLessonLength() int
	IncrementLesson(measure float64) bool
	SmoothedValue() float64
	SetSmoothedValue(v float64)
	Config() models.ResetParameters
}

// Compile-time verification that the file-backed curriculum satisfies the
// coordinator's interface.
var _ Curriculum = (*curriculum.Curriculum)(nil)

// MetaCurriculum owns one Curriculum per brain.
type MetaCurriculum struct {
	mu        sync.RWMutex
	dir       string
	curricula map[string]Curriculum
	paths     map[string]string
	loader    Loader
	logger    logging.Logger
}

// New loads one curriculum per file found directly in dir. Each brain is
// named after its file with the outermost extension removed.
func New(dir string, opts ...Option) (*MetaCurriculum, error) {
	mc := newMetaCurriculum(opts...)
	mc.dir = dir

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &Error{Dir: dir, Err: err}
	}

	usedParams := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		brain := models.BrainName(entry.Name())

		c, err := mc.loader(path)
		if err != nil {
			return nil, fmt.Errorf("load curriculum for brain %s: %w", brain, err)
		}
		mc.curricula[brain] = c
		mc.paths[brain] = path

		for _, param := range c.Config().Keys() {
			if owner, ok := usedParams[param]; ok {
				mc.logger.Log("WARNING: brains %s and %s both change reset parameter %q; %s wins when configs are combined",
					owner, brain, param, laterBrain(owner, brain))
				continue
			}
			usedParams[param] = brain
		}
	}

	mc.logger.Log("loaded %d curricula from %s: %s", len(mc.curricula), dir, strings.Join(mc.brainsLocked(), ", "))
	return mc, nil
}

// NewFromCurricula builds a coordinator around already constructed curricula.
func NewFromCurricula(curricula map[string]Curriculum, opts ...Option) *MetaCurriculum {
	mc := newMetaCurriculum(opts...)
	for brain, c := range curricula {
		mc.curricula[brain] = c
	}
	return mc
}

func newMetaCurriculum(opts ...Option) *MetaCurriculum {
	mc := &MetaCurriculum{
		curricula: make(map[string]Curriculum),
		paths:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(mc)
	}
	if mc.logger == nil {
		mc.logger = logging.Default()
	}
	if mc.loader == nil {
		mc.loader = fileLoader(mc.logger)
	}
	return mc
}

// laterBrain returns whichever brain's parameters are applied last by Config.
func laterBrain(a, b string) string {
	if a > b {
		return a
	}
	return b
}

// Dir returns the folder the curricula were loaded from, if any.
func (mc *MetaCurriculum) Dir() string {
	return mc.dir
}

// Brains returns the names of all owned brains in sorted order.
func (mc *MetaCurriculum) Brains() []string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.brainsLocked()
}

func (mc *MetaCurriculum) brainsLocked() []string {
	brains := make([]string, 0, len(mc.curricula))
	for brain := range mc.curricula {
		brains = append(brains, brain)
	}
	sort.Strings(brains)
	return brains
}

// Curriculum returns the curriculum for brain.
func (mc *MetaCurriculum) Curriculum(brain string) (Curriculum, bool) {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	c, ok := mc.curricula[brain]
	return c, ok
}

// Path returns the file brain's curriculum was loaded from.
func (mc *MetaCurriculum) Path(brain string) string {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return mc.paths[brain]
}

// LessonNums returns the current lesson of every brain.
func (mc *MetaCurriculum) LessonNums() map[string]int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	nums := make(map[string]int, len(mc.curricula))
	for brain, c := range mc.curricula {
		nums[brain] = c.LessonNum()
	}
	return nums
}

// SetLessonNums sets the lesson of each brain named in nums. Brains the
// coordinator does not own are ignored.
func (mc *MetaCurriculum) SetLessonNums(nums map[string]int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for brain, n := range nums {
		if c, ok := mc.curricula[brain]; ok {
			c.SetLessonNum(n)
		}
	}
}

// SmoothedValues returns the value each brain last compared against its
// threshold.
func (mc *MetaCurriculum) SmoothedValues() map[string]float64 {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	values := make(map[string]float64, len(mc.curricula))
	for brain, c := range mc.curricula {
		values[brain] = c.SmoothedValue()
	}
	return values
}

// SetSmoothedValues restores the running smoothed measure of each brain
// named in values. Brains the coordinator does not own are ignored.
func (mc *MetaCurriculum) SetSmoothedValues(values map[string]float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for brain, v := range values {
		if c, ok := mc.curricula[brain]; ok {
			c.SetSmoothedValue(v)
		}
	}
}

// SetAllCurriculaToLessonNum sets every brain to lesson n.
func (mc *MetaCurriculum) SetAllCurriculaToLessonNum(n int) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	for _, c := range mc.curricula {
		c.SetLessonNum(n)
	}
}

// IncrementLessons offers each brain's measure to its curriculum.
//
// bufferSizes is optional. When it is non-nil a brain is only considered
// once its reward buffer holds at least MinLessonLength entries; a brain
// missing from bufferSizes counts as an empty buffer. An empty non-nil map
// therefore gates every brain with a positive minimum, unlike a nil map.
//
// The returned map has an entry for every brain whose curriculum was
// consulted, true when its lesson advanced.
func (mc *MetaCurriculum) IncrementLessons(measures map[string]float64, bufferSizes map[string]int) map[string]bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	result := make(map[string]bool)
	for _, brain := range mc.brainsLocked() {
		measure, ok := measures[brain]
		if !ok {
			continue
		}
		c := mc.curricula[brain]
		if bufferSizes != nil && bufferSizes[brain] < c.MinLessonLength() {
			continue
		}
		result[brain] = c.IncrementLesson(measure)
	}
	return result
}

// Config combines the active lesson parameters of every brain. Brains are
// applied in sorted order, so on a key collision the lexically last brain
// wins.
func (mc *MetaCurriculum) Config() models.ResetParameters {
	mc.mu.RLock()
	defer mc.mu.RUnlock()

	config := make(models.ResetParameters)
	for _, brain := range mc.brainsLocked() {
		config.Merge(mc.curricula[brain].Config())
	}
	return config
}

// Reload re-reads the curriculum file at path and installs it, keeping the
// brain's current lesson. A brain not yet owned is added at lesson 0.
func (mc *MetaCurriculum) Reload(path string) (string, error) {
	brain := models.BrainName(path)

	c, err := mc.loader(path)
	if err != nil {
		return brain, fmt.Errorf("reload curriculum for brain %s: %w", brain, err)
	}

	mc.mu.Lock()
	defer mc.mu.Unlock()

	if prev, ok := mc.curricula[brain]; ok {
		c.SetLessonNum(prev.LessonNum())
		c.SetSmoothedValue(prev.SmoothedValue())
	}
	mc.curricula[brain] = c
	mc.paths[brain] = path

	mc.logger.Log("reloaded curriculum for %s from %s (lesson %d)", brain, path, c.LessonNum())
	return brain, nil
}

// Remove drops brain from the coordinator. It reports whether the brain
// was owned.
func (mc *MetaCurriculum) Remove(brain string) bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, ok := mc.curricula[brain]; !ok {
		return false
	}
	delete(mc.curricula, brain)
	delete(mc.paths, brain)
	mc.logger.Log("removed curriculum for %s", brain)
	return true
}

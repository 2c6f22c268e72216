// Package curriculum implements a single brain's lesson progression: an
// ordered list of lessons, the thresholds that separate them, and the
// reset parameters each lesson applies.
package curriculum

import (
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/curricula/internal/logging"
	"github.com/ShayCichocki/curricula/pkg/models"
)

// smoothingWeight is the share of the previous smoothed value kept when
// signal smoothing is enabled.
const smoothingWeight = 0.25

// DefaultMinLessonLength is used when a curriculum file omits
// min_lesson_length.
const DefaultMinLessonLength = 0

// fileData is the on-disk curriculum layout. JSON files parse as YAML.
type fileData struct {
	Measure         string               `yaml:"measure"`
	Thresholds      []float64            `yaml:"thresholds"`
	MinLessonLength *int                 `yaml:"min_lesson_length"`
	SignalSmoothing bool                 `yaml:"signal_smoothing"`
	Parameters      map[string][]float64 `yaml:"parameters"`
}

// Curriculum tracks one brain's position in its lesson sequence.
type Curriculum struct {
	brain           string
	path            string
	measure         models.Measure
	thresholds      []float64
	minLessonLength int
	signalSmoothing bool
	parameters      map[string][]float64

	lessonNum int
	smoothed  float64

	logger logging.Logger
}

// Option configures a Curriculum.
type Option func(*Curriculum)

// WithLogger sets the logger used to report lesson changes.
func WithLogger(l logging.Logger) Option {
	return func(c *Curriculum) {
		c.logger = l
	}
}

// Load reads and validates the curriculum file at path. The brain name is
// the file name without its outermost extension.
func Load(path string, opts ...Option) (*Curriculum, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadingError{Path: path, Err: err}
	}
	return Parse(path, data, opts...)
}

// Parse builds a curriculum from raw file content. path is used for the
// brain name and in error messages.
func Parse(path string, data []byte, opts ...Option) (*Curriculum, error) {
	var fd fileData
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return nil, &ConfigError{Path: path, Reason: "malformed content", Err: err}
	}

	if err := validate(path, &fd); err != nil {
		return nil, err
	}

	c := &Curriculum{
		brain:           models.BrainName(path),
		path:            path,
		measure:         models.Measure(fd.Measure),
		thresholds:      fd.Thresholds,
		minLessonLength: DefaultMinLessonLength,
		signalSmoothing: fd.SignalSmoothing,
		parameters:      fd.Parameters,
	}
	if fd.MinLessonLength != nil {
		c.minLessonLength = *fd.MinLessonLength
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = logging.Default()
	}

	return c, nil
}

func validate(path string, fd *fileData) error {
	if fd.Measure == "" {
		return &ConfigError{Path: path, Reason: "missing measure"}
	}
	if !models.Measure(fd.Measure).Valid() {
		return &ConfigError{Path: path, Reason: fmt.Sprintf("unknown measure %q", fd.Measure)}
	}
	if fd.Thresholds == nil {
		return &ConfigError{Path: path, Reason: "missing thresholds"}
	}
	if fd.Parameters == nil {
		return &ConfigError{Path: path, Reason: "missing parameters"}
	}
	if fd.MinLessonLength != nil && *fd.MinLessonLength < 0 {
		return &ConfigError{Path: path, Reason: "min_lesson_length must not be negative"}
	}

	want := len(fd.Thresholds) + 1
	for name, values := range fd.Parameters {
		if len(values) != want {
			return &ConfigError{
				Path:   path,
				Reason: fmt.Sprintf("parameter %q has %d lessons, expected %d", name, len(values), want),
			}
		}
	}
	return nil
}

// Brain returns the brain this curriculum belongs to.
func (c *Curriculum) Brain() string {
	return c.brain
}

// Path returns the file the curriculum was loaded from.
func (c *Curriculum) Path() string {
	return c.path
}

// Measure returns the signal compared against the thresholds.
func (c *Curriculum) Measure() models.Measure {
	return c.measure
}

// MinLessonLength is the number of completed episodes required before the
// lesson may advance.
func (c *Curriculum) MinLessonLength() int {
	return c.minLessonLength
}

// MaxLessonNum is the index of the final lesson.
func (c *Curriculum) MaxLessonNum() int {
	return len(c.thresholds)
}

// Thresholds returns a copy of the per-lesson advancement thresholds.
func (c *Curriculum) Thresholds() []float64 {
	return append([]float64(nil), c.thresholds...)
}

// SignalSmoothing reports whether measures are smoothed before comparison.
func (c *Curriculum) SignalSmoothing() bool {
	return c.signalSmoothing
}

// LessonNum returns the current lesson index.
func (c *Curriculum) LessonNum() int {
	return c.lessonNum
}

// SetLessonNum moves to lesson n, clamped into [0, MaxLessonNum].
func (c *Curriculum) SetLessonNum(n int) {
	c.lessonNum = c.clamp(n)
}

// ParameterNames returns the reset parameters this curriculum controls.
func (c *Curriculum) ParameterNames() []string {
	names := make([]string, 0, len(c.parameters))
	for name := range c.parameters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SmoothedValue returns the value last compared against a threshold: the
// running smoothed measure when signal smoothing is on, otherwise the raw
// measure.
func (c *Curriculum) SmoothedValue() float64 {
	return c.smoothed
}

// SetSmoothedValue restores the running smoothed measure, typically from a
// saved run. NaN is ignored.
func (c *Curriculum) SetSmoothedValue(v float64) {
	if math.IsNaN(v) {
		return
	}
	c.smoothed = v
}

// IncrementLesson advances one lesson if measure exceeds the current
// lesson's threshold. It reports whether the lesson changed.
func (c *Curriculum) IncrementLesson(measure float64) bool {
	if math.IsNaN(measure) {
		return false
	}

	if c.signalSmoothing {
		measure = c.smoothed*smoothingWeight + (1-smoothingWeight)*measure
	}
	c.smoothed = measure

	if c.lessonNum >= c.MaxLessonNum() {
		return false
	}
	if measure <= c.thresholds[c.lessonNum] {
		return false
	}

	c.lessonNum++
	c.logger.Log("%s lesson changed. Now in lesson %d: %s",
		c.brain, c.lessonNum+1, formatParams(c.Config()))
	return true
}

// Config returns the reset parameters of the current lesson.
func (c *Curriculum) Config() models.ResetParameters {
	return c.ConfigFor(c.lessonNum)
}

// ConfigFor returns the reset parameters of the given lesson, clamped into
// range.
func (c *Curriculum) ConfigFor(lesson int) models.ResetParameters {
	lesson = c.clamp(lesson)
	config := make(models.ResetParameters, len(c.parameters))
	for name, values := range c.parameters {
		config[name] = values[lesson]
	}
	return config
}

func (c *Curriculum) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > c.MaxLessonNum() {
		return c.MaxLessonNum()
	}
	return n
}

func formatParams(p models.ResetParameters) string {
	parts := make([]string, 0, len(p))
	for _, k := range p.Keys() {
		parts = append(parts, fmt.Sprintf("%s -> %g", k, p[k]))
	}
	return strings.Join(parts, ", ")
}

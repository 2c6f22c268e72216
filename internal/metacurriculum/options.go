package metacurriculum

import (
	"github.com/ShayCichocki/curricula/internal/curriculum"
	"github.com/ShayCichocki/curricula/internal/logging"
)

// Loader builds a Curriculum from the file at path.
type Loader func(path string) (Curriculum, error)

// Option configures a MetaCurriculum.
type Option func(*MetaCurriculum)

// WithLogger sets the logger for the coordinator and the curricula it loads
// with the default loader.
func WithLogger(l logging.Logger) Option {
	return func(mc *MetaCurriculum) {
		mc.logger = l
	}
}

// WithLoader replaces the per-file curriculum loader.
func WithLoader(l Loader) Option {
	return func(mc *MetaCurriculum) {
		mc.loader = l
	}
}

// fileLoader returns the default Loader, reading curriculum files from disk.
func fileLoader(logger logging.Logger) Loader {
	return func(path string) (Curriculum, error) {
		c, err := curriculum.Load(path, curriculum.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

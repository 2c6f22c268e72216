package curriculum

import "fmt"

// LoadingError is returned when a curriculum file cannot be read.
type LoadingError struct {
	Path string
	Err  error
}

func (e *LoadingError) Error() string {
	return fmt.Sprintf("load curriculum %s: %v", e.Path, e.Err)
}

func (e *LoadingError) Unwrap() error {
	return e.Err
}

// ConfigError is returned when a curriculum file is readable but its
// content is malformed or inconsistent.
type ConfigError struct {
	Path   string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("curriculum %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("curriculum %s: %s", e.Path, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

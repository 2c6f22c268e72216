package metacurriculum

import (
	"errors"
	"fmt"
)

// ErrMetaCurriculum matches every *Error via errors.Is.
var ErrMetaCurriculum = errors.New("meta curriculum error")

// Error is returned when the curriculum folder cannot be enumerated.
type Error struct {
	Dir string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("curriculum folder %s could not be read: %v", e.Dir, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrMetaCurriculum.
func (e *Error) Is(target error) bool {
	return target == ErrMetaCurriculum
}

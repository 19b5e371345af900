package exercise

import (
	"errors"
	"fmt"
)

// ErrUnknownVariant is returned when a variant tag is not recognized.
var ErrUnknownVariant = errors.New("unknown exercise variant")

// MalformedExerciseError indicates that an exercise payload does not match
// its declared variant or lacks fields the variant requires.
type MalformedExerciseError struct {
	ExerciseID string
	Variant    Variant
	Reason     string
	Err        error
}

func (e *MalformedExerciseError) Error() string {
	msg := fmt.Sprintf("malformed %s exercise %q: %s", e.Variant, e.ExerciseID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedExerciseError) Unwrap() error { return e.Err }

// IsMalformed reports whether err is or wraps a MalformedExerciseError.
func IsMalformed(err error) bool {
	var m *MalformedExerciseError
	return errors.As(err, &m)
}

package common

import (
	"errors"
	"fmt"
)

var (
	ErrorInvalidValue = errors.New("invalid value")

	// ErrEmptySampleSet is returned when no sample survives filtering at a time step.
	ErrEmptySampleSet = errors.New("empty sample set")

	// ErrShapeMismatch is returned when two arrays or an array and its date axis disagree in size.
	ErrShapeMismatch = errors.New("shape mismatch")

	ErrMissingVariable = errors.New("missing trace variable")

	// ErrRender marks failures of the drawing or image encoding layer, as opposed
	// to failures computing the numbers being drawn.
	ErrRender = errors.New("render failed")
)

// StepError attaches the offending time step to a summarization error.
type StepError struct {
	Step    int
	Wrapped error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("time step %d: %v", e.Step, e.Wrapped)
}

func (e *StepError) Unwrap() error {
	return e.Wrapped
}

func ShapeError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrShapeMismatch, fmt.Sprintf(format, args...))
}

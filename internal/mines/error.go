package mines

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfBounds   = errors.New("cell out of bounds")
	ErrDuplicateMine = errors.New("duplicate mine position")
	ErrCorruptState  = errors.New("corrupt board state")
)

// ParamsError is returned when a board cannot be constructed.
type ParamsError struct {
	Params Params
	Err    error
}

// [*ParamsError] implements [error]
func (e *ParamsError) Error() string {
	return fmt.Sprintf("invalid board %s: %v", e.Params.Seed(), e.Err)
}

func (e *ParamsError) Unwrap() error {
	return e.Err
}

// PointError carries the coordinates rejected by a board operation.
type PointError struct {
	Point Point
	Err   error
}

func (e *PointError) Error() string {
	return fmt.Sprintf("%v: %v", e.Point, e.Err)
}

func (e *PointError) Unwrap() error {
	return e.Err
}

package workspace

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSelection is returned by commands that need a selected object.
	ErrNoSelection = errors.New("no object selected")
	// ErrNoActiveCrop is returned by crop commands issued outside crop mode.
	ErrNoActiveCrop = errors.New("crop mode is not active")
	// ErrInvalidDimension is matched by every InvalidDimensionError.
	ErrInvalidDimension = errors.New("invalid dimension")
	// ErrNotFound is returned for unknown object ids.
	ErrNotFound = errors.New("object not found")
	// ErrObjectBusy is returned when an object is locked by a crop session or
	// an outstanding asynchronous step.
	ErrObjectBusy = errors.New("object is busy")
)

// InvalidDimensionError reports a non-numeric or out-of-range value coming
// from a size, position or filter control.
type InvalidDimensionError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidDimensionError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidDimension) match.
func (e *InvalidDimensionError) Is(target error) bool {
	return target == ErrInvalidDimension
}

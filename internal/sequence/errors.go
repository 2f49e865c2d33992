package sequence

import (
	"errors"
	"fmt"
)

// Domain errors for the sequence package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrBadShutter is returned when a shutter speed string is malformed.
	ErrBadShutter = errors.New("sequence: invalid shutter speed")

	// ErrBadRecord is returned when an artifact row cannot be interpreted.
	ErrBadRecord = errors.New("sequence: invalid record")
)

// ParseError reports a malformed line in a sequence artifact.
type ParseError struct {
	Line int   // 1-based line number in the artifact
	Err  error // underlying cause
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

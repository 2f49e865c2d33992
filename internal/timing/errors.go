package timing

import (
	"errors"
	"fmt"
)

// Domain errors for the timing package.
var (
	// ErrBadTimestamp is returned when a recognised line carries a
	// timestamp that cannot be parsed.
	ErrBadTimestamp = errors.New("timing: invalid timestamp")

	// ErrUnknownEvent is returned when an event name is not present in
	// the loaded table and is not a resolvable magnitude reference.
	ErrUnknownEvent = errors.New("timing: unknown event")
)

// ParseError reports a malformed line in a circumstances export.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

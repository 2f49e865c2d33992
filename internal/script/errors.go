package script

import (
	"errors"
	"fmt"
)

// Domain errors for the script package.
// Use errors.Is() to check for these in calling code.
var (
	// ErrUnknownKeyword is returned for a statement keyword the grammar
	// does not recognise.
	ErrUnknownKeyword = errors.New("script: unknown keyword")

	// ErrBadStatement is returned when a statement has the wrong field
	// count or an unparseable field.
	ErrBadStatement = errors.New("script: malformed statement")

	// ErrUnmatchedEnd is returned for an ENDFOR with no open loop.
	ErrUnmatchedEnd = errors.New("script: ENDFOR without matching FOR")

	// ErrUnterminatedLoop is returned when input ends inside a loop body.
	ErrUnterminatedLoop = errors.New("script: FOR without matching ENDFOR")
)

// ParseError reports a malformed script line.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ResolutionError reports a statement whose event reference is absent
// from the circumstances table. Compilation is all-or-nothing: no
// partial command list is produced.
type ResolutionError struct {
	Line  int    // source line of the referencing statement
	Event string // the unresolvable reference
	Err   error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("line %d: cannot resolve event %q: %v", e.Line, e.Event, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

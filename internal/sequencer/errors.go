package sequencer

import "errors"

var (
	// ErrBadReference indicates a simulated-clock reference time that
	// could not be parsed.
	ErrBadReference = errors.New("sequencer: invalid clock reference time")

	// ErrNoCommands indicates an empty command list.
	ErrNoCommands = errors.New("sequencer: command list is empty")
)

package camera

import "errors"

// Domain errors for the camera package.
var (
	// ErrInitFailed is returned when no camera is detected or the
	// session cannot be opened.
	ErrInitFailed = errors.New("camera: initialisation failed")

	// ErrCaptureFailed is returned when a capture command fails at the
	// device. The sequencer treats this as non-fatal.
	ErrCaptureFailed = errors.New("camera: capture failed")

	// ErrNoMatch is returned when a requested setting has no usable
	// counterpart among the camera's choices.
	ErrNoMatch = errors.New("camera: no matching setting")

	// ErrPlayFailed is returned when a sound cue cannot be played.
	ErrPlayFailed = errors.New("camera: sound playback failed")
)

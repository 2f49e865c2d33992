package camera

import (
	"context"
	"fmt"
	"strconv"
)

// Exposure is the parameter set for one capture.
type Exposure struct {
	// Aperture is the f-number (5.6 means f/5.6).
	Aperture float64

	// Shutter is the exposure time as written in the command list
	// ("1/250" or "2.5"); ShutterSeconds is its normalised value.
	Shutter        string
	ShutterSeconds float64

	// ISO sensitivity.
	ISO int
}

func (e Exposure) String() string {
	return fmt.Sprintf("f/%s %ss iso%d",
		strconv.FormatFloat(e.Aperture, 'f', -1, 64), e.Shutter, e.ISO)
}

// Camera is the capture capability consumed by the sequencer.
//
// Implementations own exactly one camera session; Capture is never
// called concurrently. Capture blocks for the full exposure — long
// shutter speeds are legitimate, so no timeout is imposed here.
type Camera interface {
	// Capture applies the exposure settings and takes one frame.
	Capture(ctx context.Context, exp Exposure) error

	// Close releases the camera session.
	Close() error
}

// Player plays timed sound cues.
type Player interface {
	// Play blocks until the sound file has finished playing.
	Play(ctx context.Context, file string) error
}

// Logger is the minimal logging interface the drivers need.
// Compatible with logging.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

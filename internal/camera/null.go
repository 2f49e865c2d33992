package camera

import (
	"context"
	"time"
)

// Null is a camera that logs captures instead of taking them. Used for
// rehearsals against a simulated clock, where the schedule and timing
// matter but no hardware is attached.
type Null struct {
	logger Logger

	// HoldShutter makes Capture block for the exposure time, so
	// rehearsal runs exhibit the same serial back-pressure as the
	// real camera.
	HoldShutter bool
}

// NewNull returns a logging no-op camera.
func NewNull(logger Logger) *Null {
	return &Null{logger: logger}
}

func (n *Null) Capture(ctx context.Context, exp Exposure) error {
	n.logger.Info("capture (dry run)", "exposure", exp.String())
	if n.HoldShutter && exp.ShutterSeconds > 0 {
		select {
		case <-time.After(time.Duration(exp.ShutterSeconds * float64(time.Second))):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (n *Null) Close() error { return nil }

var _ Camera = (*Null)(nil)

package sequencer

import (
	"fmt"
	"strings"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/timefmt"
)

// Clock supplies the current time to the run loop.
type Clock interface {
	Now() time.Time
}

// RealClock reads actual wall time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }

// SimulatedClock reports wall time shifted by a fixed offset, computed
// once at construction so that Now() equals the reference time at the
// moment the clock is created. Time then advances at the normal rate:
// a rehearsal run paces exactly like the real one.
type SimulatedClock struct {
	offset time.Duration
}

// NewSimulatedClock returns a clock reading reference "now".
func NewSimulatedClock(reference time.Time) *SimulatedClock {
	return &SimulatedClock{offset: reference.Sub(time.Now())}
}

// NewSimulatedClockFrom parses a "Y/M/D H:MM:SS.t" reference string.
func NewSimulatedClockFrom(reference string) (*SimulatedClock, error) {
	date, clock, ok := strings.Cut(reference, " ")
	if !ok {
		return nil, fmt.Errorf("%w: %q: want \"Y/M/D H:MM:SS.t\"", ErrBadReference, reference)
	}
	t, err := timefmt.ParseDateTime(date, clock)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrBadReference, reference, err)
	}
	return NewSimulatedClock(t), nil
}

func (c *SimulatedClock) Now() time.Time { return time.Now().Add(c.offset) }

// Offset reports the fixed shift from wall time.
func (c *SimulatedClock) Offset() time.Duration { return c.offset }

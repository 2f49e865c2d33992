package timing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Contact event names. The set is open — any name appearing in the
// export is usable from a script — but these are the conventional ones.
const (
	EventC1  = "C1"  // first contact, partial phase begins
	EventC2  = "C2"  // second contact, totality begins
	EventMax = "MAX" // maximum eclipse
	EventC3  = "C3"  // third contact, totality ends
	EventC4  = "C4"  // fourth contact, partial phase ends
)

// magPoint is one sample of the magnitude-versus-time curve.
type magPoint struct {
	Magnitude float64 // 0..1
	At        time.Time
}

// Table maps eclipse event names to absolute times. Immutable once
// loaded; build one with Parse or, for tests, with New.
type Table struct {
	events       map[string]time.Time
	preMags      []magPoint // ascending magnitude, C1 → MAX
	postMags     []magPoint // descending magnitude, MAX → C4
	maxMagnitude float64
}

// New builds a table directly from event times. Magnitude references
// resolve by linear contact interpolation only.
func New(events map[string]time.Time) *Table {
	copied := make(map[string]time.Time, len(events))
	for k, v := range events {
		copied[k] = v
	}
	return &Table{events: copied, maxMagnitude: 1.0}
}

// Events returns the names present in the table, for diagnostics.
func (t *Table) Events() []string {
	names := make([]string, 0, len(t.events))
	for name := range t.events {
		names = append(names, name)
	}
	return names
}

// Time resolves an event reference to an absolute time.
//
// Plain names (C1..C4, MAX) look up directly. "MAGPRE <pct>" and
// "MAGPOST <pct>" resolve the moment the eclipse magnitude passes
// pct percent, on the way in or out respectively: interpolated from the
// magnitude curve when the export carried one, otherwise linearly
// between C1–C2 (pre) or C3–C4 (post).
func (t *Table) Time(name string) (time.Time, error) {
	if at, ok := t.events[name]; ok {
		return at, nil
	}

	kind, arg, found := strings.Cut(name, " ")
	if found {
		pct, err := strconv.ParseFloat(arg, 64)
		if err == nil {
			switch kind {
			case "MAGPRE":
				return t.magnitudeTime(pct/100, false)
			case "MAGPOST":
				return t.magnitudeTime(pct/100, true)
			}
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

// magnitudeTime resolves a magnitude fraction against the curve, falling
// back to linear interpolation between the bracketing contacts.
// Results are rounded to the table's tenth-of-a-second precision.
func (t *Table) magnitudeTime(frac float64, post bool) (time.Time, error) {
	curve := t.preMags
	if post {
		curve = reversed(t.postMags)
	}
	if at, ok := interpolate(curve, frac); ok {
		return at.Round(100 * time.Millisecond), nil
	}

	if post {
		// Between C3 (magnitude falls below 1) and C4 (reaches 0),
		// counted backwards from C4.
		c3, ok3 := t.events[EventC3]
		c4, ok4 := t.events[EventC4]
		if !ok3 || !ok4 {
			return time.Time{}, fmt.Errorf("%w: MAGPOST needs C3 and C4", ErrUnknownEvent)
		}
		return c4.Add(-scale(c4.Sub(c3), frac)).Round(100 * time.Millisecond), nil
	}

	c1, ok1 := t.events[EventC1]
	c2, ok2 := t.events[EventC2]
	if !ok1 || !ok2 {
		return time.Time{}, fmt.Errorf("%w: MAGPRE needs C1 and C2", ErrUnknownEvent)
	}
	return c1.Add(scale(c2.Sub(c1), t.maxMagnitude*frac)).Round(100 * time.Millisecond), nil
}

// interpolate finds the time at which an ascending magnitude curve
// crosses the target fraction. Returns false when the curve is absent or
// does not bracket the target.
func interpolate(curve []magPoint, target float64) (time.Time, bool) {
	if len(curve) == 0 {
		return time.Time{}, false
	}

	for i := 1; i < len(curve); i++ {
		lo, hi := curve[i-1], curve[i]
		if lo.Magnitude > target || hi.Magnitude < target {
			continue
		}
		span := hi.Magnitude - lo.Magnitude
		if span == 0 {
			return lo.At, true
		}
		frac := (target - lo.Magnitude) / span
		return lo.At.Add(scale(hi.At.Sub(lo.At), frac)), true
	}
	return time.Time{}, false
}

func reversed(points []magPoint) []magPoint {
	out := make([]magPoint, len(points))
	for i, p := range points {
		out[len(points)-1-i] = p
	}
	return out
}

func scale(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

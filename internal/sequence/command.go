package sequence

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies what a command does when dispatched.
type Kind string

const (
	// KindCapture takes a single exposure with the command's settings.
	KindCapture Kind = "PICT"

	// KindPlay plays a sound file (spoken prompts during the eclipse).
	KindPlay Kind = "PLAY"
)

// ShutterSpeed is an exposure time given either as a rational ("1/250")
// or as decimal seconds ("2.5"). The source text is retained so artifacts
// round-trip exactly.
type ShutterSpeed struct {
	Text    string  // as written in the script or artifact
	Seconds float64 // normalised value
}

// ParseShutter parses a shutter speed string.
//
// Accepted forms: "n/d" (fraction of a second) and a plain decimal
// seconds value.
func ParseShutter(s string) (ShutterSpeed, error) {
	parts := strings.SplitN(s, "/", 2)
	switch len(parts) {
	case 2:
		num, err1 := strconv.ParseFloat(parts[0], 64)
		den, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil || den == 0 {
			return ShutterSpeed{}, fmt.Errorf("%w: %q", ErrBadShutter, s)
		}
		return ShutterSpeed{Text: s, Seconds: num / den}, nil
	case 1:
		sec, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return ShutterSpeed{}, fmt.Errorf("%w: %q", ErrBadShutter, s)
		}
		return ShutterSpeed{Text: s, Seconds: sec}, nil
	}
	return ShutterSpeed{}, fmt.Errorf("%w: %q", ErrBadShutter, s)
}

// Command is one fully resolved, timed action. Commands are created by
// the compiler (or read from an artifact) and never mutated afterwards.
type Command struct {
	// Time is the absolute due time, UTC, tenth-of-a-second precision.
	Time time.Time

	// Kind selects capture versus sound playback.
	Kind Kind

	// Exposure settings (KindCapture only).
	Shutter  ShutterSpeed
	Aperture float64
	ISO      int

	// File is the sound file to play (KindPlay only).
	File string

	// Comment is free text carried through from the script.
	Comment string

	// raw holds the verbatim artifact fields when the command was read
	// from a CSV file. Write prefers these so hand-edited artifacts
	// round-trip byte-identically.
	raw []string
}

// String renders the command for progress logs.
func (c Command) String() string {
	switch c.Kind {
	case KindPlay:
		return fmt.Sprintf("%s PLAY %s", c.Time.Format("15:04:05.0"), c.File)
	default:
		return fmt.Sprintf("%s PICT f/%s %ss iso%d",
			c.Time.Format("15:04:05.0"), formatAperture(c.Aperture), c.Shutter.Text, c.ISO)
	}
}

// Equal reports whether two commands describe the same action at the
// same instant. Verbatim artifact text is not compared.
func (c Command) Equal(other Command) bool {
	return c.Time.Equal(other.Time) &&
		c.Kind == other.Kind &&
		c.Shutter.Seconds == other.Shutter.Seconds &&
		c.Aperture == other.Aperture &&
		c.ISO == other.ISO &&
		c.File == other.File &&
		c.Comment == other.Comment
}

// Commands is an ordered command list. Order is execution order.
type Commands []Command

func formatAperture(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

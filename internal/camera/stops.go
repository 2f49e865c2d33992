package camera

import (
	"math"
	"strconv"
	"strings"
)

// Cameras advertise discrete setting choices whose spellings vary by
// make ("1/250" vs "1/250s", "f/8" vs "8"). Requested values are
// normalised and matched to the nearest choice by distance in
// photographic stops, which is the scale photographers actually think
// in: one stop is a doubling of light regardless of the parameter.

// isoStops converts an ISO to stops, with ISO 100 at zero.
func isoStops(iso float64) float64 {
	return math.Log2(iso / 100)
}

// shutterStops converts an exposure time in seconds to stops, with one
// second at zero.
func shutterStops(sec float64) float64 {
	return math.Log2(sec)
}

// apertureStops converts an f-number to stops, with f/1 at zero.
func apertureStops(f float64) float64 {
	return -2 * math.Log2(f)
}

// normalizeAperture parses an aperture spelling: "8", "f/8", "1/8" all
// mean f/8. Returns false for spellings it cannot handle.
func normalizeAperture(s string) (float64, bool) {
	parts := strings.SplitN(s, "/", 2)
	den := parts[len(parts)-1]
	if len(parts) == 2 && parts[0] != "f" && parts[0] != "1" && parts[0] != "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(den, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// normalizeShutter parses a shutter-speed spelling into seconds:
// "1/250", "0.5", "2s", "2\"", "1m". Returns false for bulb and other
// non-numeric choices.
func normalizeShutter(s string) (float64, bool) {
	multiplier := 1.0
	switch {
	case strings.HasSuffix(s, "s"), strings.HasSuffix(s, `"`):
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "m"):
		multiplier = 60
		s = s[:len(s)-1]
	}

	num, den, isFraction := strings.Cut(s, "/")
	if isFraction {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d * multiplier, true
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v * multiplier, true
}

// nearest returns the index of the choice whose stop value is closest
// to target. Choices that failed normalisation carry NaN and are never
// selected. Returns false when no choice is usable.
func nearest(stops []float64, target float64) (int, bool) {
	best, bestDist := -1, math.Inf(1)
	for i, s := range stops {
		if math.IsNaN(s) {
			continue
		}
		d := math.Abs(s - target)
		if d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, best >= 0
}

// settingMatcher maps requested values onto a camera's choice list.
type settingMatcher struct {
	choices []string
	stops   []float64
}

// newMatcher precomputes stop values for a choice list. normalize turns
// one choice spelling into stops, returning false for unusable entries.
func newMatcher(choices []string, normalize func(string) (float64, bool)) settingMatcher {
	stops := make([]float64, len(choices))
	for i, c := range choices {
		if v, ok := normalize(c); ok {
			stops[i] = v
		} else {
			stops[i] = math.NaN()
		}
	}
	return settingMatcher{choices: choices, stops: stops}
}

// match finds the choice closest to the target stop value.
func (m settingMatcher) match(target float64) (string, bool) {
	i, ok := nearest(m.stops, target)
	if !ok {
		return "", false
	}
	return m.choices[i], true
}

// Normalisers composed with the stop conversions, for matcher setup.

func apertureChoiceStops(s string) (float64, bool) {
	v, ok := normalizeAperture(s)
	if !ok {
		return 0, false
	}
	return apertureStops(v), true
}

func shutterChoiceStops(s string) (float64, bool) {
	v, ok := normalizeShutter(s)
	if !ok {
		return 0, false
	}
	return shutterStops(v), true
}

func isoChoiceStops(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return isoStops(v), true
}

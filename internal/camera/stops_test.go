package camera

import (
	"math"
	"testing"
)

// ─── Normalisers ───────────────────────────────────────────────────────────

func TestNormalizeShutter(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1/250", 1.0 / 250, true},
		{"1/250s", 1.0 / 250, true},
		{"0.5", 0.5, true},
		{"2s", 2, true},
		{`2"`, 2, true},
		{"1m", 60, true},
		{"30", 30, true},
		{"Bulb", 0, false},
		{"", 0, false},
		{"1/0", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalizeShutter(tt.in)
		if ok != tt.ok {
			t.Errorf("normalizeShutter(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeShutter(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeAperture(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"8", 8, true},
		{"f/8", 8, true},
		{"1/8", 8, true},
		{"5.6", 5.6, true},
		{"f/5.6", 5.6, true},
		{"auto", 0, false},
		{"2/8", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := normalizeAperture(tt.in)
		if ok != tt.ok {
			t.Errorf("normalizeAperture(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("normalizeAperture(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ─── Stop conversions ──────────────────────────────────────────────────────

func TestStops(t *testing.T) {
	if got := isoStops(100); got != 0 {
		t.Errorf("isoStops(100) = %v, want 0", got)
	}
	if got := isoStops(400); math.Abs(got-2) > 1e-9 {
		t.Errorf("isoStops(400) = %v, want 2", got)
	}
	if got := shutterStops(1); got != 0 {
		t.Errorf("shutterStops(1) = %v, want 0", got)
	}
	if got := shutterStops(0.25); math.Abs(got+2) > 1e-9 {
		t.Errorf("shutterStops(0.25) = %v, want -2", got)
	}
	if got := apertureStops(1); got != 0 {
		t.Errorf("apertureStops(1) = %v, want 0", got)
	}
	// f/1 → f/2 halves the area twice over: two stops down.
	if got := apertureStops(2); math.Abs(got+2) > 1e-9 {
		t.Errorf("apertureStops(2) = %v, want -2", got)
	}
}

// ─── Nearest-choice matching ───────────────────────────────────────────────

func TestMatcherNearestShutter(t *testing.T) {
	m := newMatcher([]string{"Bulb", "1/500", "1/250", "1/125", "2s"}, shutterChoiceStops)

	tests := []struct {
		seconds float64
		want    string
	}{
		{1.0 / 250, "1/250"},
		{1.0 / 200, "1/250"}, // nearest in stops, not seconds
		{1.0 / 1000, "1/500"},
		{5, "2s"},
	}
	for _, tt := range tests {
		got, ok := m.match(shutterStops(tt.seconds))
		if !ok || got != tt.want {
			t.Errorf("match(%vs) = %q, %v; want %q", tt.seconds, got, ok, tt.want)
		}
	}
}

func TestMatcherSkipsUnusableChoices(t *testing.T) {
	m := newMatcher([]string{"auto", "implicit"}, apertureChoiceStops)
	if _, ok := m.match(apertureStops(8)); ok {
		t.Fatal("match succeeded with no usable choices")
	}
}

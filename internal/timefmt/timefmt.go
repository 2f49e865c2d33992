// Package timefmt parses and formats the date/time shapes shared by the
// circumstances table, the script grammar, and the sequence artifact.
//
// All timestamps are UTC with tenth-of-a-second precision:
//   - date: 2026/08/12
//   - time: 18:26:19.1
//   - duration: [+-]H:MM:SS(.f) or MM:SS(.f)
package timefmt

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Layout constants for the sequence artifact.
const (
	// DateLayout formats dates as the planning tool exports them.
	DateLayout = "2006/01/02"

	// TimeLayout formats times with tenths of a second.
	TimeLayout = "15:04:05.0"
)

// FormatDate renders the date component of a timestamp.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatTime renders the time-of-day component with tenths of a second.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// ParseDate parses a Y/M/D date string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, err)
	}
	return t, nil
}

// ParseTime parses an H:MM:SS.f time-of-day string.
//
// Returns the duration since midnight, so callers can combine it with a
// date from a different line of the same export.
func ParseTime(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("parsing time %q: expected H:MM:SS.f", s)
	}

	hh, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: bad hour: %w", s, err)
	}
	mm, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: bad minute: %w", s, err)
	}
	ss, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, fmt.Errorf("parsing time %q: bad second: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss >= 60 {
		return 0, fmt.Errorf("parsing time %q: component out of range", s)
	}

	return time.Duration(hh)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss*float64(time.Second)), nil
}

// ParseDateTime parses separate date and time strings into one UTC instant.
func ParseDateTime(dateStr, timeStr string) (time.Time, error) {
	date, err := ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := ParseTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return date.Add(tod), nil
}

// ParseDelta parses a signed duration with a separate sign component.
//
// Accepted layouts: H:MM:SS(.f) and MM:SS(.f). The sign is "-" for a
// negative offset; anything else (including "") is positive.
func ParseDelta(sign, s string) (time.Duration, error) {
	parts := strings.Split(s, ":")

	var hh, mm, ss float64
	var err error

	switch len(parts) {
	case 3:
		if hh, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return 0, fmt.Errorf("parsing duration %q: bad hour: %w", s, err)
		}
		if mm, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return 0, fmt.Errorf("parsing duration %q: bad minute: %w", s, err)
		}
		if ss, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, fmt.Errorf("parsing duration %q: bad second: %w", s, err)
		}
	case 2:
		if mm, err = strconv.ParseFloat(parts[0], 64); err != nil {
			return 0, fmt.Errorf("parsing duration %q: bad minute: %w", s, err)
		}
		if ss, err = strconv.ParseFloat(parts[1], 64); err != nil {
			return 0, fmt.Errorf("parsing duration %q: bad second: %w", s, err)
		}
	default:
		return 0, fmt.Errorf("parsing duration %q: expected H:MM:SS or MM:SS", s)
	}

	d := time.Duration(hh*float64(time.Hour)) +
		time.Duration(mm*float64(time.Minute)) +
		time.Duration(ss*float64(time.Second))
	if sign == "-" {
		return -d, nil
	}
	return d, nil
}

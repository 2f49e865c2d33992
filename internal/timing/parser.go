package timing

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/timefmt"
)

// Recognised line shapes from the planning-tool export. Everything else
// in the file is decoration and is skipped without comment.
var (
	// "1st Contact   2026/08/12 18:26:19.1 ..."
	reContactLong = regexp.MustCompile(`^(.).. Contact\s+(\d{4}/\d{2}/\d{2})\s+(\d{2}:\d{2}:\d{2}\.\d)`)

	// "C1 2026/08/12 18:26:19.1 ..."
	reContactShort = regexp.MustCompile(`^C(\d)\s+(\d{4}/\d{2}/\d{2})\s+(\d{2}:\d{2}:\d{2}\.\d)`)

	// "Max Eclipse   2026/08/12 19:45:03.9 ..."
	reMaxEclipse = regexp.MustCompile(`^Max Eclipse\s+(\d{4}/\d{2}/\d{2})\s+(\d{2}:\d{2}:\d{2}\.\d)`)

	// "Magnitude at maximum eclipse: 1.039"
	reMaxMagnitude = regexp.MustCompile(`^Magnitude at maximum .* ([0-9.]+)`)

	// "18:40:00.0  41.2  118.3  0.253" (time, altitude, azimuth, magnitude)
	reMagnitudeRow = regexp.MustCompile(`^(\d{2}:\d{2}:\d{2}\.\d)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)`)
)

// Parse loads a circumstances export.
//
// Fails with a *ParseError only when a line matching a recognised shape
// carries an unparseable timestamp; unrecognised lines never fail.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{
		events:       make(map[string]time.Time),
		maxMagnitude: 1.0,
	}

	// Magnitude rows carry time-of-day only; they borrow the date of the
	// first contact line seen.
	var defaultDate time.Time
	haveDate := false

	// The magnitude table rises to maximum then falls. Rows accumulate
	// into preMags until the first decrease, then into postMags.
	prevMag := -1.0
	inPost := false

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := scanner.Text()

		switch err := matchContact(text, t, &defaultDate, &haveDate); {
		case err == nil:
			// Contact line consumed.

		case err != errNoMatch:
			return nil, &ParseError{Line: line, Err: err}

		case reMaxEclipse.MatchString(text):
			m := reMaxEclipse.FindStringSubmatch(text)
			at, err := timefmt.ParseDateTime(m[1], m[2])
			if err != nil {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %w", ErrBadTimestamp, err)}
			}
			t.events[EventMax] = at
			if !haveDate {
				defaultDate = at.Truncate(24 * time.Hour)
				haveDate = true
			}

		case reMaxMagnitude.MatchString(text):
			m := reMaxMagnitude.FindStringSubmatch(text)
			if v, err := strconv.ParseFloat(m[1], 64); err == nil && v > 0 {
				t.maxMagnitude = v
			}

		case reMagnitudeRow.MatchString(text) && haveDate:
			m := reMagnitudeRow.FindStringSubmatch(text)
			tod, err := timefmt.ParseTime(m[1])
			if err != nil {
				return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %w", ErrBadTimestamp, err)}
			}
			mag, err := strconv.ParseFloat(m[4], 64)
			if err != nil {
				continue
			}
			if !inPost && mag < prevMag {
				inPost = true
			}
			point := magPoint{Magnitude: mag, At: defaultDate.Add(tod)}
			if inPost {
				t.postMags = append(t.postMags, point)
			} else {
				t.preMags = append(t.preMags, point)
				prevMag = mag
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading circumstances table: %w", err)
	}

	return t, nil
}

// errNoMatch distinguishes "line is not a contact line" from a parse
// failure inside one.
var errNoMatch = fmt.Errorf("no match")

// matchContact handles both contact line forms. Returns errNoMatch when
// the line is not a contact line, nil on success, or a timestamp error.
func matchContact(text string, t *Table, defaultDate *time.Time, haveDate *bool) error {
	var num, dateStr, timeStr string
	if m := reContactLong.FindStringSubmatch(text); m != nil {
		num, dateStr, timeStr = m[1], m[2], m[3]
	} else if m := reContactShort.FindStringSubmatch(text); m != nil {
		num, dateStr, timeStr = m[1], m[2], m[3]
	} else {
		return errNoMatch
	}

	at, err := timefmt.ParseDateTime(dateStr, timeStr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadTimestamp, err)
	}

	t.events["C"+num] = at
	if !*haveDate {
		*defaultDate = at.Truncate(24 * time.Hour)
		*haveDate = true
	}
	return nil
}

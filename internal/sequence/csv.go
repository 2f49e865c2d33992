package sequence

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ecliptic-labs/eclipseq/internal/timefmt"
)

// fieldNames is the artifact column set, in order. It matches the output
// of the external planning tool so artifacts from either source load.
var fieldNames = []string{
	"date", "time_utc", "action",
	"shutter_speed", "aperture", "iso",
	"file", "comment",
}

// Column indexes into an artifact record.
const (
	colDate = iota
	colTime
	colAction
	colShutter
	colAperture
	colISO
	colFile
	colComment
)

// Write serialises the command list as a CSV artifact with a header row.
//
// Commands that were read from an artifact are written back verbatim, so
// Read followed by Write is byte-identical.
func (cs Commands) Write(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(fieldNames); err != nil {
		return fmt.Errorf("writing artifact header: %w", err)
	}
	for i, c := range cs {
		if err := cw.Write(c.record()); err != nil {
			return fmt.Errorf("writing command %d: %w", i+1, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing artifact: %w", err)
	}
	return nil
}

// record returns the CSV fields for a command, preferring the verbatim
// text captured at read time.
func (c Command) record() []string {
	if len(c.raw) == len(fieldNames) {
		return c.raw
	}

	rec := make([]string, len(fieldNames))
	rec[colDate] = timefmt.FormatDate(c.Time)
	rec[colTime] = timefmt.FormatTime(c.Time)
	rec[colAction] = string(c.Kind)
	rec[colComment] = c.Comment

	switch c.Kind {
	case KindPlay:
		rec[colFile] = c.File
	default:
		rec[colShutter] = c.Shutter.Text
		rec[colAperture] = formatAperture(c.Aperture)
		rec[colISO] = strconv.Itoa(c.ISO)
		rec[colFile] = c.File
	}
	return rec
}

// Read parses a CSV artifact into a command list, preserving order.
//
// A leading header row is skipped. Fails with *ParseError on rows with
// unparseable timestamps, exposure values, or unknown action kinds.
func Read(r io.Reader) (Commands, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(fieldNames)

	var cmds Commands
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %w", ErrBadRecord, err)}
		}
		if rec[colDate] == "date" {
			// Header row.
			continue
		}

		cmd, err := makeCommand(rec)
		if err != nil {
			return nil, &ParseError{Line: line, Err: err}
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}

// makeCommand builds a Command from one artifact record, keeping the
// record's verbatim text for round-tripping.
func makeCommand(rec []string) (Command, error) {
	ts, err := timefmt.ParseDateTime(rec[colDate], rec[colTime])
	if err != nil {
		return Command{}, err
	}

	raw := make([]string, len(rec))
	copy(raw, rec)

	cmd := Command{
		Time:    ts,
		Kind:    Kind(rec[colAction]),
		File:    rec[colFile],
		Comment: rec[colComment],
		raw:     raw,
	}

	switch cmd.Kind {
	case KindCapture:
		if cmd.Shutter, err = ParseShutter(rec[colShutter]); err != nil {
			return Command{}, err
		}
		if cmd.Aperture, err = strconv.ParseFloat(rec[colAperture], 64); err != nil {
			return Command{}, fmt.Errorf("%w: aperture %q", ErrBadRecord, rec[colAperture])
		}
		if cmd.ISO, err = strconv.Atoi(rec[colISO]); err != nil {
			return Command{}, fmt.Errorf("%w: iso %q", ErrBadRecord, rec[colISO])
		}
	case KindPlay:
		// Exposure columns are left blank for sound cues.
	default:
		return Command{}, fmt.Errorf("%w: unknown action %q", ErrBadRecord, rec[colAction])
	}
	return cmd, nil
}

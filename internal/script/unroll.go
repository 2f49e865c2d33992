package script

import (
	"fmt"
	"strings"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/sequence"
	"github.com/ecliptic-labs/eclipseq/internal/timing"
)

// Iteration offsets are truncated to the schedule's tenth-of-a-second
// precision so long intervalometer runs don't accumulate sub-tenth
// residue from fractional intervals.
const offsetPrecision = 100 * time.Millisecond

// Unroll flattens a statement tree into the command list.
//
// The walk is depth-first and iteration-major: all commands of loop
// iteration i precede all of iteration i+1, and output order is exactly
// authoring order — never a re-sort by resolved time. Offsets are purely
// additive, so identical inputs always produce identical output.
//
// Fails with *ResolutionError on the first statement whose event name is
// absent from the table; no partial list is returned.
func Unroll(stmts []Statement, table *timing.Table) (sequence.Commands, error) {
	w := walker{table: table}
	if err := w.walk(stmts, 0, "", ""); err != nil {
		return nil, err
	}
	return w.cmds, nil
}

type walker struct {
	table *timing.Table
	cmds  sequence.Commands
}

// walk visits statements with the accumulated loop offset, an optional
// magnitude override for the body of a VAR sweep, and a note appended to
// emitted comments.
func (w *walker) walk(stmts []Statement, offset time.Duration, override, note string) error {
	for i := range stmts {
		s := &stmts[i]
		switch s.Kind {
		case StmtLoop:
			if err := w.walkLoop(s, offset, override, note); err != nil {
				return err
			}
		default:
			cmd, err := w.resolve(s, offset, override, note)
			if err != nil {
				return err
			}
			w.cmds = append(w.cmds, cmd)
		}
	}
	return nil
}

func (w *walker) walkLoop(s *Statement, offset time.Duration, override, note string) error {
	if s.Loop == LoopVar {
		for v := s.Start; v < s.End; v += s.Step {
			sweep := fmt.Sprintf("%04.1f", v)
			if err := w.walk(s.Body, offset, sweep, note); err != nil {
				return err
			}
		}
		return nil
	}

	for i := 0; i < s.Iterations; i++ {
		shift := (time.Duration(i) * s.Increment).Truncate(offsetPrecision)
		iterNote := fmt.Sprintf("%s (iter. %03d)", note, i+1)
		if err := w.walk(s.Body, offset+shift, override, iterNote); err != nil {
			return err
		}
	}
	return nil
}

// resolve turns one leaf statement into a command: event time, plus the
// statement's own offset, plus the accumulated loop offset.
func (w *walker) resolve(s *Statement, offset time.Duration, override, note string) (sequence.Command, error) {
	comment := s.Comment + note

	var base time.Time
	if !s.Ref.Literal.IsZero() {
		base = s.Ref.Literal
	} else {
		event := s.Ref.Event
		if override != "" {
			// A VAR sweep rewrites "MAGPRE" into "MAGPRE 60.0".
			name, _, _ := strings.Cut(event, " ")
			event = name + " " + override
			if name == "MAGPRE" || name == "MAGPOST" {
				comment += fmt.Sprintf(" (Mag. %s%%)", override)
			}
		}
		at, err := w.table.Time(event)
		if err != nil {
			return sequence.Command{}, &ResolutionError{Line: s.Line, Event: event, Err: err}
		}
		base = at
	}

	cmd := sequence.Command{
		Time:    base.Add(s.Ref.Offset).Add(offset),
		Comment: comment,
	}
	switch s.Kind {
	case StmtPlay:
		cmd.Kind = sequence.KindPlay
		cmd.File = s.File
	default:
		cmd.Kind = sequence.KindCapture
		cmd.Shutter = s.Shutter
		cmd.Aperture = s.Aperture
		cmd.ISO = s.ISO
	}
	return cmd, nil
}

package script

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/sequence"
	"github.com/ecliptic-labs/eclipseq/internal/timefmt"
)

// Field counts after the statement keyword.
const (
	captureFieldCount = 12 // event,sign,offset,camera,shutter,aperture,iso,burst,quality,size,incremental,comment
	playFieldCount    = 12 // event,sign,offset,file + 7 reserved + comment
	loopFieldCount    = 4  // (kind),a,b,c
)

// Parse reads a script into an ordered statement tree.
//
// Comment lines (#) and blank lines are skipped. Fails with *ParseError,
// carrying the source line number, on malformed statements, unknown
// keywords, an ENDFOR without an open loop, or input ending inside a
// loop body. Event names are not validated here.
func Parse(r io.Reader) ([]Statement, error) {
	var (
		top   []Statement  // finished top-level statements
		stack []*Statement // open loops, innermost last
	)

	attach := func(s Statement) {
		if len(stack) > 0 {
			parent := stack[len(stack)-1]
			parent.Body = append(parent.Body, s)
			return
		}
		top = append(top, s)
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		fields := strings.Split(text, ",")
		keyword := fields[0]
		args := fields[1:]

		switch keyword {
		case "TAKEPIC":
			stmt, err := parseCapture(args, line)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			attach(stmt)

		case "PLAY":
			stmt, err := parsePlay(args, line)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			attach(stmt)

		case "FOR":
			stmt, err := parseLoop(args, line)
			if err != nil {
				return nil, &ParseError{Line: line, Err: err}
			}
			open := stmt // heap copy; children attach to Body until ENDFOR
			stack = append(stack, &open)

		case "ENDFOR":
			if len(stack) == 0 {
				return nil, &ParseError{Line: line, Err: ErrUnmatchedEnd}
			}
			closed := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			attach(*closed)

		default:
			return nil, &ParseError{Line: line, Err: fmt.Errorf("%w: %q", ErrUnknownKeyword, keyword)}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, &ParseError{Line: open.Line, Err: ErrUnterminatedLoop}
	}
	return top, nil
}

// parseTimeRef interprets the event/sign/offset field triple. An event
// field of the form "Y/M/D H:MM:SS.f" is a literal absolute time.
func parseTimeRef(event, sign, offset string) (TimeRef, error) {
	delta, err := timefmt.ParseDelta(sign, offset)
	if err != nil {
		return TimeRef{}, fmt.Errorf("%w: %w", ErrBadStatement, err)
	}

	if date, tod, ok := strings.Cut(event, " "); ok && strings.Count(date, "/") == 2 {
		at, err := timefmt.ParseDateTime(date, tod)
		if err != nil {
			return TimeRef{}, fmt.Errorf("%w: %w", ErrBadStatement, err)
		}
		return TimeRef{Literal: at, Offset: delta}, nil
	}

	return TimeRef{Event: event, Offset: delta}, nil
}

func parseCapture(args []string, line int) (Statement, error) {
	if len(args) != captureFieldCount {
		return Statement{}, fmt.Errorf("%w: TAKEPIC expects %d fields, got %d",
			ErrBadStatement, captureFieldCount, len(args))
	}

	ref, err := parseTimeRef(args[0], args[1], args[2])
	if err != nil {
		return Statement{}, err
	}
	shutter, err := sequence.ParseShutter(args[4])
	if err != nil {
		return Statement{}, fmt.Errorf("%w: %w", ErrBadStatement, err)
	}
	aperture, err := strconv.ParseFloat(args[5], 64)
	if err != nil {
		return Statement{}, fmt.Errorf("%w: aperture %q", ErrBadStatement, args[5])
	}
	iso, err := strconv.Atoi(args[6])
	if err != nil {
		return Statement{}, fmt.Errorf("%w: iso %q", ErrBadStatement, args[6])
	}

	return Statement{
		Kind:     StmtCapture,
		Line:     line,
		Ref:      ref,
		Shutter:  shutter,
		Aperture: aperture,
		ISO:      iso,
		Comment:  args[11],
	}, nil
}

func parsePlay(args []string, line int) (Statement, error) {
	if len(args) != playFieldCount {
		return Statement{}, fmt.Errorf("%w: PLAY expects %d fields, got %d",
			ErrBadStatement, playFieldCount, len(args))
	}

	ref, err := parseTimeRef(args[0], args[1], args[2])
	if err != nil {
		return Statement{}, err
	}
	file := args[3]
	if file == "" {
		return Statement{}, fmt.Errorf("%w: PLAY needs a sound file", ErrBadStatement)
	}

	return Statement{
		Kind:    StmtPlay,
		Line:    line,
		Ref:     ref,
		File:    file,
		Comment: args[11],
	}, nil
}

func parseLoop(args []string, line int) (Statement, error) {
	if len(args) != loopFieldCount {
		return Statement{}, fmt.Errorf("%w: FOR expects %d fields, got %d",
			ErrBadStatement, loopFieldCount, len(args))
	}

	switch args[0] {
	case "(INTERVALOMETER)":
		kind, err := strconv.Atoi(args[1])
		if err != nil {
			return Statement{}, fmt.Errorf("%w: intervalometer kind %q", ErrBadStatement, args[1])
		}
		interval, err := strconv.ParseFloat(args[2], 64)
		if err != nil || interval < 0 {
			return Statement{}, fmt.Errorf("%w: interval %q", ErrBadStatement, args[2])
		}
		iters, err := strconv.Atoi(args[3])
		if err != nil || iters < 0 {
			return Statement{}, fmt.Errorf("%w: iteration count %q", ErrBadStatement, args[3])
		}

		increment := time.Duration(interval * float64(time.Second))
		if kind == 0 {
			// Kind 0 counts toward the event: iterations shift earlier.
			increment = -increment
		}
		return Statement{
			Kind:       StmtLoop,
			Line:       line,
			Loop:       LoopIntervalometer,
			Iterations: iters,
			Increment:  increment,
		}, nil

	case "(VAR)":
		start, err1 := strconv.ParseFloat(args[1], 64)
		step, err2 := strconv.ParseFloat(args[2], 64)
		end, err3 := strconv.ParseFloat(args[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return Statement{}, fmt.Errorf("%w: VAR bounds %q:%q:%q", ErrBadStatement, args[1], args[2], args[3])
		}
		if step <= 0 {
			return Statement{}, fmt.Errorf("%w: VAR step must be positive", ErrBadStatement)
		}
		return Statement{
			Kind:  StmtLoop,
			Line:  line,
			Loop:  LoopVar,
			Start: start,
			Step:  step,
			End:   end,
		}, nil
	}

	return Statement{}, fmt.Errorf("%w: FOR kind %q", ErrBadStatement, args[0])
}

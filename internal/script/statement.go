package script

import (
	"time"

	"github.com/ecliptic-labs/eclipseq/internal/sequence"
)

// StatementKind tags the statement variant. Statements are a tagged
// struct rather than an interface hierarchy so the unroller stays a
// plain structural recursion.
type StatementKind int

const (
	// StmtCapture is a single timed exposure.
	StmtCapture StatementKind = iota

	// StmtPlay is a single timed sound cue.
	StmtPlay

	// StmtLoop repeats its body with a per-iteration time or magnitude
	// increment.
	StmtLoop
)

// LoopKind distinguishes the two repeat-block forms.
type LoopKind int

const (
	// LoopIntervalometer repeats a fixed number of times, shifting the
	// body by a fixed duration each iteration.
	LoopIntervalometer LoopKind = iota

	// LoopVar sweeps a magnitude value, rewriting the body's event
	// references ("MAGPRE" becomes "MAGPRE 60.0") each iteration.
	LoopVar
)

// TimeRef is an unresolved time expression: an event name plus a signed
// offset, or a literal absolute time. Resolution happens at unroll time.
type TimeRef struct {
	Event   string        // event name, empty when Literal is set
	Offset  time.Duration // signed offset from the event
	Literal time.Time     // absolute time, zero unless literal form used
}

// Statement is one node of the parsed script tree.
type Statement struct {
	Kind StatementKind
	Line int // 1-based source line, carried into resolution errors

	// Capture and play fields.
	Ref     TimeRef
	Comment string

	// Capture-only exposure settings.
	Shutter  sequence.ShutterSpeed
	Aperture float64
	ISO      int

	// Play-only sound file.
	File string

	// Loop fields.
	Loop       LoopKind
	Iterations int           // intervalometer iteration count
	Increment  time.Duration // signed per-iteration shift
	Start      float64       // var sweep: first magnitude percentage
	Step       float64       // var sweep: per-iteration increase
	End        float64       // var sweep: exclusive upper bound
	Body       []Statement
}

// leafCount returns how many commands one walk of the statement emits,
// used by tests to check the unroll count law.
func leafCount(stmts []Statement) int {
	n := 0
	for _, s := range stmts {
		if s.Kind == StmtLoop {
			n += s.loopCount() * leafCount(s.Body)
		} else {
			n++
		}
	}
	return n
}

// loopCount is the number of iterations a loop performs.
func (s *Statement) loopCount() int {
	if s.Loop == LoopVar {
		n := 0
		for v := s.Start; v < s.End; v += s.Step {
			n++
		}
		return n
	}
	return s.Iterations
}

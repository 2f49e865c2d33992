// Package sequence defines the flat command list that sits between the
// script compiler and the realtime sequencer.
//
// A sequence is an ordered list of fully time-resolved commands. It is
// persisted as a human-inspectable CSV artifact so operators can review
// and hand-edit the schedule between compiling and executing. Order is
// preserved exactly as authored: the compiler emits commands depth-first,
// iteration-major, and neither Write nor Read re-sorts them.
//
// # Round-trip guarantee
//
// Read keeps every field's source text verbatim, so reading an artifact
// and writing it back produces byte-identical output even when fields
// were hand-edited into an equivalent but differently-spelled form
// (e.g. a shutter speed of "0.5" versus "1/2").
//
// # Key Types
//
//   - Command: One timed camera action (or sound cue), immutable once built
//   - ShutterSpeed: Rational-or-decimal exposure time, source text retained
//   - Commands: Ordered list with CSV Write/Read
package sequence

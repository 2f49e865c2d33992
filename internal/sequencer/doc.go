// Package sequencer executes a compiled command list against a camera
// at the wall-clock times each command carries.
//
// Execution is strictly serial and strictly in list order: one goroutine
// waits for a command's time, dispatches it, and only then considers
// the next command. A capture that fails is counted and logged but
// never stops the run — during an eclipse there is no second chance,
// so the schedule must keep moving.
//
// The clock is pluggable. RealClock runs against actual wall time;
// SimulatedClock shifts wall time by a fixed offset chosen at
// construction, so a full eclipse day can be rehearsed at any hour
// with identical pacing.
package sequencer

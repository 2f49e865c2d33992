// Package camera is the boundary between the sequencer and the attached
// camera hardware.
//
// The sequencer only sees the Camera and Player interfaces. Two camera
// implementations are provided:
//
//   - GPhoto2: drives a tethered camera through the gphoto2 command-line
//     tool. Requested exposure values are matched to the camera's
//     advertised setting choices by distance in photographic stops, so a
//     script can ask for "1/250" even when the body only offers "1/250s".
//   - Null: logs instead of capturing, for dry runs without hardware.
//
// Player covers the sequencer's sound cues the same way, with an
// exec-based implementation and a null one.
//
// The camera session is an explicitly passed, scoped resource: callers
// open it before a run and Close it on every exit path. Nothing in this
// package holds package-level device state.
package camera

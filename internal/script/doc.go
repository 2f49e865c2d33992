// Package script compiles a declarative capture script into the flat
// command list executed by the sequencer.
//
// A script is line-oriented, comma-separated text anchoring camera
// actions to named eclipse events:
//
//	# totality bracket
//	TAKEPIC,MAX,-,0:00:05.0,N1,1/1000,5.6,100,1,RAW,,N,diamond ring
//	FOR,(INTERVALOMETER),1,10.0,3
//	TAKEPIC,C2,+,0:00:00.0,N1,1/250,8,200,1,RAW,,N,chromosphere
//	ENDFOR
//	PLAY,C3,-,0:01:00.0,one_minute.mp3,,,,,,,
//
// Compilation is two phases. Parse builds an ordered statement tree —
// leaf capture/play statements and loop statements with nested bodies,
// nesting unbounded. Unroll walks the tree depth-first against a timing
// table, threading a purely additive time offset, and emits one fully
// resolved command per leaf visit. Identical inputs always produce
// identical output; command order is authoring order (depth-first,
// iteration-major), never a re-sort by time.
//
// Event names are resolved during unrolling, not parsing, so a script
// can be syntax-checked without a circumstances table.
package script

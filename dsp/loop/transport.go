package loop

import "fmt"

// State is the looper transport state.
type State int

const (
	// Idle runs the free-running delay path.
	Idle State = iota
	// Record captures input into memory.
	Record
	// Play loops the recorded region.
	Play
	// Overdub loops the recorded region while blending new input into it.
	Overdub

	stateCount
)

var stateNames = [stateCount]string{"Idle", "Record", "Play", "Overdub"}

// String returns the name of the state.
func (s State) String() string {
	if s >= 0 && s < stateCount {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// Looping reports whether s reads from the recorded loop region.
func (s State) Looping() bool {
	return s == Play || s == Overdub
}

// Intents are the transport requests sampled once per block.
type Intents struct {
	Record  bool
	Play    bool
	Overdub bool
	Clear   bool
}

// Update maps transport intents to a state. The first matching rule wins:
// a clear edge forces Idle, record always records, overdub without a loop
// starts a fresh recording, and play without a loop stays Idle.
func Update(record, play, overdub, hasLoop, clearEdge bool) State {
	switch {
	case clearEdge:
		return Idle
	case record:
		return Record
	case overdub:
		if hasLoop {
			return Overdub
		}
		return Record
	case play:
		if hasLoop {
			return Play
		}
		return Idle
	default:
		return Idle
	}
}

// Transport decides the state for each block and reports the clear edge.
// It remembers only the previous clear level.
type Transport struct {
	lastClear bool
}

// Next returns the state for this block and whether the clear intent rose
// since the previous call.
func (t *Transport) Next(in Intents, hasLoop bool) (State, bool) {
	edge := in.Clear && !t.lastClear
	t.lastClear = in.Clear
	return Update(in.Record, in.Play, in.Overdub, hasLoop, edge), edge
}

// Reset forgets the previous clear level.
func (t *Transport) Reset() {
	t.lastClear = false
}

package loop

import "github.com/cwbudde/sixteen/dsp/core"

// Region is the span of memory holding the most recent recording.
type Region struct {
	Start  int
	Length int
}

// Valid reports whether a loop has been established.
func (r Region) Valid() bool {
	return r.Length > 0
}

// Close establishes the region when recording ends. The loop length is the
// recorded count clamped to [1, capacity] and the region ends at the write
// cursor.
func Close(writeIndex, recorded, capacity int) Region {
	if capacity <= 0 {
		return Region{}
	}
	length := core.Clamp(recorded, 1, capacity)
	return Region{
		Start:  core.FloorMod(writeIndex-length, capacity),
		Length: length,
	}
}

// ReadIndex returns the memory index for the stepper's current position.
// The result may exceed the capacity; memory reads wrap it.
func (r Region) ReadIndex(s *RateStepper) int {
	return r.Start + s.Index(r.Length)
}

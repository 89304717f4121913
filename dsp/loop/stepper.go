package loop

import "math"

// RateStepper tracks a fractional playback position advancing by a signed
// rate each sample. The stored position is not wrapped; Index wraps it on read.
type RateStepper struct {
	position float64
	rate     float64
}

// NewRateStepper returns a stepper at position 0 moving forward at unity rate.
func NewRateStepper() *RateStepper {
	return &RateStepper{rate: 1}
}

// Reset moves the stepper to position.
func (s *RateStepper) Reset(position float64) {
	s.position = position
}

// SetRate sets the signed step. Magnitudes below 1 slow playback, negative
// values reverse it.
func (s *RateStepper) SetRate(rate float64) {
	s.rate = rate
}

// Rate returns the signed step.
func (s *RateStepper) Rate() float64 { return s.rate }

// Position returns the unwrapped position.
func (s *RateStepper) Position() float64 { return s.position }

// Advance adds the rate to the position and returns the new position.
func (s *RateStepper) Advance() float64 {
	s.position += s.rate
	return s.position
}

// Index returns the position wrapped into [0, size) and truncated.
// It returns 0 when size is not positive.
func (s *RateStepper) Index(size int) int {
	if size <= 0 {
		return 0
	}

	n := float64(size)
	wrapped := math.Mod(s.position, n)
	if wrapped < 0 {
		wrapped += n
	}

	i := int(wrapped)
	// -tiny + n rounds to n in float64.
	if i >= size {
		i = 0
	}
	return i
}

// Rebase subtracts whole multiples of size from the position once its
// magnitude passes limit·size. Index is unchanged by the shift.
func (s *RateStepper) Rebase(size int, limit float64) {
	if size <= 0 || limit <= 0 {
		return
	}

	n := float64(size)
	if math.Abs(s.position) < limit*n {
		return
	}
	s.position = math.Mod(s.position, n)
}

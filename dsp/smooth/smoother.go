// Package smooth provides one-pole parameter smoothing for control values
// that change at block rate but are consumed per sample.
package smooth

import "math"

const fallbackSampleRate = 44100.0

// Smoother moves a current value toward a target with an exponential
// one-pole step per sample. For a constant target the current value
// approaches it monotonically and never passes it.
type Smoother struct {
	sampleRate  float64
	timeMs      float32
	current     float32
	target      float32
	coefficient float32
}

// Reset sets both current and target to initial and derives the coefficient.
// A non-positive sample rate falls back to 44.1 kHz.
func (s *Smoother) Reset(sampleRate float64, initial, timeMs float32) {
	s.sampleRate = sampleRate
	if sampleRate <= 0 {
		s.sampleRate = fallbackSampleRate
	}
	s.current = initial
	s.target = initial
	s.timeMs = max(0, timeMs)
	s.updateCoefficient()
}

// SetTimeMs changes the time constant. Zero snaps on the next Process.
func (s *Smoother) SetTimeMs(timeMs float32) {
	s.timeMs = max(0, timeMs)
	s.updateCoefficient()
}

// SetTarget changes the target without touching the current value.
func (s *Smoother) SetTarget(target float32) {
	s.target = target
}

// Snap jumps the current value to the target.
func (s *Smoother) Snap() {
	s.current = s.target
}

// Process advances one sample and returns the new current value.
func (s *Smoother) Process() float32 {
	s.current += (s.target - s.current) * s.coefficient
	return s.current
}

// Current returns the current value.
func (s *Smoother) Current() float32 { return s.current }

// Target returns the target value.
func (s *Smoother) Target() float32 { return s.target }

// TimeMs returns the time constant in milliseconds.
func (s *Smoother) TimeMs() float32 { return s.timeMs }

func (s *Smoother) updateCoefficient() {
	if s.sampleRate <= 0 {
		s.sampleRate = fallbackSampleRate
	}
	if s.timeMs <= 0 {
		s.coefficient = 1
		return
	}

	samples := math.Max(1, float64(s.timeMs)*0.001*s.sampleRate)
	s.coefficient = float32(1 - math.Exp(-1/samples))
}

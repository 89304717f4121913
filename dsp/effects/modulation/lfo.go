package modulation

import "math"

const (
	twoPi              = 2 * math.Pi
	fallbackSampleRate = 44100.0
)

// LFO is a sine oscillator for delay-time modulation. Frequency changes keep
// the phase, so the waveform stays continuous.
type LFO struct {
	sampleRate float64
	frequency  float32
	phase      float32
	phaseInc   float32
}

// NewLFO returns a 1 Hz oscillator at zero phase.
func NewLFO(sampleRate float64) *LFO {
	l := &LFO{frequency: 1}
	l.Reset(sampleRate)
	return l
}

// Reset zeroes the phase and rederives the increment. A non-positive sample
// rate falls back to 44.1 kHz.
func (l *LFO) Reset(sampleRate float64) {
	l.sampleRate = sampleRate
	if sampleRate <= 0 {
		l.sampleRate = fallbackSampleRate
	}
	l.phase = 0
	l.updateIncrement()
}

// SetFrequency sets the rate in Hz; negative values clamp to 0.
func (l *LFO) SetFrequency(hz float32) {
	l.frequency = max(0, hz)
	l.updateIncrement()
}

// Process returns sin(phase) and advances the phase, wrapped into [0, 2π).
func (l *LFO) Process() float32 {
	value := float32(math.Sin(float64(l.phase)))
	l.phase += l.phaseInc
	if l.phase >= twoPi {
		l.phase -= twoPi
	}
	return value
}

// Phase returns the current phase in radians.
func (l *LFO) Phase() float32 { return l.phase }

// Frequency returns the rate in Hz.
func (l *LFO) Frequency() float32 { return l.frequency }

func (l *LFO) updateIncrement() {
	if l.sampleRate <= 0 {
		l.sampleRate = fallbackSampleRate
	}
	l.phaseInc = float32(twoPi * float64(l.frequency) / l.sampleRate)
}

package dynamics

import (
	"math"
)

const (
	// Default peak limiter parameters
	defaultPeakLimiterThreshold = 0.98
	defaultPeakLimiterAttackMs  = 1.0
	defaultPeakLimiterReleaseMs = 50.0

	// Peak limiter parameter ranges
	minPeakLimiterThreshold = 0.01
	maxPeakLimiterThreshold = 1.0
	minPeakLimiterAttackMs  = 0.1
	minPeakLimiterReleaseMs = 1.0

	peakLimiterFallbackRate = 44100.0
)

// PeakLimiter is a feed-forward envelope limiter on linear amplitude.
//
// The envelope follows |x| with a one-pole smoother that uses the attack
// coefficient while the signal rises above the envelope and the release
// coefficient otherwise. Samples pass unchanged while the envelope stays at
// or below the threshold and are scaled by threshold/envelope above it.
//
// Setters clamp out-of-range values instead of failing, so the limiter can
// be reconfigured from the audio callback.
//
// The limiter is mono. Instantiate one per channel.
type PeakLimiter struct {
	threshold  float32
	attackMs   float32
	releaseMs  float32
	sampleRate float64

	attackCoeff  float32
	releaseCoeff float32

	envelope float32
}

// NewPeakLimiter creates a limiter with threshold 0.98, 1 ms attack, and
// 50 ms release. A non-positive or non-finite sample rate falls back to
// 44.1 kHz.
func NewPeakLimiter(sampleRate float64) *PeakLimiter {
	l := &PeakLimiter{
		threshold: defaultPeakLimiterThreshold,
		attackMs:  defaultPeakLimiterAttackMs,
		releaseMs: defaultPeakLimiterReleaseMs,
	}
	l.Reset(sampleRate)

	return l
}

// Reset sets the sample rate, zeroes the envelope, and recomputes the
// time constants.
func (l *PeakLimiter) Reset(sampleRate float64) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		sampleRate = peakLimiterFallbackRate
	}

	l.sampleRate = sampleRate
	l.envelope = 0
	l.updateCoefficients()
}

// SetThreshold sets the ceiling in linear amplitude, clamped to [0.01, 1].
func (l *PeakLimiter) SetThreshold(threshold float32) {
	if math.IsNaN(float64(threshold)) {
		return
	}

	l.threshold = min(max(threshold, minPeakLimiterThreshold), maxPeakLimiterThreshold)
}

// SetAttackMs sets the attack time. Values below 0.1 ms are raised to it.
func (l *PeakLimiter) SetAttackMs(ms float32) {
	if math.IsNaN(float64(ms)) {
		return
	}

	l.attackMs = max(ms, minPeakLimiterAttackMs)
	l.updateCoefficients()
}

// SetReleaseMs sets the release time. Values below 1 ms are raised to it.
func (l *PeakLimiter) SetReleaseMs(ms float32) {
	if math.IsNaN(float64(ms)) {
		return
	}

	l.releaseMs = max(ms, minPeakLimiterReleaseMs)
	l.updateCoefficients()
}

// Threshold returns the current ceiling.
func (l *PeakLimiter) Threshold() float32 { return l.threshold }

// AttackMs returns the attack time in milliseconds.
func (l *PeakLimiter) AttackMs() float32 { return l.attackMs }

// ReleaseMs returns the release time in milliseconds.
func (l *PeakLimiter) ReleaseMs() float32 { return l.releaseMs }

// Envelope returns the current detector level.
func (l *PeakLimiter) Envelope() float32 { return l.envelope }

// ProcessSample limits one sample.
func (l *PeakLimiter) ProcessSample(input float32) float32 {
	abs := input
	if abs < 0 {
		abs = -abs
	}

	coeff := l.releaseCoeff
	if abs > l.envelope {
		coeff = l.attackCoeff
	}

	l.envelope = coeff*l.envelope + (1-coeff)*abs

	if l.envelope <= l.threshold {
		return input
	}

	return input * (l.threshold / l.envelope)
}

// ProcessInPlace limits buf in place.
func (l *PeakLimiter) ProcessInPlace(buf []float32) {
	for i, x := range buf {
		buf[i] = l.ProcessSample(x)
	}
}

func (l *PeakLimiter) updateCoefficients() {
	attackSamples := max(1, float64(l.attackMs)*0.001*l.sampleRate)
	releaseSamples := max(1, float64(l.releaseMs)*0.001*l.sampleRate)

	l.attackCoeff = float32(math.Exp(-1 / attackSamples))
	l.releaseCoeff = float32(math.Exp(-1 / releaseSamples))
}

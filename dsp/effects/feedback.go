package effects

import (
	"math"

	"github.com/cwbudde/sixteen/dsp/core"
)

const (
	feedbackMinCutoffHz = 800.0
	feedbackMaxCutoffHz = 12000.0
	feedbackMaxLevels   = 256
	feedbackNoiseScale  = 0.02
	fallbackSampleRate  = 44100.0
)

// FeedbackModel degrades the signal recirculating through the looper memory:
// a one-pole lowpass, tanh soft clip, a uniform quantizer, and noise
// injection, followed by the feedback gain.
//
// Filter and quantizer coefficients come from Prepare, which callers run once
// per block. Process recomputes them on every call and is equivalent to
// Prepare followed by ProcessPrepared.
type FeedbackModel struct {
	sampleRate float64

	// Derived in Prepare.
	lpAlpha    float32
	levels     int
	noiseLevel float32

	lpState float32
}

// NewFeedbackModel returns a reset model.
func NewFeedbackModel(sampleRate float64) *FeedbackModel {
	m := &FeedbackModel{}
	m.Reset(sampleRate)
	return m
}

// Reset zeroes the lowpass state and restores pass-through coefficients.
// A non-positive sample rate falls back to 44.1 kHz.
func (m *FeedbackModel) Reset(sampleRate float64) {
	m.sampleRate = sampleRate
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		m.sampleRate = fallbackSampleRate
	}
	m.lpState = 0
	m.lpAlpha = 1
	m.levels = 0
	m.noiseLevel = 0
}

// Prepare derives the lowpass coefficient from filterAmount and the
// quantizer level count from noiseAmount. Both amounts are clamped to [0, 1]
// and NaN is treated as 0.
//
// The cutoff maps linearly over [800 Hz, 12 kHz]. The level count maps
// inversely over [2, 256], so more noise means coarser steps.
func (m *FeedbackModel) Prepare(filterAmount, noiseAmount float32) {
	filterAmount = unitAmount(filterAmount)
	noiseAmount = unitAmount(noiseAmount)

	cutoff := feedbackMinCutoffHz + (feedbackMaxCutoffHz-feedbackMinCutoffHz)*float64(filterAmount)
	m.lpAlpha = float32(1 - mathExp(-2*math.Pi*cutoff/m.sampleRate))

	m.levels = int(2 + (feedbackMaxLevels-2)*(1-noiseAmount))
	m.noiseLevel = noiseAmount * feedbackNoiseScale
}

// Process runs one sample with per-call coefficient derivation.
// random01 is a uniform draw in [0, 1] used for the noise term.
func (m *FeedbackModel) Process(input, filterAmount, noiseAmount, feedbackGain, random01 float32) float32 {
	m.Prepare(filterAmount, noiseAmount)
	return m.ProcessPrepared(input, feedbackGain, random01)
}

// ProcessPrepared runs one sample with the coefficients from the last
// Prepare. Non-finite results are replaced by 0.
func (m *FeedbackModel) ProcessPrepared(input, feedbackGain, random01 float32) float32 {
	m.lpState += m.lpAlpha * (input - m.lpState)
	if !core.IsFinite(m.lpState) {
		m.lpState = 0
	}
	m.lpState = core.FlushDenormals(m.lpState)

	value := float32(math.Tanh(float64(m.lpState)))

	if m.levels > 1 {
		steps := float32(m.levels - 1)
		normalized := (value + 1) * 0.5
		stepped := float32(math.Round(float64(normalized*steps))) / steps
		value = stepped*2 - 1
	}

	if m.noiseLevel > 0 {
		value += (random01*2 - 1) * m.noiseLevel
	}

	value *= feedbackGain

	if !core.IsFinite(value) {
		return 0
	}
	return value
}

func unitAmount(x float32) float32 {
	if math.IsNaN(float64(x)) {
		return 0
	}
	return core.Clamp(x, 0, 1)
}

// Levels returns the quantizer level count from the last Prepare, or 0 when
// quantization is off.
func (m *FeedbackModel) Levels() int { return m.levels }

// LowpassAlpha returns the one-pole coefficient from the last Prepare.
func (m *FeedbackModel) LowpassAlpha() float32 { return m.lpAlpha }

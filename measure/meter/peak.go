// Package meter publishes output levels from the audio thread to UI readers.
package meter

import (
	"math"
	"sync/atomic"

	"golang.org/x/exp/constraints"
)

// Reading is a point-in-time view of a PeakMeter.
type Reading struct {
	Left    float32
	Right   float32
	Clipped bool
}

// PeakMeter holds a decaying left/right peak and a latched clip flag.
//
// Update is called by a single writer, normally once per processed block.
// Left, Right, Clipped and Read may be called from any goroutine; values are
// stored in atomics and never block. Reset and Configure must not run
// concurrently with Update.
type PeakMeter struct {
	left    atomic.Uint32
	right   atomic.Uint32
	clipped atomic.Bool
	hold    atomic.Int64

	decay       float32
	holdSeconds float64
	holdSamples int64
}

// NewPeakMeter creates a meter configured by opts.
func NewPeakMeter(opts ...MeterOption) *PeakMeter {
	cfg := ApplyMeterOptions(opts...)

	m := &PeakMeter{
		decay:       cfg.Decay,
		holdSeconds: cfg.HoldSeconds,
	}
	m.Reset(cfg.SampleRate)

	return m
}

// Reset clears peaks and the clip flag and re-derives the hold length for
// sampleRate. Non-positive rates leave the hold length unchanged.
func (m *PeakMeter) Reset(sampleRate float64) {
	if sampleRate > 0 {
		m.holdSamples = int64(sampleRate * m.holdSeconds)
	}

	m.left.Store(0)
	m.right.Store(0)
	m.clipped.Store(false)
	m.hold.Store(0)
}

// HoldSamples returns the clip hold length in samples.
func (m *PeakMeter) HoldSamples() int64 { return m.holdSamples }

// Update folds one block's channel peaks into the meter. frames is the
// number of samples in the block and counts down the clip hold.
func (m *PeakMeter) Update(peakL, peakR float32, frames int) {
	m.left.Store(math.Float32bits(max(peakL, m.Left()*m.decay)))
	m.right.Store(math.Float32bits(max(peakR, m.Right()*m.decay)))

	if peakL > 1 || peakR > 1 {
		m.hold.Store(m.holdSamples)
		m.clipped.Store(true)
		return
	}

	remaining := max(0, m.hold.Load()-int64(frames))
	m.hold.Store(remaining)
	if remaining == 0 {
		m.clipped.Store(false)
	}
}

// Left returns the held left peak.
func (m *PeakMeter) Left() float32 { return math.Float32frombits(m.left.Load()) }

// Right returns the held right peak.
func (m *PeakMeter) Right() float32 { return math.Float32frombits(m.right.Load()) }

// Clipped reports whether a sample above 1.0 was seen within the hold time.
func (m *PeakMeter) Clipped() bool { return m.clipped.Load() }

// Read returns all published values.
func (m *PeakMeter) Read() Reading {
	return Reading{
		Left:    m.Left(),
		Right:   m.Right(),
		Clipped: m.Clipped(),
	}
}

// BlockPeak returns the largest magnitude in x as float32, or 0 for an
// empty slice.
func BlockPeak[T constraints.Float](x []T) float32 {
	var peak T
	for _, v := range x {
		if v < 0 {
			v = -v
		}
		if v > peak {
			peak = v
		}
	}
	return float32(peak)
}

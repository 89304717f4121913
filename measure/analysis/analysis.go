// Package analysis computes offline level and spectral statistics of
// rendered audio.
package analysis

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
	"golang.org/x/exp/constraints"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/sixteen/dsp/core"
)

// ErrEmptyInput is returned when there are no channels or no frames.
var ErrEmptyInput = errors.New("analysis: empty input")

// ChannelStats holds per-channel level statistics.
type ChannelStats struct {
	Peak    float64
	PeakDB  float64
	RMS     float64
	RMSDB   float64
	DC      float64
	Clipped int // samples with magnitude above 1
}

// Report summarizes a rendered signal.
type Report struct {
	SampleRate float64
	Frames     int
	Channels   []ChannelStats

	// CentroidHz is the magnitude-weighted mean frequency of the mono mix,
	// averaged over Hann-windowed frames. It is 0 for silence.
	CentroidHz float64
}

// Seconds returns the analyzed duration.
func (r Report) Seconds() float64 {
	if r.SampleRate <= 0 {
		return 0
	}
	return float64(r.Frames) / r.SampleRate
}

// Peak returns the largest channel peak.
func (r Report) Peak() float64 {
	var peak float64
	for _, ch := range r.Channels {
		peak = max(peak, ch.Peak)
	}
	return peak
}

// Analyze measures planar channels. All channels are truncated to the
// shortest one.
func Analyze[T constraints.Float](channels [][]T, sampleRate float64, opts ...Option) (Report, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return Report{}, fmt.Errorf("analysis sample rate must be positive and finite: %f", sampleRate)
	}

	cfg, err := applyOptions(opts)
	if err != nil {
		return Report{}, err
	}

	frames := shortest(channels)
	if frames == 0 {
		return Report{}, ErrEmptyInput
	}

	report := Report{
		SampleRate: sampleRate,
		Frames:     frames,
		Channels:   make([]ChannelStats, len(channels)),
	}

	mono := make([]float64, frames)
	scratch := make([]float64, frames)

	for c, ch := range channels {
		core.Convert(scratch, ch[:frames])
		report.Channels[c] = channelStats(scratch)
		floats.Add(mono, scratch)
	}
	floats.Scale(1/float64(len(channels)), mono)

	centroid, err := spectralCentroid(mono, sampleRate, cfg.fftSize)
	if err != nil {
		return Report{}, err
	}
	report.CentroidHz = centroid

	return report, nil
}

func shortest[T any](channels [][]T) int {
	if len(channels) == 0 {
		return 0
	}

	n := len(channels[0])
	for _, ch := range channels[1:] {
		n = min(n, len(ch))
	}
	return n
}

func channelStats(x []float64) ChannelStats {
	peak := max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	rms := floats.Norm(x, 2) / math.Sqrt(float64(len(x)))

	clipped := 0
	for _, v := range x {
		if math.Abs(v) > 1 {
			clipped++
		}
	}

	return ChannelStats{
		Peak:    peak,
		PeakDB:  core.LinearToDB(peak),
		RMS:     rms,
		RMSDB:   core.LinearToDB(rms),
		DC:      stat.Mean(x, nil),
		Clipped: clipped,
	}
}

// spectralCentroid averages bin magnitudes over non-overlapping frames.
// A signal shorter than one frame is zero-padded.
func spectralCentroid(x []float64, sampleRate float64, fftSize int) (float64, error) {
	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return 0, fmt.Errorf("analysis fft plan: %w", err)
	}

	win := hann(fftSize)
	frame := make([]float64, fftSize)
	in := make([]complex128, fftSize)
	out := make([]complex128, fftSize)

	bins := fftSize/2 + 1
	re := make([]float64, bins)
	im := make([]float64, bins)
	mag := make([]float64, bins)
	sum := make([]float64, bins)

	for start := 0; start < len(x); start += fftSize {
		core.Zero(frame)
		copy(frame, x[start:])
		vecmath.MulBlockInPlace(frame, win)

		for i, v := range frame {
			in[i] = complex(v, 0)
		}

		if err := plan.Forward(out, in); err != nil {
			return 0, fmt.Errorf("analysis fft: %w", err)
		}

		for k := range bins {
			re[k] = real(out[k])
			im[k] = imag(out[k])
		}
		vecmath.Magnitude(mag, re, im)
		floats.Add(sum, mag)
	}

	total := floats.Sum(sum)
	if total <= 0 {
		return 0, nil
	}

	binHz := sampleRate / float64(fftSize)

	var weighted float64
	for k, m := range sum {
		weighted += float64(k) * binHz * m
	}

	return weighted / total, nil
}

func hann(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n))
	}
	return w
}

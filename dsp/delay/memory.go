// Package delay provides the circular audio memory shared by the delay and
// looper sample paths.
package delay

import (
	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/dsp/interp"
)

// Memory is a fixed-capacity, multi-channel circular sample store with a
// single write cursor shared by all channels.
//
// Every index is wrapped with floored modulo, so negative indices address
// samples behind position 0. Out-of-range channels read as 0 and ignore writes.
// Nothing allocates after Prepare.
type Memory struct {
	channels int
	size     int
	writePos int
	data     []float32
}

// Prepare allocates channels × size zeroed samples and resets the cursor.
// Non-positive arguments fall back to a 1×1 memory.
func (m *Memory) Prepare(channels, size int) {
	m.channels = max(1, channels)
	m.size = max(1, size)
	m.writePos = 0

	n := m.channels * m.size
	if cap(m.data) >= n {
		m.data = m.data[:n]
		core.Zero(m.data)
		return
	}
	m.data = make([]float32, n)
}

// Clear zeroes the store and resets the cursor without reallocating.
func (m *Memory) Clear() {
	core.Zero(m.data)
	m.writePos = 0
}

// Len returns the per-channel capacity in samples, or 0 before Prepare.
func (m *Memory) Len() int { return m.size }

// Channels returns the channel count, or 0 before Prepare.
func (m *Memory) Channels() int { return m.channels }

// WriteIndex returns the write cursor in [0, Len()).
func (m *Memory) WriteIndex() int { return m.writePos }

// SetWriteIndex moves the cursor to index, wrapped into range.
func (m *Memory) SetWriteIndex(index int) {
	m.writePos = core.FloorMod(index, m.size)
}

// AdvanceWrite moves the cursor forward by one sample with wraparound.
func (m *Memory) AdvanceWrite() {
	if m.size <= 0 {
		return
	}
	m.writePos++
	if m.writePos >= m.size {
		m.writePos = 0
	}
}

// ReadSample returns the sample at the wrapped index.
func (m *Memory) ReadSample(channel, index int) float32 {
	offset, ok := m.offset(channel, index)
	if !ok {
		return 0
	}
	return m.data[offset]
}

// ReadSampleLinear reads at a fractional index, interpolating between
// floor(index) and floor(index)+1, each wrapped independently.
func (m *Memory) ReadSampleLinear(channel int, index float32) float32 {
	base, frac := interp.Split(float64(index))
	if frac == 0 {
		return m.ReadSample(channel, base)
	}
	x0 := m.ReadSample(channel, base)
	x1 := m.ReadSample(channel, base+1)
	return interp.Linear(float32(frac), x0, x1)
}

// WriteSample stores value at the wrapped index.
func (m *Memory) WriteSample(channel, index int, value float32) {
	offset, ok := m.offset(channel, index)
	if !ok {
		return
	}
	m.data[offset] = value
}

func (m *Memory) offset(channel, index int) (int, bool) {
	if m.size <= 0 || m.channels <= 0 {
		return 0, false
	}
	if channel < 0 || channel >= m.channels {
		return 0, false
	}
	return channel*m.size + core.FloorMod(index, m.size), true
}

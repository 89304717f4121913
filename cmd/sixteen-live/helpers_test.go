package main

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/sixteen/dsp/loop"
	"github.com/cwbudde/sixteen/internal/testutil"
	"github.com/cwbudde/sixteen/looper"
	"github.com/cwbudde/sixteen/looper/preset"
	"github.com/cwbudde/sixteen/measure/meter"
)

func interleavedBytes(frames [][]float32) []byte {
	var out []byte
	for _, frame := range frames {
		for _, v := range frame {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
		}
	}
	return out
}

func TestDecodeF32(t *testing.T) {
	in := interleavedBytes([][]float32{{0.1, -0.1}, {0.2, -0.2}, {0.3, -0.3}})
	dst := [][]float32{make([]float32, 3), make([]float32, 3)}

	n := decodeF32(dst, in)
	require.Equal(t, 3, n)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, dst[0])
	assert.Equal(t, []float32{-0.1, -0.2, -0.3}, dst[1])
}

func TestDecodeF32_ShortInputIsSilence(t *testing.T) {
	in := interleavedBytes([][]float32{{0.5}})
	dst := [][]float32{{9, 9, 9}}

	decodeF32(dst, in)
	assert.Equal(t, []float32{0.5, 0, 0}, dst[0])
}

func TestEncodeF32(t *testing.T) {
	tests := []struct {
		name string
		src  [][]float32
		want [][]float32
	}{
		{"mono", [][]float32{{1, 2}}, [][]float32{{1}, {2}}},
		{"stereo", [][]float32{{1, 2}, {3, 4}}, [][]float32{{1, 3}, {2, 4}}},
		{"three channels", [][]float32{{1, 2}, {3, 4}, {5, 6}}, [][]float32{{1, 3, 5}, {2, 4, 6}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := interleavedBytes(tt.want)
			out := make([]byte, len(want))
			encodeF32(out, tt.src, make([]float32, len(want)/bytesPerSample))
			assert.Equal(t, want, out)
		})
	}
}

func TestEncodeF32_TruncatesToOutput(t *testing.T) {
	out := make([]byte, 2*bytesPerSample)
	encodeF32(out, [][]float32{{1, 2, 3}, {4, 5, 6}}, make([]float32, 6))
	assert.Equal(t, interleavedBytes([][]float32{{1, 4}}), out)
}

func TestDuplexBridge_DryPassThrough(t *testing.T) {
	params := looper.NewParams()
	params.Set(looper.ParamMix, 0)
	params.SetBool(looper.ParamLimiter, false)

	proc, err := looper.New(params, looper.WithMemorySeconds(1))
	require.NoError(t, err)
	proc.Prepare(8000, 32, 2)

	bridge := newDuplexBridge(proc, 2, 32)

	left := testutil.Float32(testutil.DeterministicSine(440, 8000, 0.5, 64))
	right := testutil.Float32(testutil.DeterministicSine(220, 8000, 0.25, 64))
	frames := make([][]float32, 64)
	for i := range frames {
		frames[i] = []float32{left[i], right[i]}
	}
	in := interleavedBytes(frames)
	out := make([]byte, len(in))

	bridge.process(out, in, 64)

	assert.Equal(t, in, out)
	assert.Greater(t, proc.Meter().Left(), float32(0.4))
}

func TestDuplexBridge_ZeroFrames(t *testing.T) {
	proc, err := looper.New(nil)
	require.NoError(t, err)
	proc.Prepare(8000, 16, 1)

	bridge := newDuplexBridge(proc, 1, 16)
	out := []byte{1, 2, 3, 4}
	bridge.process(out, nil, 0)
	assert.Equal(t, []byte{1, 2, 3, 4}, out)
}

func TestHandleKey(t *testing.T) {
	params := looper.NewParams()

	action := handleKey(params, 'r')
	assert.True(t, action.handled)
	assert.Equal(t, looper.ParamRecord, action.id)
	assert.True(t, action.on)
	assert.True(t, params.Bool(looper.ParamRecord))

	action = handleKey(params, 'R')
	assert.False(t, action.on)
	assert.False(t, params.Bool(looper.ParamRecord))

	action = handleKey(params, 'l')
	assert.False(t, action.on, "limiter defaults to on")

	action = handleKey(params, 'c')
	assert.True(t, action.momentary)
	assert.True(t, params.Bool(looper.ParamClear))
	handleKey(params, 'c')
	assert.True(t, params.Bool(looper.ParamClear), "clear is not toggled off by a second press")

	assert.False(t, handleKey(params, 'x').handled)

	for _, key := range []byte{'q', keyCtrlC, keyEscape} {
		assert.True(t, handleKey(params, key).quit)
	}
}

func TestKeyBindingsCoverSwitches(t *testing.T) {
	bound := make(map[looper.ParamID]bool)
	for _, id := range keyBindings {
		bound[id] = true
	}
	for _, info := range looper.ParamInfos() {
		if info.Bool {
			assert.True(t, bound[info.ID], "%s has no key", info.Key)
		}
	}
}

func TestMeterBar(t *testing.T) {
	assert.Equal(t, "["+strings.Repeat(" ", meterWidth)+"]", meterBar(0))
	assert.Equal(t, "["+strings.Repeat("#", meterWidth)+"]", meterBar(1))
	assert.Equal(t, "["+strings.Repeat("#", meterWidth)+"]", meterBar(4))
	assert.Equal(t, "["+strings.Repeat("#", meterWidth/2)+strings.Repeat(" ", meterWidth/2)+"]", meterBar(0.031622777))
}

func TestMeterLine(t *testing.T) {
	line := meterLine(meter.Reading{Left: 1, Right: 0, Clipped: true}, loop.Play,
		loop.Region{Start: 0, Length: 24000}, 48000)

	assert.True(t, strings.HasPrefix(line, "Play"))
	assert.Contains(t, line, "CLIP")
	assert.Contains(t, line, "loop 0.50s")

	line = meterLine(meter.Reading{}, loop.Idle, loop.Region{}, 48000)
	assert.NotContains(t, line, "CLIP")
	assert.NotContains(t, line, "loop")
}

func TestLoadPreset(t *testing.T) {
	factory := preset.Factory()[2]
	p, err := loadPreset(context.Background(), factory.Name)
	require.NoError(t, err)
	assert.Equal(t, factory.Name, p.Name)

	_, err = loadPreset(context.Background(), "missing")
	assert.True(t, errors.Is(err, preset.ErrUnknownPreset))
}

func TestPeriodFrames(t *testing.T) {
	assert.Equal(t, 480, periodFrames(48000, 10*time.Millisecond))
	assert.Equal(t, 221, periodFrames(44100, 5*time.Millisecond))
	assert.Equal(t, 1, periodFrames(48000, 0))
}

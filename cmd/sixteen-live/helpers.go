package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/simd/f32"

	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/dsp/loop"
	"github.com/cwbudde/sixteen/looper"
	"github.com/cwbudde/sixteen/looper/preset"
	"github.com/cwbudde/sixteen/measure/meter"
)

// duplexBridge converts interleaved float32 device buffers to planar engine
// blocks and back.
type duplexBridge struct {
	proc     *looper.Processor
	channels int
	planar   [][]float32
	block    [][]float32
	scratch  []float32
}

func newDuplexBridge(proc *looper.Processor, channels, frames int) *duplexBridge {
	b := &duplexBridge{
		proc:     proc,
		channels: max(1, channels),
	}
	b.planar = make([][]float32, b.channels)
	b.block = make([][]float32, b.channels)
	b.grow(frames)
	return b
}

// grow makes room for frames per channel. Device callbacks normally stay
// within the size announced at start, so this only allocates on the first
// unusually large period.
func (b *duplexBridge) grow(frames int) {
	for ch := range b.planar {
		b.planar[ch] = core.EnsureLen(b.planar[ch], frames)
	}
	b.scratch = core.EnsureLen(b.scratch, frames*b.channels)
}

// process is the device data callback body.
func (b *duplexBridge) process(out, in []byte, frameCount uint32) {
	frames := int(frameCount)
	if frames == 0 {
		return
	}
	if len(b.planar[0]) < frames {
		b.grow(frames)
	}

	for ch := range b.block {
		b.block[ch] = b.planar[ch][:frames]
	}

	decodeF32(b.block, in)
	b.proc.ProcessFloat32(b.block)
	encodeF32(out, b.block, b.scratch)
}

// decodeF32 deinterleaves little-endian float32 frames from in into dst and
// returns the number of frames decoded. Missing input reads as silence.
func decodeF32(dst [][]float32, in []byte) int {
	channels := len(dst)
	if channels == 0 {
		return 0
	}

	frames := len(dst[0])
	available := len(in) / (bytesPerSample * channels)
	for i := range frames {
		for ch := range dst {
			if i >= available {
				dst[ch][i] = 0
				continue
			}
			j := (i*channels + ch) * bytesPerSample
			dst[ch][i] = math.Float32frombits(binary.LittleEndian.Uint32(in[j:]))
		}
	}
	return frames
}

// encodeF32 interleaves src into out as little-endian float32 using scratch
// as the interleave buffer. Frames that do not fit into out are dropped.
func encodeF32(out []byte, src [][]float32, scratch []float32) {
	channels := len(src)
	if channels == 0 {
		return
	}

	frames := min(len(src[0]), len(out)/(bytesPerSample*channels))
	interleaved := scratch[:frames*channels]

	if channels == stereoChannels {
		f32.Interleave2(interleaved, src[0][:frames], src[1][:frames])
	} else {
		for ch, s := range src {
			for i := range frames {
				interleaved[i*channels+ch] = s[i]
			}
		}
	}

	for i, v := range interleaved {
		binary.LittleEndian.PutUint32(out[i*bytesPerSample:], math.Float32bits(v))
	}
}

// keyBindings maps keyboard keys to switch parameters.
var keyBindings = map[byte]looper.ParamID{
	'r': looper.ParamRecord,
	'p': looper.ParamPlay,
	'o': looper.ParamOverdub,
	'c': looper.ParamClear,
	'h': looper.ParamHalfSpeed,
	'v': looper.ParamReverse,
	'a': looper.ParamAuthentic,
	'l': looper.ParamLimiter,
}

// keyAction is the result of a key press.
type keyAction struct {
	id        looper.ParamID
	on        bool
	momentary bool
	quit      bool
	handled   bool
}

// handleKey applies a key press to params. Clear is momentary: it is set
// here and released by the caller after clearHold.
func handleKey(params *looper.Params, key byte) keyAction {
	switch key {
	case 'q', keyCtrlC, keyEscape:
		return keyAction{quit: true, handled: true}
	}

	id, ok := keyBindings[toLower(key)]
	if !ok {
		return keyAction{}
	}

	if id == looper.ParamClear {
		params.SetBool(id, true)
		return keyAction{id: id, on: true, momentary: true, handled: true}
	}
	return keyAction{id: id, on: params.Toggle(id), handled: true}
}

func toLower(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b + ('a' - 'A')
	}
	return b
}

// meterLine renders one status line from the meter and transport.
func meterLine(r meter.Reading, state loop.State, region loop.Region, sampleRate float64) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%-7s L %s R %s", state, meterBar(r.Left), meterBar(r.Right))
	if r.Clipped {
		sb.WriteString(" CLIP")
	}
	if region.Valid() && sampleRate > 0 {
		fmt.Fprintf(&sb, " loop %.2fs", float64(region.Length)/sampleRate)
	}
	return sb.String()
}

// meterBar draws a peak as a fixed-width bar over meterFloorDB..0 dBFS.
func meterBar(peak float32) string {
	db := core.LinearToDB(float64(peak))
	fill := 0
	if !math.IsInf(db, -1) && !math.IsNaN(db) {
		fill = int(math.Round((db - meterFloorDB) / -meterFloorDB * meterWidth))
	}
	fill = core.Clamp(fill, 0, meterWidth)
	return "[" + strings.Repeat("#", fill) + strings.Repeat(" ", meterWidth-fill) + "]"
}

// loadPreset resolves name as a Lua file when it ends in .lua and as a
// factory preset otherwise.
func loadPreset(ctx context.Context, name string) (preset.Preset, error) {
	if strings.EqualFold(filepath.Ext(name), ".lua") {
		return preset.LoadLuaFile(ctx, name)
	}

	bank := preset.NewFactoryBank()
	index, err := bank.Find(name)
	if err != nil {
		return preset.Preset{}, err
	}
	return bank.Get(index)
}

// periodFrames converts a device period to whole frames.
func periodFrames(sampleRate float64, period time.Duration) int {
	return max(1, int(math.Ceil(sampleRate*period.Seconds())))
}

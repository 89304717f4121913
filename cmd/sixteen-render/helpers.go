package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/tphakala/simd/f32"
	"golang.org/x/exp/constraints"

	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/looper"
	"github.com/cwbudde/sixteen/looper/preset"
	"github.com/cwbudde/sixteen/measure/analysis"
)

// wavInputInfo holds validated input file information.
type wavInputInfo struct {
	file     *os.File
	decoder  *wav.Decoder
	rate     int
	channels int
	bitDepth int
	format   *audio.Format
}

// openWAVInput opens and validates a WAV file, returning format information.
func openWAVInput(path string) (*wavInputInfo, error) {
	inputFile, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	decoder := wav.NewDecoder(inputFile)
	if !decoder.IsValidFile() {
		_ = inputFile.Close()
		return nil, fmt.Errorf("invalid WAV file: %s", path)
	}

	format := decoder.Format()
	if format.NumChannels < 1 {
		_ = inputFile.Close()
		return nil, fmt.Errorf("WAV file has no channels: %s", path)
	}

	return &wavInputInfo{
		file:     inputFile,
		decoder:  decoder,
		rate:     format.SampleRate,
		channels: format.NumChannels,
		bitDepth: int(decoder.BitDepth),
		format:   format,
	}, nil
}

// Close closes the input file.
func (w *wavInputInfo) Close() error {
	return w.file.Close()
}

// readPlanar decodes the whole file into one float32 slice per channel,
// scaled to [-1, 1].
func (w *wavInputInfo) readPlanar() ([][]float32, error) {
	buf := &audio.IntBuffer{
		Data:   make([]int, readChunkFrames*w.channels),
		Format: w.format,
	}
	scratch := make([]float32, len(buf.Data))
	scale := float32(1 / maxValue(w.bitDepth))

	planar := make([][]float32, w.channels)
	for {
		n, err := w.decoder.PCMBuffer(buf)
		if err != nil {
			return nil, fmt.Errorf("failed to read PCM data: %w", err)
		}
		if n == 0 {
			break
		}

		samples := scratch[:n]
		for i, v := range buf.Data[:n] {
			samples[i] = float32(v)
		}
		f32.Scale(samples, samples, scale)

		frames := n / w.channels
		for ch := range w.channels {
			dst := planar[ch]
			for i := range frames {
				dst = append(dst, samples[i*w.channels+ch])
			}
			planar[ch] = dst
		}
	}

	return planar, nil
}

// wavOutputWriter wraps the output file and encoder.
type wavOutputWriter struct {
	file     *os.File
	encoder  *wav.Encoder
	channels int
	bitDepth int
	rate     int
}

// createWAVOutput creates the output file and a PCM encoder.
func createWAVOutput(path string, sampleRate, bitDepth, channels int) (*wavOutputWriter, error) {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
	default:
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	outputFile, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	return &wavOutputWriter{
		file:     outputFile,
		encoder:  wav.NewEncoder(outputFile, sampleRate, bitDepth, channels, wavFormatPCM),
		channels: channels,
		bitDepth: bitDepth,
		rate:     sampleRate,
	}, nil
}

// WritePlanar interleaves planar float32 channels, quantizes them to the
// output bit depth and writes them.
func (w *wavOutputWriter) WritePlanar(planar [][]float32) error {
	if len(planar) != w.channels {
		return fmt.Errorf("channel count mismatch: got %d, want %d", len(planar), w.channels)
	}

	frames := math.MaxInt
	for _, ch := range planar {
		frames = min(frames, len(ch))
	}
	if frames == 0 || frames == math.MaxInt {
		return nil
	}

	interleaved := interleave(planar, frames)
	peak := maxValue(w.bitDepth)
	f32.Scale(interleaved, interleaved, float32(peak))

	data := make([]int, len(interleaved))
	for i, v := range interleaved {
		data[i] = int(math.Round(core.Clamp(float64(v), -peak, peak)))
	}

	buf := &audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: w.channels,
			SampleRate:  w.rate,
		},
		SourceBitDepth: w.bitDepth,
	}
	if err := w.encoder.Write(buf); err != nil {
		return fmt.Errorf("failed to write samples: %w", err)
	}
	return nil
}

// Close finalizes the WAV header and closes the file.
func (w *wavOutputWriter) Close() error {
	if err := w.encoder.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return w.file.Close()
}

// interleave packs the first frames samples of each channel into one slice.
func interleave(planar [][]float32, frames int) []float32 {
	channels := len(planar)
	out := make([]float32, frames*channels)

	switch channels {
	case monoChannels:
		copy(out, planar[0][:frames])
	case stereoChannels:
		f32.Interleave2(out, planar[0][:frames], planar[1][:frames])
	default:
		for ch, src := range planar {
			for i := range frames {
				out[i*channels+ch] = src[i]
			}
		}
	}
	return out
}

// maxValue returns the largest positive integer sample for a bit depth.
func maxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample24:
		return maxInt24
	case bitsPerSample32:
		return maxInt32
	default:
		return maxInt16
	}
}

// event changes one parameter at a frame.
type event struct {
	frame int
	id    looper.ParamID
	value float32
}

// transportTimes holds the scheduled transport presses in seconds. Negative
// times are disabled.
type transportTimes struct {
	recordAt  float64
	playAt    float64
	overdubAt float64
	clearAt   float64
}

// schedule converts transport times to frame events sorted by frame. Play
// ends recording, and clear is released one block after it is pressed.
func (t transportTimes) schedule(sampleRate float64, blockSize int) []event {
	at := func(seconds float64) int {
		return int(math.Round(seconds * sampleRate))
	}

	var events []event
	if t.recordAt >= 0 {
		events = append(events, event{frame: at(t.recordAt), id: looper.ParamRecord, value: 1})
	}
	if t.playAt >= 0 {
		frame := at(t.playAt)
		events = append(events,
			event{frame: frame, id: looper.ParamRecord, value: 0},
			event{frame: frame, id: looper.ParamPlay, value: 1},
		)
	}
	if t.overdubAt >= 0 {
		events = append(events, event{frame: at(t.overdubAt), id: looper.ParamOverdub, value: 1})
	}
	if t.clearAt >= 0 {
		frame := at(t.clearAt)
		events = append(events,
			event{frame: frame, id: looper.ParamClear, value: 1},
			event{frame: frame + max(1, blockSize), id: looper.ParamClear, value: 0},
		)
	}

	slices.SortStableFunc(events, func(a, b event) int {
		return a.frame - b.frame
	})
	return events
}

// render runs planar through proc in blocks of at most blockSize frames.
// Blocks are split at event frames so every event lands on a block start.
func render[T constraints.Float](proc *looper.Processor, planar [][]T, blockSize int, events []event) {
	if len(planar) == 0 {
		return
	}
	frames := len(planar[0])
	for _, ch := range planar[1:] {
		frames = min(frames, len(ch))
	}

	params := proc.Params()
	block := make([][]T, len(planar))
	next := 0

	for pos := 0; pos < frames; {
		for next < len(events) && events[next].frame <= pos {
			params.Set(events[next].id, events[next].value)
			next++
		}

		end := min(frames, pos+max(1, blockSize))
		if next < len(events) && events[next].frame < end {
			end = events[next].frame
		}

		for ch := range planar {
			block[ch] = planar[ch][pos:end]
		}
		processBlock(proc, block)
		pos = end
	}
}

func processBlock[T constraints.Float](proc *looper.Processor, block [][]T) {
	switch b := any(block).(type) {
	case [][]float32:
		proc.ProcessFloat32(b)
	case [][]float64:
		proc.ProcessFloat64(b)
	}
}

// widen copies planar float32 channels to float64.
func widen(planar [][]float32) [][]float64 {
	out := make([][]float64, len(planar))
	for ch, src := range planar {
		out[ch] = make([]float64, len(src))
		core.Convert(out[ch], src)
	}
	return out
}

// narrow copies planar float64 channels back into float32 channels.
func narrow(dst [][]float32, src [][]float64) {
	for ch := range min(len(dst), len(src)) {
		core.Convert(dst[ch], src[ch])
	}
}

// paramSettings is a repeatable key=value flag.
type paramSettings []preset.Setting

func (s *paramSettings) String() string {
	parts := make([]string, 0, len(*s))
	for _, setting := range *s {
		parts = append(parts, fmt.Sprintf("%s=%g", setting.ID.Info().Key, setting.Value))
	}
	return strings.Join(parts, ",")
}

func (s *paramSettings) Set(value string) error {
	key, raw, ok := strings.Cut(value, "=")
	if !ok {
		return fmt.Errorf("expected key=value, got %q", value)
	}

	id, err := looper.Lookup(strings.TrimSpace(key))
	if err != nil {
		return err
	}

	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 32)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	*s = append(*s, preset.Setting{ID: id, Value: float32(v)})
	return nil
}

// loadPreset resolves name as a Lua file when it ends in .lua and as a
// factory preset otherwise. An empty name yields the defaults.
func loadPreset(ctx context.Context, name string) (preset.Preset, error) {
	if name == "" {
		return preset.Preset{Name: "default"}, nil
	}

	if strings.EqualFold(filepath.Ext(name), ".lua") {
		p, err := preset.LoadLuaFile(ctx, name)
		if err != nil {
			return preset.Preset{}, fmt.Errorf("failed to load preset script: %w", err)
		}
		return p, nil
	}

	bank := preset.NewFactoryBank()
	index, err := bank.Find(name)
	if err != nil {
		return preset.Preset{}, fmt.Errorf("preset %q: %w", name, err)
	}
	return bank.Get(index)
}

// outputPath derives the output file for input. An explicit path wins;
// otherwise the input base name gets outputSuffix, placed in dir when set.
func outputPath(input, dir, explicit string) string {
	if explicit != "" {
		return explicit
	}

	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := stem + outputSuffix + ".wav"

	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// renderConfig is the per-job processing setup shared by all inputs.
type renderConfig struct {
	preset    preset.Preset
	overrides paramSettings
	times     transportTimes
	options   []looper.Option
	blockSize int
	bitDepth  int
	useF64    bool
	fftSize   int
}

// renderResult describes one rendered file.
type renderResult struct {
	input  string
	output string
	report analysis.Report
}

var errNoAudio = errors.New("input has no audio frames")

// renderFile decodes input, runs it through a fresh engine and writes output.
func renderFile(ctx context.Context, logger *slog.Logger, input, output string, cfg renderConfig) (renderResult, error) {
	in, err := openWAVInput(input)
	if err != nil {
		return renderResult{}, err
	}
	defer func() { _ = in.Close() }()

	logger.Debug("input format",
		"path", input, "rate", in.rate, "channels", in.channels, "bits", in.bitDepth)

	planar, err := in.readPlanar()
	if err != nil {
		return renderResult{}, err
	}
	if len(planar) == 0 || len(planar[0]) == 0 {
		return renderResult{}, errNoAudio
	}
	if err := ctx.Err(); err != nil {
		return renderResult{}, err
	}

	params := looper.NewParams()
	cfg.preset.Apply(params)
	for _, s := range cfg.overrides {
		params.Set(s.ID, s.Value)
	}

	proc, err := looper.New(params, cfg.options...)
	if err != nil {
		return renderResult{}, err
	}
	proc.PrepareWith(
		core.WithSampleRate(float64(in.rate)),
		core.WithBlockSize(cfg.blockSize),
		core.WithChannels(in.channels),
	)

	events := cfg.times.schedule(float64(in.rate), cfg.blockSize)
	if cfg.useF64 {
		wide := widen(planar)
		render(proc, wide, cfg.blockSize, events)
		narrow(planar, wide)
	} else {
		render(proc, planar, cfg.blockSize, events)
	}

	logger.Debug("engine finished",
		"path", input, "state", proc.State().String(), "loop_length", proc.Loop().Length,
		"clipped", proc.Meter().Clipped())

	bitDepth := cfg.bitDepth
	if bitDepth == 0 {
		bitDepth = in.bitDepth
	}

	out, err := createWAVOutput(output, in.rate, bitDepth, in.channels)
	if err != nil {
		return renderResult{}, err
	}
	if err := out.WritePlanar(planar); err != nil {
		_ = out.Close()
		return renderResult{}, err
	}
	if err := out.Close(); err != nil {
		return renderResult{}, err
	}

	var analysisOpts []analysis.Option
	if cfg.fftSize > 0 {
		analysisOpts = append(analysisOpts, analysis.WithFFTSize(cfg.fftSize))
	}
	report, err := analysis.Analyze(planar, float64(in.rate), analysisOpts...)
	if err != nil {
		return renderResult{}, fmt.Errorf("failed to analyze output: %w", err)
	}

	return renderResult{input: input, output: output, report: report}, nil
}

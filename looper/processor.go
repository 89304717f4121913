// Package looper implements a tape-style delay and sixteen-second phrase
// looper. A Processor runs one block at a time on the audio thread and reads
// its controls from a shared Params store.
package looper

import (
	"math"
	"sync/atomic"

	"golang.org/x/exp/constraints"

	"github.com/cwbudde/sixteen/dsp/core"
	"github.com/cwbudde/sixteen/dsp/delay"
	"github.com/cwbudde/sixteen/dsp/dither"
	"github.com/cwbudde/sixteen/dsp/effects"
	"github.com/cwbudde/sixteen/dsp/effects/dynamics"
	"github.com/cwbudde/sixteen/dsp/effects/modulation"
	"github.com/cwbudde/sixteen/dsp/loop"
	"github.com/cwbudde/sixteen/dsp/smooth"
	"github.com/cwbudde/sixteen/measure/meter"
)

const (
	fallbackSampleRate = 44100.0

	minModHz       = 0.05
	maxModHz       = 8.0
	maxModFraction = 0.02

	halfSpeedRate = 0.5
)

// Processor is the block-processing engine.
//
// Prepare must be called before processing and whenever the sample rate or
// channel layout changes. ProcessFloat32 and ProcessFloat64 must be called
// from one goroutine at a time and never concurrently with Prepare or Reset.
// State, Loop and Meter may be read from any goroutine.
type Processor struct {
	cfg    Config
	params *Params
	meter  *meter.PeakMeter

	sampleRate float64
	maxBlock   int
	capacity   int

	memory    delay.Memory
	stepper   loop.RateStepper
	transport loop.Transport
	region    loop.Region
	recorded  int
	state     loop.State

	smoother smooth.Smoother
	lfo      modulation.LFO
	feedback effects.FeedbackModel
	limiters []*dynamics.PeakLimiter
	noise    dither.LCG

	snap Snapshot

	publishedState  atomic.Int32
	publishedStart  atomic.Int64
	publishedLength atomic.Int64
}

// New creates an unprepared processor reading params. A nil params gets a
// fresh store holding the defaults.
func New(params *Params, opts ...Option) (*Processor, error) {
	cfg, err := ApplyOptions(opts...)
	if err != nil {
		return nil, err
	}

	if params == nil {
		params = NewParams()
	}

	p := &Processor{
		cfg:    cfg,
		params: params,
		meter:  meter.NewPeakMeter(),
	}

	return p, nil
}

// Prepare sizes the memory for sampleRate and channels and resets all state.
// A non-positive sample rate falls back to 44.1 kHz; a non-positive channel
// count falls back to one channel. maxBlockSize is advisory: blocks of any
// length are processed without allocating.
func (p *Processor) Prepare(sampleRate float64, maxBlockSize, channels int) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		sampleRate = fallbackSampleRate
	}

	p.sampleRate = sampleRate
	p.maxBlock = max(0, maxBlockSize)
	p.capacity = max(1, int(math.Ceil(sampleRate*p.cfg.MemorySeconds)))

	p.memory.Prepare(channels, p.capacity)
	p.prepareLimiters(p.memory.Channels())
	p.meter.Reset(sampleRate)
	p.transport.Reset()
	p.hardReset()
}

// prepareLimiters keeps one limiter per channel, reusing existing ones.
func (p *Processor) prepareLimiters(channels int) {
	for len(p.limiters) < channels {
		l := dynamics.NewPeakLimiter(p.sampleRate)
		l.SetThreshold(p.cfg.LimiterThreshold)
		l.SetAttackMs(p.cfg.LimiterAttackMs)
		l.SetReleaseMs(p.cfg.LimiterReleaseMs)
		p.limiters = append(p.limiters, l)
	}
	p.limiters = p.limiters[:channels]
}

// PrepareWith is Prepare driven by host processing options.
func (p *Processor) PrepareWith(opts ...core.ProcessorOption) {
	cfg := core.ApplyProcessorOptions(opts...)
	p.Prepare(cfg.SampleRate, cfg.BlockSize, cfg.Channels)
}

// Reset clears the loop and all signal state as a clear press would, and
// forgets the previous clear level.
func (p *Processor) Reset() {
	if !p.prepared() {
		return
	}
	p.transport.Reset()
	p.meter.Reset(p.sampleRate)
	p.hardReset()
}

// ProcessFloat32 processes buf in place. buf holds one slice per channel;
// the block length is the shortest slice.
func (p *Processor) ProcessFloat32(buf [][]float32) {
	processBlock(p, buf)
}

// ProcessFloat64 processes buf in place through the single-precision
// engine. Each sample is narrowed to float32 on entry and widened on exit.
func (p *Processor) ProcessFloat64(buf [][]float64) {
	processBlock(p, buf)
}

// Params returns the parameter store the processor reads.
func (p *Processor) Params() *Params { return p.params }

// Meter returns the output meter.
func (p *Processor) Meter() *meter.PeakMeter { return p.meter }

// Config returns the construction settings.
func (p *Processor) Config() Config { return p.cfg }

// SampleRate returns the prepared sample rate, or 0 before Prepare.
func (p *Processor) SampleRate() float64 { return p.sampleRate }

// MaxBlockSize returns the block size announced to Prepare.
func (p *Processor) MaxBlockSize() int { return p.maxBlock }

// Capacity returns the memory length in samples per channel.
func (p *Processor) Capacity() int { return p.capacity }

// Channels returns the prepared channel count.
func (p *Processor) Channels() int { return p.memory.Channels() }

// State returns the transport state after the most recent block.
func (p *Processor) State() loop.State {
	return loop.State(p.publishedState.Load())
}

// Loop returns the recorded region after the most recent block. Length is 0
// when no loop exists.
func (p *Processor) Loop() loop.Region {
	return loop.Region{
		Start:  int(p.publishedStart.Load()),
		Length: int(p.publishedLength.Load()),
	}
}

// TailSeconds returns the time output continues after input stops. The
// memory can recirculate indefinitely, so no finite tail is reported.
func (p *Processor) TailSeconds() float64 { return 0 }

// LatencySamples returns the processing latency.
func (p *Processor) LatencySamples() int { return 0 }

func (p *Processor) prepared() bool {
	return p.capacity > 0 && p.memory.Len() > 0 && p.memory.Channels() > 0
}

// hardReset returns every signal component to its initial state.
func (p *Processor) hardReset() {
	sr := p.sampleRate

	p.memory.Clear()
	p.region = loop.Region{}
	p.recorded = 0
	p.stepper.Reset(0)
	p.smoother.Reset(sr, 0, p.cfg.DelaySmoothingMs)
	p.feedback.Reset(sr)
	for _, l := range p.limiters {
		l.Reset(sr)
	}
	p.lfo.Reset(sr)
	p.noise.Seed(p.cfg.NoiseSeed)
	p.state = loop.Idle

	p.publish()
}

func (p *Processor) publish() {
	p.publishedState.Store(int32(p.state))
	p.publishedStart.Store(int64(p.region.Start))
	p.publishedLength.Store(int64(p.region.Length))
}

// transition applies the once-per-block side effects of a state change.
func (p *Processor) transition(next loop.State) {
	if p.state == next {
		return
	}

	if p.state == loop.Record {
		p.region = loop.Close(p.memory.WriteIndex(), p.recorded, p.capacity)
		p.stepper.Reset(0)
	}

	if next == loop.Record {
		p.recorded = 0
	}

	if next.Looping() && !p.state.Looping() {
		p.stepper.Reset(0)
	}

	p.state = next
}

// blockControls holds values derived once per block from the snapshot.
type blockControls struct {
	gain     float32
	dry      float32
	wet      float32
	limit    bool
	feedback float32

	overdubLevel float32
	erode        float32

	authentic   bool
	targetDelay int
	modDepth    float32
	rate        float64
}

func (p *Processor) controls(s *Snapshot) blockControls {
	mix := core.Clamp(s.Value(ParamMix), 0, 1)
	angle := float64(mix) * math.Pi / 2

	maxMod := float32(p.capacity) * maxModFraction

	rate := 1.0
	if s.Bool(ParamHalfSpeed) {
		rate = halfSpeedRate
	}
	if s.Bool(ParamReverse) {
		rate = -rate
	}

	delaySamples := float64(s.Value(ParamDelayTime)) * p.sampleRate / 1000

	return blockControls{
		gain:         float32(core.DBToLinear(float64(s.Value(ParamOutputGain)))),
		dry:          float32(math.Cos(angle)),
		wet:          float32(math.Sin(angle)),
		limit:        s.Bool(ParamLimiter),
		feedback:     s.Value(ParamFeedback),
		overdubLevel: s.Value(ParamOverdubLevel),
		erode:        s.Value(ParamErodeAmount),
		authentic:    s.Bool(ParamAuthentic),
		targetDelay:  core.Clamp(int(delaySamples), 0, p.capacity-1),
		modDepth:     core.Clamp(s.Value(ParamModDepth)*maxMod, 0, maxMod),
		rate:         rate,
	}
}

// processBlock is the block algorithm shared by both sample widths. Samples
// are narrowed to float32 on entry and widened back on exit.
func processBlock[T constraints.Float](p *Processor, buf [][]T) {
	frames := blockFrames(buf)
	if frames == 0 {
		return
	}

	if p.prepared() {
		run(p, buf, frames)
	}

	var right float32
	if len(buf) > 1 {
		right = meter.BlockPeak(buf[1][:frames])
	}
	p.meter.Update(meter.BlockPeak(buf[0][:frames]), right, frames)
}

func (p *Processor) beginBlock() blockControls {
	p.params.Load(&p.snap)
	s := &p.snap
	c := p.controls(s)

	p.lfo.SetFrequency(minModHz + s.Value(ParamModSpeed)*(maxModHz-minModHz))

	if c.authentic {
		p.smoother.SetTarget(float32(c.targetDelay))
		p.smoother.Process()
	} else {
		p.smoother.SetTimeMs(p.cfg.DelaySmoothingMs)
		p.smoother.SetTarget(float32(c.targetDelay))
	}

	for _, l := range p.limiters {
		l.SetThreshold(p.cfg.LimiterThreshold)
	}

	// A recording that ends this block only closes into a loop in
	// transition, so play and overdub see it from the next block on.
	next, clearEdge := p.transport.Next(loop.Intents{
		Record:  s.Bool(ParamRecord),
		Play:    s.Bool(ParamPlay),
		Overdub: s.Bool(ParamOverdub),
		Clear:   s.Bool(ParamClear),
	}, p.region.Valid())

	if clearEdge {
		p.hardReset()
	}
	p.transition(next)

	p.feedback.Prepare(s.Value(ParamFilter), s.Value(ParamNoise))

	return c
}

// run processes the prepared channels of buf. Extra channels are left
// untouched.
func run[T constraints.Float](p *Processor, buf [][]T, frames int) {
	if len(buf) > len(p.limiters) {
		buf = buf[:len(p.limiters)]
	}

	c := p.beginBlock()

	switch {
	case p.state == loop.Record:
		recordBlock(p, buf, frames, c)
	case p.state.Looping() && p.region.Valid():
		loopBlock(p, buf, frames, c)
	default:
		delayBlock(p, buf, frames, c)
	}

	p.publish()
}

func recordBlock[T constraints.Float](p *Processor, buf [][]T, frames int, c blockControls) {
	for i := range frames {
		w := p.memory.WriteIndex()

		for ch := range buf {
			in := float32(buf[ch][i])
			p.memory.WriteSample(ch, w, p.feedback.ProcessPrepared(in, 1, p.noise.Float32()))

			out := in * c.gain
			if c.limit {
				out = p.limiters[ch].ProcessSample(out)
			}
			buf[ch][i] = T(out)
		}

		p.memory.AdvanceWrite()
		if p.recorded < p.capacity {
			p.recorded++
		}
	}
}

func loopBlock[T constraints.Float](p *Processor, buf [][]T, frames int, c blockControls) {
	overdub := p.state == loop.Overdub
	p.stepper.SetRate(c.rate)

	for i := range frames {
		r := p.region.ReadIndex(&p.stepper)

		for ch := range buf {
			in := float32(buf[ch][i])
			read := p.memory.ReadSample(ch, r)

			out := (in*c.dry + read*c.wet) * c.gain
			if c.limit {
				out = p.limiters[ch].ProcessSample(out)
			}
			buf[ch][i] = T(out)

			if overdub {
				v := loop.OverdubSample(read, in, read, c.overdubLevel, c.feedback, c.erode)
				p.memory.WriteSample(ch, r, p.feedback.ProcessPrepared(v, 1, p.noise.Float32()))
			}
		}

		p.stepper.Advance()
	}

	p.stepper.Rebase(p.region.Length, p.cfg.RebaseLoopPeriods)
}

func delayBlock[T constraints.Float](p *Processor, buf [][]T, frames int, c blockControls) {
	for i := range frames {
		mod := p.lfo.Process() * c.modDepth

		// Modulation only applies in authentic mode; the LFO advances
		// every sample either way.
		var delaySamples float32
		if c.authentic {
			delaySamples = float32(c.targetDelay) + mod
		} else {
			delaySamples = p.smoother.Process()
		}

		w := p.memory.WriteIndex()
		readPos := float32(w) - delaySamples

		for ch := range buf {
			in := float32(buf[ch][i])

			var read float32
			if c.authentic {
				read = p.memory.ReadSample(ch, int(readPos))
			} else {
				read = p.memory.ReadSampleLinear(ch, readPos)
			}

			fb := p.feedback.ProcessPrepared(read, c.feedback, p.noise.Float32())
			p.memory.WriteSample(ch, w, in+fb)

			out := (in*c.dry + read*c.wet) * c.gain
			if c.limit {
				out = p.limiters[ch].ProcessSample(out)
			}
			buf[ch][i] = T(out)
		}

		p.memory.AdvanceWrite()
	}
}

func blockFrames[T any](buf [][]T) int {
	if len(buf) == 0 {
		return 0
	}

	n := len(buf[0])
	for _, ch := range buf[1:] {
		n = min(n, len(ch))
	}
	return n
}

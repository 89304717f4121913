package looper

import (
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/cwbudde/sixteen/dsp/core"
)

// ErrUnknownParam is returned when a parameter key is not recognized.
var ErrUnknownParam = errors.New("looper: unknown parameter")

// ParamID identifies one engine parameter.
type ParamID int

const (
	ParamDelayTime ParamID = iota
	ParamFeedback
	ParamMix
	ParamOverdubLevel
	ParamErodeAmount
	ParamOutputGain
	ParamFilter
	ParamNoise
	ParamModDepth
	ParamModSpeed
	ParamRecord
	ParamPlay
	ParamOverdub
	ParamClear
	ParamHalfSpeed
	ParamReverse
	ParamAuthentic
	ParamLimiter

	// NumParams is the number of parameters.
	NumParams int = iota
)

// ParamInfo describes a parameter's key, range and default.
type ParamInfo struct {
	ID      ParamID
	Key     string
	Name    string
	Min     float32
	Max     float32
	Default float32
	Step    float32
	Unit    string
	Bool    bool
}

var paramTable = [NumParams]ParamInfo{
	{ID: ParamDelayTime, Key: "delayTime", Name: "Delay Time", Min: 0, Max: 16000, Default: 450, Step: 1, Unit: "ms"},
	{ID: ParamFeedback, Key: "feedback", Name: "Feedback", Min: 0, Max: 1.2, Default: 0.65, Step: 0.001},
	{ID: ParamMix, Key: "mix", Name: "Mix", Min: 0, Max: 1, Default: 0.5, Step: 0.001},
	{ID: ParamOverdubLevel, Key: "overdubLevel", Name: "Overdub Level", Min: 0, Max: 1, Default: 0.6, Step: 0.001},
	{ID: ParamErodeAmount, Key: "erodeAmount", Name: "Erode Amount", Min: 0, Max: 1, Default: 0.35, Step: 0.001},
	{ID: ParamOutputGain, Key: "outputGain", Name: "Output Gain", Min: -24, Max: 12, Default: 0, Step: 0.01, Unit: "dB"},
	{ID: ParamFilter, Key: "filter", Name: "Filter", Min: 0, Max: 1, Default: 0.6, Step: 0.001},
	{ID: ParamNoise, Key: "noise", Name: "Noise/Grit", Min: 0, Max: 1, Default: 0.25, Step: 0.001},
	{ID: ParamModDepth, Key: "modDepth", Name: "Mod Depth", Min: 0, Max: 1, Default: 0.15, Step: 0.001},
	{ID: ParamModSpeed, Key: "modSpeed", Name: "Mod Speed", Min: 0, Max: 1, Default: 0.25, Step: 0.001},
	{ID: ParamRecord, Key: "record", Name: "Record", Max: 1, Step: 1, Bool: true},
	{ID: ParamPlay, Key: "play", Name: "Play", Max: 1, Step: 1, Bool: true},
	{ID: ParamOverdub, Key: "overdub", Name: "Overdub", Max: 1, Step: 1, Bool: true},
	{ID: ParamClear, Key: "clear", Name: "Clear", Max: 1, Step: 1, Bool: true},
	{ID: ParamHalfSpeed, Key: "halfSpeed", Name: "Half-speed", Max: 1, Step: 1, Bool: true},
	{ID: ParamReverse, Key: "reverse", Name: "Reverse", Max: 1, Step: 1, Bool: true},
	{ID: ParamAuthentic, Key: "authentic", Name: "Authentic", Max: 1, Step: 1, Bool: true},
	{ID: ParamLimiter, Key: "limiter", Name: "Limiter", Max: 1, Default: 1, Step: 1, Bool: true},
}

var paramsByKey = func() map[string]ParamID {
	m := make(map[string]ParamID, NumParams)
	for _, info := range paramTable {
		m[info.Key] = info.ID
	}
	return m
}()

// Valid reports whether id names a parameter.
func (id ParamID) Valid() bool {
	return id >= 0 && int(id) < NumParams
}

// Info returns the parameter description, or the zero value for an invalid id.
func (id ParamID) Info() ParamInfo {
	if !id.Valid() {
		return ParamInfo{}
	}
	return paramTable[id]
}

// String returns the parameter key.
func (id ParamID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return paramTable[id].Key
}

// Clamp limits v to the parameter range. Boolean parameters collapse to 0 or 1.
func (info ParamInfo) Clamp(v float32) float32 {
	if math.IsNaN(float64(v)) {
		return info.Default
	}
	if info.Bool {
		return boolValue(v > 0.5)
	}
	return core.Clamp(v, info.Min, info.Max)
}

// Lookup resolves a parameter key such as "delayTime".
func Lookup(key string) (ParamID, error) {
	id, ok := paramsByKey[key]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownParam, key)
	}
	return id, nil
}

// ParamInfos returns all parameter descriptions in ID order.
func ParamInfos() []ParamInfo {
	out := make([]ParamInfo, NumParams)
	copy(out, paramTable[:])
	return out
}

// Params is the shared parameter store. Any goroutine may write; the audio
// thread reads once per block through Load. Each value is an independent
// atomic, so a block may observe a mix of old and new values when several
// are changed concurrently.
type Params struct {
	values [NumParams]atomic.Uint32
}

// NewParams returns a store holding the defaults.
func NewParams() *Params {
	p := &Params{}
	p.ResetDefaults()
	return p
}

// ResetDefaults stores every parameter's default.
func (p *Params) ResetDefaults() {
	for i := range p.values {
		p.values[i].Store(math.Float32bits(paramTable[i].Default))
	}
}

// Set stores v clamped into the parameter's range. Invalid ids are ignored.
func (p *Params) Set(id ParamID, v float32) {
	if !id.Valid() {
		return
	}
	p.values[id].Store(math.Float32bits(paramTable[id].Clamp(v)))
}

// SetBool stores 1 for true and 0 for false.
func (p *Params) SetBool(id ParamID, on bool) {
	p.Set(id, boolValue(on))
}

// Toggle flips a boolean parameter and returns its new state. Concurrent
// toggles of the same parameter may collapse into one.
func (p *Params) Toggle(id ParamID) bool {
	on := !p.Bool(id)
	p.SetBool(id, on)
	return on
}

// SetKey stores v for the parameter named key.
func (p *Params) SetKey(key string, v float32) error {
	id, err := Lookup(key)
	if err != nil {
		return err
	}
	p.Set(id, v)
	return nil
}

// Get returns the current value, or 0 for an invalid id.
func (p *Params) Get(id ParamID) float32 {
	if !id.Valid() {
		return 0
	}
	return math.Float32frombits(p.values[id].Load())
}

// Bool reports whether the value is above 0.5.
func (p *Params) Bool(id ParamID) bool {
	return p.Get(id) > 0.5
}

// Load copies every value into dst without allocating.
func (p *Params) Load(dst *Snapshot) {
	for i := range p.values {
		dst.values[i] = math.Float32frombits(p.values[i].Load())
	}
}

// Snapshot returns a copy of every value.
func (p *Params) Snapshot() Snapshot {
	var s Snapshot
	p.Load(&s)
	return s
}

// Restore stores every value of s, clamped into range.
func (p *Params) Restore(s Snapshot) {
	for i, v := range s.values {
		p.Set(ParamID(i), v)
	}
}

// Snapshot is a point-in-time copy of the parameter store. The zero value
// holds zeros, not defaults; use DefaultSnapshot for those.
type Snapshot struct {
	values [NumParams]float32
}

// DefaultSnapshot returns a snapshot holding every default.
func DefaultSnapshot() Snapshot {
	var s Snapshot
	for i, info := range paramTable {
		s.values[i] = info.Default
	}
	return s
}

// Value returns the stored value, or 0 for an invalid id.
func (s *Snapshot) Value(id ParamID) float32 {
	if !id.Valid() {
		return 0
	}
	return s.values[id]
}

// Bool reports whether the stored value is above 0.5.
func (s *Snapshot) Bool(id ParamID) bool {
	return s.Value(id) > 0.5
}

// Set stores v clamped into range.
func (s *Snapshot) Set(id ParamID, v float32) {
	if !id.Valid() {
		return
	}
	s.values[id] = paramTable[id].Clamp(v)
}

// Map returns the snapshot keyed by parameter key.
func (s *Snapshot) Map() map[string]float32 {
	m := make(map[string]float32, NumParams)
	for i, info := range paramTable {
		m[info.Key] = s.values[i]
	}
	return m
}

// SnapshotFromMap builds a snapshot from defaults overridden by m.
// Unknown keys are reported with ErrUnknownParam.
func SnapshotFromMap(m map[string]float32) (Snapshot, error) {
	s := DefaultSnapshot()
	for key, v := range m {
		id, err := Lookup(key)
		if err != nil {
			return Snapshot{}, err
		}
		s.Set(id, v)
	}
	return s, nil
}

func boolValue(on bool) float32 {
	if on {
		return 1
	}
	return 0
}

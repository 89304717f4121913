// Package preset provides named parameter bundles for the looper: a factory
// bank and user presets written as Lua scripts.
package preset

import (
	"errors"
	"fmt"

	"github.com/cwbudde/sixteen/looper"
)

// ErrUnknownPreset is returned for an out-of-range index or unknown name.
var ErrUnknownPreset = errors.New("preset: unknown preset")

// Setting is one parameter assignment.
type Setting struct {
	ID    looper.ParamID
	Value float32
}

// Preset is a named list of parameter assignments applied in order.
type Preset struct {
	Name     string
	Settings []Setting
}

// Apply writes every setting into params.
func (p Preset) Apply(params *looper.Params) {
	for _, s := range p.Settings {
		params.Set(s.ID, s.Value)
	}
}

// Value returns the last value assigned to id and whether the preset sets it.
func (p Preset) Value(id looper.ParamID) (float32, bool) {
	for i := len(p.Settings) - 1; i >= 0; i-- {
		if p.Settings[i].ID == id {
			return p.Settings[i].Value, true
		}
	}
	return 0, false
}

// transportOff stops the transport so loading a preset never starts a take.
var transportOff = []Setting{
	{ID: looper.ParamRecord, Value: 0},
	{ID: looper.ParamPlay, Value: 0},
	{ID: looper.ParamOverdub, Value: 0},
	{ID: looper.ParamClear, Value: 0},
}

// Bank is an ordered preset list with a current selection. It is not safe
// for concurrent use.
type Bank struct {
	presets []Preset
	current int
}

// NewBank returns a bank holding presets.
func NewBank(presets ...Preset) *Bank {
	return &Bank{presets: append([]Preset(nil), presets...)}
}

// Count returns the number of presets.
func (b *Bank) Count() int { return len(b.presets) }

// Current returns the index of the last applied preset.
func (b *Bank) Current() int { return b.current }

// Name returns the name at index, or "" when out of range.
func (b *Bank) Name(index int) string {
	if index < 0 || index >= len(b.presets) {
		return ""
	}
	return b.presets[index].Name
}

// Get returns the preset at index.
func (b *Bank) Get(index int) (Preset, error) {
	if index < 0 || index >= len(b.presets) {
		return Preset{}, fmt.Errorf("%w: index %d", ErrUnknownPreset, index)
	}
	return b.presets[index], nil
}

// Find returns the index of the preset called name.
func (b *Bank) Find(name string) (int, error) {
	for i, p := range b.presets {
		if p.Name == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Add appends p and returns its index. A preset with the same name is
// replaced in place.
func (b *Bank) Add(p Preset) int {
	if i, err := b.Find(p.Name); err == nil {
		b.presets[i] = p
		return i
	}
	b.presets = append(b.presets, p)
	return len(b.presets) - 1
}

// Apply writes the preset at index into params and makes it current.
func (b *Bank) Apply(index int, params *looper.Params) error {
	p, err := b.Get(index)
	if err != nil {
		return err
	}

	p.Apply(params)
	b.current = index
	return nil
}

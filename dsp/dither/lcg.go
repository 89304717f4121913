package dither

// DefaultSeed is the state the looper restores on every hard reset.
const DefaultSeed uint32 = 0x1234567

const (
	lcgMultiplier uint32 = 1664525
	lcgIncrement  uint32 = 1013904223
	mantissaMask  uint32 = 0x00FFFFFF
)

// LCG is a 32-bit linear-congruential noise source for grit injection.
// Its sequence is fully determined by the seed and the number of draws;
// it is not suitable for anything cryptographic.
type LCG struct {
	state uint32
}

// NewLCG returns a generator seeded with seed.
func NewLCG(seed uint32) *LCG {
	return &LCG{state: seed}
}

// Seed restarts the sequence from seed.
func (g *LCG) Seed(seed uint32) {
	g.state = seed
}

// State returns the raw generator state.
func (g *LCG) State() uint32 { return g.state }

// Next advances the state once and returns it.
func (g *LCG) Next() uint32 {
	g.state = g.state*lcgMultiplier + lcgIncrement
	return g.state
}

// Float32 advances once and returns a value in [0, 1] built from bits 8..31.
func (g *LCG) Float32() float32 {
	bits := (g.Next() >> 8) & mantissaMask
	return float32(bits) / float32(mantissaMask)
}

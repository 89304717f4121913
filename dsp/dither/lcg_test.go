package dither

import "testing"

func TestLCGDeterministic(t *testing.T) {
	a := NewLCG(DefaultSeed)
	b := NewLCG(DefaultSeed)
	for i := range 1000 {
		if x, y := a.Float32(), b.Float32(); x != y {
			t.Fatalf("draw %d differs: %v vs %v", i, x, y)
		}
	}
}

func TestLCGFirstStep(t *testing.T) {
	g := NewLCG(0)
	if got := g.Next(); got != lcgIncrement {
		t.Fatalf("Next() from 0 = %d, want %d", got, lcgIncrement)
	}
	mul, inc := lcgMultiplier, lcgIncrement
	if got := g.Next(); got != inc*mul+inc {
		t.Fatalf("second Next() = %d", got)
	}
}

func TestLCGFloat32Range(t *testing.T) {
	g := NewLCG(42)
	var lo, hi float32 = 1, 0
	for range 100000 {
		v := g.Float32()
		if v < 0 || v > 1 {
			t.Fatalf("Float32() = %v outside [0, 1]", v)
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if lo > 0.01 || hi < 0.99 {
		t.Fatalf("range [%v, %v] does not cover [0, 1]", lo, hi)
	}
}

func TestLCGReseed(t *testing.T) {
	g := NewLCG(DefaultSeed)
	first := g.Float32()
	for range 50 {
		g.Float32()
	}
	g.Seed(DefaultSeed)
	if got := g.Float32(); got != first {
		t.Fatalf("after reseed = %v, want %v", got, first)
	}
	if g.State() == DefaultSeed {
		t.Fatal("State() did not advance")
	}
}

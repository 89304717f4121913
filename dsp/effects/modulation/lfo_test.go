package modulation

import (
	"math"
	"testing"
)

func TestLFOCompletesCycle(t *testing.T) {
	l := NewLFO(48000)
	l.SetFrequency(1)

	lo, hi := float32(1), float32(-1)
	for range 48000 {
		v := l.Process()
		lo = min(lo, v)
		hi = max(hi, v)
	}

	if lo >= -0.5 {
		t.Fatalf("min = %v, want < -0.5", lo)
	}
	if hi <= 0.5 {
		t.Fatalf("max = %v, want > 0.5", hi)
	}
}

func TestLFOStartsAtZeroPhase(t *testing.T) {
	l := NewLFO(44100)
	l.SetFrequency(5)
	if v := l.Process(); v != 0 {
		t.Fatalf("first sample = %v, want 0", v)
	}
}

func TestLFOPhaseStaysWrapped(t *testing.T) {
	l := NewLFO(1000)
	l.SetFrequency(333)
	for i := range 10000 {
		l.Process()
		if p := l.Phase(); p < 0 || p >= 2*math.Pi {
			t.Fatalf("step %d: phase %v outside [0, 2π)", i, p)
		}
	}
}

func TestLFONegativeFrequencyClamps(t *testing.T) {
	l := NewLFO(48000)
	l.SetFrequency(-3)
	if l.Frequency() != 0 {
		t.Fatalf("Frequency = %v, want 0", l.Frequency())
	}
	for range 100 {
		if v := l.Process(); v != 0 {
			t.Fatalf("frozen LFO produced %v", v)
		}
	}
}

func TestLFOFrequencyChangeKeepsPhase(t *testing.T) {
	l := NewLFO(48000)
	l.SetFrequency(2)
	for range 1000 {
		l.Process()
	}
	before := l.Phase()
	l.SetFrequency(7)
	if l.Phase() != before {
		t.Fatalf("phase jumped from %v to %v on frequency change", before, l.Phase())
	}
}

func TestLFOResetZeroesPhase(t *testing.T) {
	l := NewLFO(48000)
	for range 777 {
		l.Process()
	}
	l.Reset(96000)
	if l.Phase() != 0 {
		t.Fatalf("phase after Reset = %v", l.Phase())
	}
}

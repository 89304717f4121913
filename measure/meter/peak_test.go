package meter

import (
	"sync"
	"testing"
)

func TestPeakMeterDefaults(t *testing.T) {
	m := NewPeakMeter()

	if got := m.HoldSamples(); got != 24000 {
		t.Fatalf("HoldSamples() = %d, want 24000", got)
	}

	if r := m.Read(); r != (Reading{}) {
		t.Fatalf("Read() = %+v, want zero", r)
	}
}

func TestPeakMeterDecay(t *testing.T) {
	m := NewPeakMeter(WithSampleRate(48000))
	m.Update(0.8, 0.4, 512)

	if got := m.Left(); got != 0.8 {
		t.Fatalf("Left() = %v, want 0.8", got)
	}

	m.Update(0, 0.5, 512)

	if got, want := m.Left(), float32(0.8)*0.9; got != want {
		t.Fatalf("Left() after decay = %v, want %v", got, want)
	}

	if got := m.Right(); got != 0.5 {
		t.Fatalf("Right() = %v, want 0.5", got)
	}
}

func TestPeakMeterClipHold(t *testing.T) {
	m := NewPeakMeter(WithSampleRate(1000), WithClipHold(0.5))

	m.Update(1.2, 0, 100)
	if !m.Clipped() {
		t.Fatal("Clipped() = false after over, want true")
	}

	// 500 hold samples: four quiet blocks of 100 keep the flag lit.
	for i := range 4 {
		m.Update(0.1, 0.1, 100)
		if !m.Clipped() {
			t.Fatalf("Clipped() = false after %d quiet blocks, want true", i+1)
		}
	}

	m.Update(0.1, 0.1, 100)
	if m.Clipped() {
		t.Fatal("Clipped() = true after hold expired, want false")
	}
}

func TestPeakMeterExactlyUnityIsNotClip(t *testing.T) {
	m := NewPeakMeter()
	m.Update(1, 1, 64)

	if m.Clipped() {
		t.Fatal("Clipped() = true for peak 1.0, want false")
	}
}

func TestPeakMeterOptionValidation(t *testing.T) {
	cfg := ApplyMeterOptions(WithDecay(1.5), WithClipHold(-1), WithSampleRate(-44100), nil)
	want := DefaultMeterConfig()

	if cfg != want {
		t.Fatalf("config = %+v, want %+v", cfg, want)
	}
}

func TestPeakMeterReset(t *testing.T) {
	m := NewPeakMeter()
	m.Update(3, 3, 16)
	m.Reset(96000)

	if r := m.Read(); r != (Reading{}) {
		t.Fatalf("Read() after reset = %+v, want zero", r)
	}

	if got := m.HoldSamples(); got != 48000 {
		t.Fatalf("HoldSamples() = %d, want 48000", got)
	}
}

func TestBlockPeak(t *testing.T) {
	tests := []struct {
		name string
		in   []float64
		want float32
	}{
		{name: "empty", in: nil, want: 0},
		{name: "positive", in: []float64{0.1, 0.7, 0.3}, want: 0.7},
		{name: "negative", in: []float64{0.2, -0.9, 0.5}, want: 0.9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BlockPeak(tt.in); got != tt.want {
				t.Fatalf("BlockPeak() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeakMeterConcurrentReaders(t *testing.T) {
	m := NewPeakMeter()

	var wg sync.WaitGroup
	done := make(chan struct{})

	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					r := m.Read()
					if r.Left < 0 || r.Right < 0 {
						t.Errorf("negative reading %+v", r)
						return
					}
				}
			}
		}()
	}

	for i := range 10000 {
		m.Update(float32(i%100)/50, 0.25, 128)
	}

	close(done)
	wg.Wait()
}

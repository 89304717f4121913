package dynamics

import (
	"math"
	"testing"
)

func TestPeakLimiterDefaults(t *testing.T) {
	l := NewPeakLimiter(48000)

	if got := l.Threshold(); got != 0.98 {
		t.Fatalf("Threshold() = %v, want 0.98", got)
	}

	if got := l.AttackMs(); got != 1 {
		t.Fatalf("AttackMs() = %v, want 1", got)
	}

	if got := l.ReleaseMs(); got != 50 {
		t.Fatalf("ReleaseMs() = %v, want 50", got)
	}
}

func TestPeakLimiterClampsSustainedPeak(t *testing.T) {
	l := NewPeakLimiter(48000)
	l.SetThreshold(0.5)
	l.SetAttackMs(0.1)
	l.SetReleaseMs(10)

	var out float32
	for range 512 {
		out = l.ProcessSample(1)
	}

	if out > 0.5+1e-3 {
		t.Fatalf("output = %v, want <= 0.501", out)
	}
}

func TestPeakLimiterPassesQuietSignal(t *testing.T) {
	l := NewPeakLimiter(48000)

	for i := range 2048 {
		in := float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/48000))
		if got := l.ProcessSample(in); got != in {
			t.Fatalf("sample %d = %v, want %v", i, got, in)
		}
	}
}

func TestPeakLimiterSetterClamping(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*PeakLimiter)
		get   func(*PeakLimiter) float32
		want  float32
	}{
		{
			name:  "threshold low",
			apply: func(l *PeakLimiter) { l.SetThreshold(0) },
			get:   (*PeakLimiter).Threshold,
			want:  0.01,
		},
		{
			name:  "threshold high",
			apply: func(l *PeakLimiter) { l.SetThreshold(4) },
			get:   (*PeakLimiter).Threshold,
			want:  1,
		},
		{
			name:  "attack floor",
			apply: func(l *PeakLimiter) { l.SetAttackMs(0) },
			get:   (*PeakLimiter).AttackMs,
			want:  0.1,
		},
		{
			name:  "release floor",
			apply: func(l *PeakLimiter) { l.SetReleaseMs(-5) },
			get:   (*PeakLimiter).ReleaseMs,
			want:  1,
		},
		{
			name:  "nan ignored",
			apply: func(l *PeakLimiter) { l.SetThreshold(float32(math.NaN())) },
			get:   (*PeakLimiter).Threshold,
			want:  0.98,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewPeakLimiter(48000)
			tt.apply(l)

			if got := tt.get(l); got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPeakLimiterResetClearsEnvelope(t *testing.T) {
	l := NewPeakLimiter(48000)
	for range 256 {
		l.ProcessSample(2)
	}

	if l.Envelope() == 0 {
		t.Fatal("envelope did not rise")
	}

	l.Reset(48000)
	if got := l.Envelope(); got != 0 {
		t.Fatalf("Envelope() after reset = %v, want 0", got)
	}
}

func TestPeakLimiterProcessInPlaceMatchesSample(t *testing.T) {
	a := NewPeakLimiter(44100)
	b := NewPeakLimiter(44100)

	buf := make([]float32, 300)
	for i := range buf {
		buf[i] = float32(1.5 * math.Sin(float64(i)*0.03))
	}

	want := make([]float32, len(buf))
	for i, x := range buf {
		want[i] = b.ProcessSample(x)
	}

	a.ProcessInPlace(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d = %v, want %v", i, buf[i], want[i])
		}
	}
}

func TestPeakLimiterInvalidSampleRate(t *testing.T) {
	a := NewPeakLimiter(-1)
	b := NewPeakLimiter(44100)

	for i := range 64 {
		x := float32(i) * 0.05
		if got, want := a.ProcessSample(x), b.ProcessSample(x); got != want {
			t.Fatalf("sample %d = %v, want %v", i, got, want)
		}
	}
}

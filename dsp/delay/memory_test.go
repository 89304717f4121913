package delay

import (
	"math/rand/v2"
	"testing"
)

func TestMemoryWrapsWriteIndex(t *testing.T) {
	var m Memory
	m.Prepare(2, 4)

	if m.WriteIndex() != 0 {
		t.Fatalf("WriteIndex = %d, want 0", m.WriteIndex())
	}

	for range 6 {
		m.AdvanceWrite()
	}

	if m.WriteIndex() != 2 {
		t.Fatalf("WriteIndex = %d, want 2", m.WriteIndex())
	}
}

func TestMemoryCursorStaysInRange(t *testing.T) {
	for _, size := range []int{1, 2, 7, 64} {
		var m Memory
		m.Prepare(1, size)
		for calls := 1; calls <= 3*size+1; calls++ {
			m.AdvanceWrite()
			if got, want := m.WriteIndex(), calls%size; got != want {
				t.Fatalf("size %d after %d calls: WriteIndex = %d, want %d", size, calls, got, want)
			}
		}
	}
}

func TestMemoryReadWriteWithWrap(t *testing.T) {
	var m Memory
	m.Prepare(1, 4)

	m.WriteSample(0, 0, 1)
	m.WriteSample(0, 1, 2)
	m.WriteSample(0, 2, 3)
	m.WriteSample(0, 3, 4)

	tests := []struct {
		index int
		want  float32
	}{
		{0, 1},
		{3, 4},
		{4, 1},
		{-1, 4},
		{-8, 1},
		{9, 2},
	}
	for _, tt := range tests {
		if got := m.ReadSample(0, tt.index); got != tt.want {
			t.Fatalf("ReadSample(0, %d) = %v, want %v", tt.index, got, tt.want)
		}
	}

	m.WriteSample(0, -1, 9)
	if got := m.ReadSample(0, 3); got != 9 {
		t.Fatalf("negative write landed at %v, want 9 at index 3", got)
	}
}

func TestMemoryWrappedIndexEquivalence(t *testing.T) {
	const size = 13
	var m Memory
	m.Prepare(1, size)
	for i := range size {
		m.WriteSample(0, i, float32(i)+0.5)
	}

	rng := rand.New(rand.NewPCG(7, 11))
	for range 500 {
		i := rng.IntN(2000) - 1000
		wrapped := ((i % size) + size) % size
		if a, b := m.ReadSample(0, i), m.ReadSample(0, wrapped); a != b {
			t.Fatalf("ReadSample(%d) = %v, ReadSample(%d) = %v", i, a, wrapped, b)
		}
	}
}

func TestMemoryChannelsAreIndependent(t *testing.T) {
	var m Memory
	m.Prepare(2, 8)
	m.WriteSample(0, 3, 0.25)
	m.WriteSample(1, 3, -0.75)

	if got := m.ReadSample(0, 3); got != 0.25 {
		t.Fatalf("channel 0 = %v, want 0.25", got)
	}
	if got := m.ReadSample(1, 3); got != -0.75 {
		t.Fatalf("channel 1 = %v, want -0.75", got)
	}
}

func TestMemoryOutOfRangeChannel(t *testing.T) {
	var m Memory
	m.Prepare(1, 4)
	m.WriteSample(1, 0, 5)
	m.WriteSample(-1, 0, 5)

	if got := m.ReadSample(0, 0); got != 0 {
		t.Fatalf("out-of-range write leaked into channel 0: %v", got)
	}
	if got := m.ReadSample(3, 0); got != 0 {
		t.Fatalf("ReadSample(3, 0) = %v, want 0", got)
	}
}

func TestMemoryUnpreparedIsSilent(t *testing.T) {
	var m Memory
	m.WriteSample(0, 0, 1)
	m.AdvanceWrite()
	if got := m.ReadSample(0, 0); got != 0 {
		t.Fatalf("ReadSample on unprepared memory = %v, want 0", got)
	}
	if m.Len() != 0 || m.Channels() != 0 {
		t.Fatalf("unprepared dims = %d×%d, want 0×0", m.Channels(), m.Len())
	}
}

func TestMemoryPrepareFallback(t *testing.T) {
	var m Memory
	m.Prepare(0, -5)
	if m.Channels() != 1 || m.Len() != 1 {
		t.Fatalf("fallback dims = %d×%d, want 1×1", m.Channels(), m.Len())
	}
}

func TestMemoryClear(t *testing.T) {
	var m Memory
	m.Prepare(2, 4)
	m.WriteSample(0, 1, 1)
	m.WriteSample(1, 2, 1)
	m.AdvanceWrite()

	m.Clear()

	if m.WriteIndex() != 0 {
		t.Fatalf("WriteIndex after Clear = %d, want 0", m.WriteIndex())
	}
	for ch := range 2 {
		for i := range 4 {
			if v := m.ReadSample(ch, i); v != 0 {
				t.Fatalf("sample [%d][%d] = %v after Clear, want 0", ch, i, v)
			}
		}
	}
}

func TestMemoryLinearRead(t *testing.T) {
	var m Memory
	m.Prepare(1, 4)
	for i, v := range []float32{0, 1, 2, 3} {
		m.WriteSample(0, i, v)
	}

	for i := -4; i < 8; i++ {
		if a, b := m.ReadSampleLinear(0, float32(i)), m.ReadSample(0, i); a != b {
			t.Fatalf("ReadSampleLinear(%d) = %v, ReadSample = %v", i, a, b)
		}
	}

	if got := m.ReadSampleLinear(0, 1.5); got != 1.5 {
		t.Fatalf("ReadSampleLinear(1.5) = %v, want 1.5", got)
	}

	// Between the last slot and the wrapped first slot.
	if got := m.ReadSampleLinear(0, 3.5); got != 1.5 {
		t.Fatalf("ReadSampleLinear(3.5) = %v, want 1.5", got)
	}

	if got := m.ReadSampleLinear(0, -0.25); got != 0.75 {
		t.Fatalf("ReadSampleLinear(-0.25) = %v, want 0.75", got)
	}
}

func TestMemorySetWriteIndexWraps(t *testing.T) {
	var m Memory
	m.Prepare(1, 5)
	m.SetWriteIndex(-2)
	if m.WriteIndex() != 3 {
		t.Fatalf("WriteIndex = %d, want 3", m.WriteIndex())
	}
}

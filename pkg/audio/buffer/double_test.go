// ABOUTME: Tests for the visualization double buffer
// ABOUTME: Tests priming, flipping and multi-flip writes
package buffer

import "testing"

func ramp(start, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		out[i] = int16(start + i)
	}
	return out
}

func TestDoubleBufferNotPrimed(t *testing.T) {
	d := NewDoubleBuffer(8)
	d.Write(ramp(0, 7))

	out := make([]int16, 8)
	if n := d.Read(out); n != 0 {
		t.Errorf("expected 0 before first full cycle, got %d", n)
	}
	if d.HasData() {
		t.Error("expected HasData=false before first full cycle")
	}
}

func TestDoubleBufferExactCapacity(t *testing.T) {
	d := NewDoubleBuffer(8)
	in := ramp(100, 8)
	d.Write(in)

	out := make([]int16, 8)
	n := d.Read(out)
	if n != 8 {
		t.Fatalf("expected 8 samples, got %d", n)
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: expected %d, got %d", i, in[i], out[i])
		}
	}
	if d.Flips() != 1 {
		t.Errorf("expected 1 flip, got %d", d.Flips())
	}
}

func TestDoubleBufferMultipleFlipsInOneWrite(t *testing.T) {
	const size = 8
	const k = 3
	d := NewDoubleBuffer(size)
	d.Write(ramp(0, 2*size+k))

	if d.Flips() != 2 {
		t.Fatalf("expected 2 flips, got %d", d.Flips())
	}

	out := make([]int16, size)
	if n := d.Read(out); n != size {
		t.Fatalf("expected %d samples, got %d", size, n)
	}
	for i := 0; i < size; i++ {
		if out[i] != int16(size+i) {
			t.Errorf("sample %d: expected %d, got %d", i, size+i, out[i])
		}
	}
}

func TestDoubleBufferFrontStableWhileBackFills(t *testing.T) {
	d := NewDoubleBuffer(4)
	d.Write(ramp(0, 4))
	d.Write(ramp(50, 3))

	out := make([]int16, 4)
	d.Read(out)
	for i := 0; i < 4; i++ {
		if out[i] != int16(i) {
			t.Errorf("sample %d: expected %d, got %d", i, i, out[i])
		}
	}

	d.Write(ramp(53, 1))
	d.Read(out)
	for i := 0; i < 4; i++ {
		if out[i] != int16(50+i) {
			t.Errorf("after flip sample %d: expected %d, got %d", i, 50+i, out[i])
		}
	}
}

func TestDoubleBufferShortReadBuffer(t *testing.T) {
	d := NewDoubleBuffer(4)
	d.Write(ramp(0, 4))

	out := make([]int16, 2)
	if n := d.Read(out); n != 2 {
		t.Errorf("expected copy clamped to 2, got %d", n)
	}
}

func TestDoubleBufferZeroSize(t *testing.T) {
	d := NewDoubleBuffer(0)
	d.Write(ramp(0, 10))
	if d.Read(make([]int16, 4)) != 0 {
		t.Error("expected zero-size buffer to never report data")
	}
}

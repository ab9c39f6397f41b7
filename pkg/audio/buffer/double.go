// ABOUTME: Lock-free front/back sample buffer for visualization
// ABOUTME: Written by the audio callback, read by any goroutine without blocking either side
package buffer

import "sync/atomic"

// DoubleBuffer hands completed batches of samples from the audio callback to
// readers. The writer fills the back array; when it is full the roles flip
// and the completed array becomes the front that readers copy.
//
// Thread assignment:
//   - Write: audio callback only
//   - Read, Len, Flips, HasData: any goroutine
type DoubleBuffer struct {
	a, b    []int16
	flipped atomic.Bool // false: a is front, b is back
	hasData atomic.Bool
	flips   atomic.Uint64
	fill    int // writer-owned fill level of the back array
}

// NewDoubleBuffer creates a double buffer holding size samples per side
func NewDoubleBuffer(size int) *DoubleBuffer {
	return &DoubleBuffer{
		a: make([]int16, size),
		b: make([]int16, size),
	}
}

func (d *DoubleBuffer) back() []int16 {
	if d.flipped.Load() {
		return d.a
	}
	return d.b
}

func (d *DoubleBuffer) front() []int16 {
	if d.flipped.Load() {
		return d.b
	}
	return d.a
}

// Write appends samples to the back array. Every time the back array fills
// up the roles flip, so a chunk larger than the buffer flips more than once
// and only its last completed batch stays visible.
func (d *DoubleBuffer) Write(data []int16) {
	size := len(d.a)
	if size == 0 {
		return
	}

	for len(data) > 0 {
		back := d.back()
		n := copy(back[d.fill:], data)
		d.fill += n
		data = data[n:]

		if d.fill == size {
			d.flipped.Store(!d.flipped.Load())
			d.hasData.Store(true)
			d.flips.Add(1)
			d.fill = 0
		}
	}
}

// Read copies the most recently completed batch into out and returns the
// number of samples copied. It returns 0 until the first batch completes.
func (d *DoubleBuffer) Read(out []int16) int {
	if !d.hasData.Load() {
		return 0
	}
	return copy(out, d.front())
}

// HasData reports whether at least one batch has completed
func (d *DoubleBuffer) HasData() bool {
	return d.hasData.Load()
}

// Len returns the number of samples per side
func (d *DoubleBuffer) Len() int {
	return len(d.a)
}

// Flips returns how many times the roles have flipped
func (d *DoubleBuffer) Flips() uint64 {
	return d.flips.Load()
}

// ABOUTME: Circular int16 sample store used as an audio delay line
// ABOUTME: Exposes wrap-aware spans instead of copies to keep the callback allocation free
package buffer

// RingBuffer is a fixed-capacity circular buffer of samples. It is not safe
// for concurrent use; the stereo widener owns one per stream.
type RingBuffer struct {
	buf      []int16
	readPos  int
	writePos int
	count    int // Number of samples currently in buffer
}

// NewRingBuffer creates a ring buffer with given capacity (in samples)
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity < 0 {
		capacity = 0
	}
	return &RingBuffer{buf: make([]int16, capacity)}
}

// CopyFrom appends data at the write cursor, wrapping at the capacity
// boundary. At most Free() samples are written; the count is returned.
func (rb *RingBuffer) CopyFrom(data []int16) int {
	n := len(data)
	if free := rb.Free(); n > free {
		n = free
	}
	if n == 0 {
		return 0
	}

	first := len(rb.buf) - rb.writePos
	if first >= n {
		copy(rb.buf[rb.writePos:], data[:n])
	} else {
		copy(rb.buf[rb.writePos:], data[:first])
		copy(rb.buf, data[first:n])
	}

	rb.writePos = (rb.writePos + n) % len(rb.buf)
	rb.count += n
	return n
}

// Peek returns up to n of the oldest samples as two contiguous spans: the
// part before the wrap and the part after it. The second span is empty when
// the data does not wrap. The spans alias the ring and are only valid until
// the next CopyFrom.
func (rb *RingBuffer) Peek(n int) (first, second []int16) {
	if n > rb.count {
		n = rb.count
	}
	if n <= 0 {
		return nil, nil
	}

	end := rb.readPos + n
	if end <= len(rb.buf) {
		return rb.buf[rb.readPos:end], nil
	}
	return rb.buf[rb.readPos:], rb.buf[:end-len(rb.buf)]
}

// Advance drops up to n of the oldest samples by moving the read cursor
func (rb *RingBuffer) Advance(n int) {
	if n > rb.count {
		n = rb.count
	}
	if n <= 0 {
		return
	}
	rb.readPos = (rb.readPos + n) % len(rb.buf)
	rb.count -= n
}

// Len returns the number of samples stored
func (rb *RingBuffer) Len() int {
	return rb.count
}

// Cap returns the fixed capacity
func (rb *RingBuffer) Cap() int {
	return len(rb.buf)
}

// Free returns the number of samples that can be written before saturation
func (rb *RingBuffer) Free() int {
	return len(rb.buf) - rb.count
}

// IsSaturated reports whether the buffer is completely filled
func (rb *RingBuffer) IsSaturated() bool {
	return rb.count == len(rb.buf)
}

// Reset empties the buffer without releasing its storage
func (rb *RingBuffer) Reset() {
	rb.readPos = 0
	rb.writePos = 0
	rb.count = 0
}

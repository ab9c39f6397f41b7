// ABOUTME: Growable linear scratch buffer
// ABOUTME: Holds a pristine copy of the chunk being processed
package buffer

// SnapshotBuffer keeps a copy of the most recent chunk. Its storage only
// grows, so steady-state snapshots do not allocate.
type SnapshotBuffer struct {
	buf []int16
	n   int
}

// NewSnapshotBuffer creates a snapshot buffer with an initial capacity
func NewSnapshotBuffer(capacity int) *SnapshotBuffer {
	return &SnapshotBuffer{buf: make([]int16, capacity)}
}

// Snapshot copies data into the buffer and returns the stored view
func (s *SnapshotBuffer) Snapshot(data []int16) []int16 {
	if len(data) > len(s.buf) {
		s.buf = make([]int16, len(data))
	}
	s.n = copy(s.buf, data)
	return s.buf[:s.n]
}

// Samples returns the last snapshot
func (s *SnapshotBuffer) Samples() []int16 {
	return s.buf[:s.n]
}

// Reset forgets the last snapshot
func (s *SnapshotBuffer) Reset() {
	s.n = 0
}

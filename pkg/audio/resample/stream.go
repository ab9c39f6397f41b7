// ABOUTME: Pull-based format converter wrapping a frame source
// ABOUTME: Delivers exactly the requested frames at the target rate and channel count
package resample

// Source fills buf with frames of interleaved samples, or returns false at
// the end of the stream
type Source interface {
	Fill(buf []int16, frames int) bool
}

// BlockFrames is how many input frames Stream pulls from its source at once
const BlockFrames = 1024

// Stream converts a source's rate and channel layout on demand
type Stream struct {
	src         Source
	inChannels  int
	outChannels int
	resampler   *Resampler

	in      []int16 // source block
	mapped  []int16 // block after channel mapping
	out     []int16 // converted block
	pending []int16 // unread tail of out
	ended   bool
}

// NewStream creates a converter from inRate/inCh to outRate/outCh
func NewStream(src Source, inRate, inCh, outRate, outCh int) *Stream {
	r := New(inRate, outRate, outCh)
	return &Stream{
		src:         src,
		inChannels:  inCh,
		outChannels: outCh,
		resampler:   r,
		in:          make([]int16, BlockFrames*inCh),
		mapped:      make([]int16, BlockFrames*outCh),
		out:         make([]int16, r.OutputSamplesNeeded(BlockFrames*outCh)),
	}
}

// Fill writes exactly frames converted frames into buf. The last partial
// chunk is padded with silence; the call after it returns false.
func (s *Stream) Fill(buf []int16, frames int) bool {
	want := frames * s.outChannels
	if want > len(buf) {
		want = len(buf) - len(buf)%s.outChannels
	}
	if s.ended && len(s.pending) == 0 {
		return false
	}

	written := 0
	for written < want {
		if len(s.pending) == 0 {
			if s.ended || !s.pull() {
				break
			}
			continue
		}
		n := copy(buf[written:want], s.pending)
		s.pending = s.pending[n:]
		written += n
	}

	if written == 0 {
		return false
	}
	for i := written; i < want; i++ {
		buf[i] = 0
	}
	return true
}

// pull converts the next source block into pending
func (s *Stream) pull() bool {
	if !s.src.Fill(s.in, BlockFrames) {
		s.ended = true
		return false
	}
	frames := MapChannels(s.mapped, s.in, s.inChannels, s.outChannels)
	n := s.resampler.Resample(s.mapped[:frames*s.outChannels], s.out)
	s.pending = s.out[:n]
	return true
}

// Reset drops buffered audio so the stream follows a repositioned source
func (s *Stream) Reset() {
	s.resampler.Reset()
	s.pending = nil
	s.ended = false
}

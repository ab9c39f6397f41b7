// ABOUTME: Tests for the pre-renderer
// ABOUTME: Tests buffer sizing, progress, filling, seeking and export
package prerender

import (
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
)

// gatedSource blocks every Fill until the gate is closed, then plays a ramp
type gatedSource struct {
	gate  chan struct{}
	next  int16
	calls atomic.Int32
}

func newGatedSource() *gatedSource {
	return &gatedSource{gate: make(chan struct{})}
}

func (s *gatedSource) Fill(buf []int16, frames int) bool {
	<-s.gate
	s.calls.Add(1)
	for i := range buf[:frames*2] {
		buf[i] = s.next
		s.next++
	}
	return true
}

// shortSource renders a fixed number of chunks, then fails
type shortSource struct {
	chunks int
	err    error
}

func (s *shortSource) Fill(buf []int16, frames int) bool {
	if s.chunks == 0 {
		return false
	}
	s.chunks--
	for i := range buf[:frames*2] {
		buf[i] = 7
	}
	return true
}

func (s *shortSource) Err() error { return s.err }

// failingTone plays a few chunks of a tone, then fails with failure
type failingTone struct {
	*decode.Tone
	fills   int
	failure error
	err     error
}

func (f *failingTone) Fill(buf []int16, frames int) bool {
	if f.fills == 0 {
		f.err = f.failure
		return false
	}
	f.fills--
	return f.Tone.Fill(buf, frames)
}

func (f *failingTone) Err() error { return f.err }

// slowSource never ends and takes a moment per chunk
type slowSource struct{}

func (slowSource) Fill(buf []int16, frames int) bool {
	time.Sleep(time.Millisecond)
	clear(buf[:frames*2])
	return true
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBufferBytes(t *testing.T) {
	tests := []struct {
		name       string
		durationMs int64
		rate       int
		channels   int
		want       int64
	}{
		{"one second stereo", 1000, 44100, 2, 176404},
		{"one second mono", 1000, 44100, 1, 88202},
		{"rounds up", 1, 44100, 2, 46 * 4},
		{"48k", 500, 48000, 2, 24001 * 4},
		{"zero duration", 0, 44100, 2, 0},
		{"zero rate", 1000, 0, 2, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BufferBytes(tt.durationMs, tt.rate, tt.channels); got != tt.want {
				t.Errorf("expected %d bytes, got %d", tt.want, got)
			}
		})
	}
}

func TestRenderInvalid(t *testing.T) {
	p := New(nil)
	if err := p.Render(nil, 44100, 2, 1000); !errors.Is(err, ErrInvalidRender) {
		t.Errorf("expected ErrInvalidRender for nil source, got %v", err)
	}
	if err := p.Render(slowSource{}, 44100, 2, 0); !errors.Is(err, ErrInvalidRender) {
		t.Errorf("expected ErrInvalidRender for zero duration, got %v", err)
	}
}

func TestRenderAllocatesExactSize(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	tone := decode.NewTone(decode.Config{SampleRate: 44100, DefaultSongLengthMs: 1000})
	if err := p.Render(tone, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if p.Bytes() != 176404 {
		t.Errorf("expected 176404 bytes, got %d", p.Bytes())
	}

	waitFor(t, func() bool { return !p.Rendering() })
	if !p.Done() {
		t.Fatal("expected render to complete")
	}
	if p.RenderedBytes() != p.Bytes() {
		t.Errorf("expected all %d bytes rendered, got %d", p.Bytes(), p.RenderedBytes())
	}
	if p.ProgressFactor() != 1 {
		t.Errorf("expected progress 1, got %f", p.ProgressFactor())
	}
	if p.DurationMs() != 1000 {
		t.Errorf("expected duration 1000, got %d", p.DurationMs())
	}
}

func TestProgressStartsAtZero(t *testing.T) {
	p := New(nil)
	src := newGatedSource()

	if err := p.Render(src, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if p.ProgressFactor() != 0 {
		t.Errorf("expected progress 0 before any chunk, got %f", p.ProgressFactor())
	}
	if !p.Primed() {
		t.Error("expected pre-render to be primed while rendering")
	}

	close(src.gate)
	waitFor(t, p.Done)
	if p.ProgressFactor() != 1 {
		t.Errorf("expected progress 1, got %f", p.ProgressFactor())
	}
	p.Stop()
}

func TestProgressMonotonic(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	tone := decode.NewTone(decode.Config{SampleRate: 44100, DefaultSongLengthMs: 20_000})
	if err := p.Render(tone, 44100, 2, 20_000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	last := 0.0
	for p.Rendering() {
		progress := p.ProgressFactor()
		if progress < last {
			t.Fatalf("progress went backwards: %f -> %f", last, progress)
		}
		last = progress
	}
	if p.ProgressFactor() != 1 {
		t.Errorf("expected progress 1 after render, got %f", p.ProgressFactor())
	}
}

func TestFillZeroFillsPastRendered(t *testing.T) {
	p := New(nil)
	src := newGatedSource()
	if err := p.Render(src, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	buf := make([]int16, 256)
	for i := range buf {
		buf[i] = 99
	}
	if !p.Fill(buf, 128) {
		t.Fatal("expected Fill to succeed while rendering")
	}
	for i, s := range buf {
		if s != 0 {
			t.Fatalf("sample %d: expected silence, got %d", i, s)
		}
	}
	if p.PositionMs() != 2 {
		t.Errorf("expected cursor at 2 ms, got %d", p.PositionMs())
	}

	close(src.gate)
	waitFor(t, p.Done)

	p.Rewind()
	if !p.Fill(buf, 128) {
		t.Fatal("expected Fill to succeed after render")
	}
	for i, s := range buf {
		if s != int16(i) {
			t.Fatalf("sample %d: expected %d, got %d", i, i, s)
		}
	}
	p.Stop()
}

func TestFillEndsAtBufferEnd(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	tone := decode.NewTone(decode.Config{SampleRate: 8000, DefaultSongLengthMs: 100})
	if err := p.Render(tone, 8000, 2, 100); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, p.Done)

	buf := make([]int16, 2*300)
	fills := 0
	for p.Fill(buf, 300) {
		fills++
		if fills > 10 {
			t.Fatal("expected Fill to report the end")
		}
	}
	// 801 frames fit in three 300-frame chunks
	if fills != 3 {
		t.Errorf("expected 3 fills, got %d", fills)
	}
}

func TestSeekRendered(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	tone := decode.NewTone(decode.Config{SampleRate: 44100, DefaultSongLengthMs: 2000})
	if err := p.Render(tone, 44100, 2, 2000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, p.Done)

	var reports []int64
	ok := p.Seek(1500, func(ms int64, done bool) bool {
		reports = append(reports, ms)
		if !done {
			t.Error("expected a single done report")
		}
		return false
	})
	if !ok {
		t.Fatal("expected seek to succeed")
	}
	if len(reports) != 1 || reports[0] != 1500 {
		t.Errorf("expected one report at 1500, got %v", reports)
	}
	if p.PositionMs() != 1500 {
		t.Errorf("expected cursor at 1500 ms, got %d", p.PositionMs())
	}

	if !p.Seek(10_000, nil) {
		t.Fatal("expected seek past the end to clamp")
	}
	if p.PositionMs() != 2000 {
		t.Errorf("expected cursor at the last frame, got %d ms", p.PositionMs())
	}
}

func TestSeekWaitsForRender(t *testing.T) {
	p := New(nil)
	src := newGatedSource()
	if err := p.Render(src, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	polls := atomic.Int32{}
	result := make(chan bool, 1)
	go func() {
		result <- p.Seek(900, func(ms int64, done bool) bool {
			if !done {
				polls.Add(1)
			}
			return false
		})
	}()

	waitFor(t, func() bool { return polls.Load() >= 2 })
	close(src.gate)

	select {
	case ok := <-result:
		if !ok {
			t.Fatal("expected seek to succeed once rendered")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("seek did not finish")
	}
	if p.PositionMs() != 900 {
		t.Errorf("expected cursor at 900 ms, got %d", p.PositionMs())
	}
	p.Stop()
}

func TestSeekAbortedByCallback(t *testing.T) {
	p := New(nil)
	src := newGatedSource()
	if err := p.Render(src, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if p.Seek(500, func(int64, bool) bool { return true }) {
		t.Error("expected aborted seek to fail")
	}
	if p.PositionMs() != 0 {
		t.Errorf("expected cursor unchanged, got %d", p.PositionMs())
	}

	close(src.gate)
	p.Stop()
}

func TestRenderEndsShort(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	readErr := errors.New("bad frame")
	if err := p.Render(&shortSource{chunks: 1, err: readErr}, 44100, 2, 1000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, func() bool { return !p.Rendering() })

	if p.Done() {
		t.Error("expected short render not to be done")
	}
	if p.RenderedBytes() != ChunkFrames*4 {
		t.Errorf("expected one chunk rendered, got %d bytes", p.RenderedBytes())
	}
	if !errors.Is(p.Err(), readErr) {
		t.Errorf("expected source error, got %v", p.Err())
	}
	if p.Seek(900, nil) {
		t.Error("expected seek past a short render to fail")
	}
	if !p.Seek(50, nil) {
		t.Error("expected seek inside the rendered part to succeed")
	}
}

func TestFillEndsAtShortRender(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	if err := p.Render(&shortSource{chunks: 1}, 44100, 2, 10_000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, func() bool { return !p.Rendering() })

	buf := make([]int16, 1000*2)
	fills := 0
	for p.Fill(buf, 1000) {
		fills++
		if fills > 100 {
			t.Fatal("expected Fill to report the end of the short render")
		}
	}
	// One chunk of 4096 frames needs five fills of 1000 frames
	if fills != 5 {
		t.Errorf("expected 5 fills, got %d", fills)
	}
	if p.PositionFrames() != 5000 {
		t.Errorf("expected cursor at 5000 frames, got %d", p.PositionFrames())
	}
}

func TestPrerenderSeesResampledDecodeError(t *testing.T) {
	readErr := errors.New("corrupt frame")
	for _, rate := range []int{8000, 16000} {
		p := New(nil)
		tune := decode.Conform(&failingTone{Tone: decode.NewTone(decode.Config{SampleRate: 8000}), fills: 2, failure: readErr}, rate, 2)
		if err := p.Render(tune, rate, 2, 5000); err != nil {
			t.Fatalf("rate %d: Render failed: %v", rate, err)
		}
		waitFor(t, func() bool { return !p.Rendering() })

		if !errors.Is(p.Err(), readErr) {
			t.Errorf("rate %d: expected decode error, got %v", rate, p.Err())
		}
		p.Stop()
	}
}

func TestStopJoinsAndIsIdempotent(t *testing.T) {
	p := New(nil)
	p.Stop()

	if err := p.Render(slowSource{}, 44100, 2, 60_000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	p.Stop()
	if p.Rendering() {
		t.Error("expected worker to be joined")
	}
	if p.Bytes() != 0 || p.ProgressFactor() != 0 {
		t.Error("expected buffer to be freed")
	}
	p.Stop()

	buf := make([]int16, 8)
	if p.Fill(buf, 4) {
		t.Error("expected Fill to fail without a buffer")
	}
}

func TestRenderRestartsRunningRender(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	if err := p.Render(slowSource{}, 44100, 2, 60_000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	tone := decode.NewTone(decode.Config{SampleRate: 22050, DefaultSongLengthMs: 500})
	if err := p.Render(tone, 22050, 2, 500); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if p.Bytes() != BufferBytes(500, 22050, 2) {
		t.Errorf("expected new buffer size, got %d", p.Bytes())
	}
	waitFor(t, p.Done)
}

func TestExport(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	if err := p.Export(nil); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("expected ErrNoBuffer, got %v", err)
	}

	tone := decode.NewTone(decode.Config{SampleRate: 8000, DefaultSongLengthMs: 250})
	if err := p.Render(tone, 8000, 2, 250); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, p.Done)

	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if err := p.Export(f); err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	f.Close()

	rf, err := os.Open(path)
	if err != nil {
		t.Fatalf("failed to open export: %v", err)
	}
	defer rf.Close()

	dec := wav.NewDecoder(rf)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("failed to decode export: %v", err)
	}
	if dec.SampleRate != 8000 || dec.NumChans != 2 || dec.BitDepth != 16 {
		t.Errorf("unexpected format: %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	if frames := len(buf.Data) / 2; frames != 2001 {
		t.Errorf("expected 2001 frames, got %d", frames)
	}
}

func TestSeekRoundsUp(t *testing.T) {
	p := New(nil)
	defer p.Stop()

	tone := decode.NewTone(decode.Config{SampleRate: 44100, DefaultSongLengthMs: 2000})
	if err := p.Render(tone, 44100, 2, 2000); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	waitFor(t, p.Done)

	if !p.Seek(1001, nil) {
		t.Fatal("expected seek to succeed")
	}
	if p.PositionMs() < 1001 {
		t.Errorf("expected cursor at or after 1001 ms, got %d", p.PositionMs())
	}

	p.SetPositionFrames(441)
	if p.PositionFrames() != 441 || p.PositionMs() != 10 {
		t.Errorf("expected frame 441 (10 ms), got %d (%d ms)", p.PositionFrames(), p.PositionMs())
	}
	p.SetPositionFrames(-5)
	if p.PositionFrames() != 0 {
		t.Errorf("expected clamp to 0, got %d", p.PositionFrames())
	}
}

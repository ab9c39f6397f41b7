// ABOUTME: Background pre-render of a tune into an in-memory PCM buffer
// ABOUTME: Acts as a decode.Source with instant seeking over the rendered part
package prerender

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/encode"
)

const (
	// ChunkFrames is the number of frames the worker renders per step
	ChunkFrames = 4096
	// PollInterval is how often Seek re-checks render progress
	PollInterval = 10 * time.Millisecond
)

var (
	// ErrInvalidRender is returned for renders with no duration or format
	ErrInvalidRender = errors.New("invalid pre-render parameters")
	// ErrNoBuffer is returned when nothing has been rendered
	ErrNoBuffer = errors.New("no pre-rendered audio")
)

// SeekStatusCallback receives seek progress. Returning true aborts the seek.
// The return value is ignored when done is true.
type SeekStatusCallback func(currentTimeMs int64, done bool) bool

// BufferBytes returns the size of a pre-render buffer. One guard frame is
// added so a tune whose length rounds up still fits.
func BufferBytes(durationMs int64, sampleRate, channels int) int64 {
	if durationMs <= 0 || sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := audio.FramesFor(durationMs, sampleRate) + 1
	return frames * int64(channels) * audio.SampleWidth
}

// PreRenderer owns at most one render worker and its buffer.
//
// Render, Stop and Export run on the owning goroutine. Fill runs on the
// audio thread and Seek on a seek worker; neither may overlap Render or
// Stop, which replace the buffer. The stream must be stopped or pointed at
// another source first.
type PreRenderer struct {
	logger *slog.Logger

	format     audio.Format
	durationMs int64
	buf        []byte

	rendered  atomic.Int64
	cursor    atomic.Int64
	abort     atomic.Bool
	rendering atomic.Bool
	complete  atomic.Bool

	done chan struct{}

	errMu sync.Mutex
	err   error
}

// New creates an idle pre-renderer
func New(logger *slog.Logger) *PreRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PreRenderer{logger: logger}
}

// Render aborts any running render and starts rendering src from its
// current position into a fresh buffer covering durationMs.
func (p *PreRenderer) Render(src decode.Source, sampleRate, channels int, durationMs int64) error {
	size := BufferBytes(durationMs, sampleRate, channels)
	if src == nil || size == 0 {
		return fmt.Errorf("%w: rate=%d channels=%d duration=%dms", ErrInvalidRender, sampleRate, channels, durationMs)
	}

	p.Stop()

	p.format = audio.Format{SampleRate: sampleRate, Channels: channels}
	p.durationMs = durationMs
	p.buf = make([]byte, size)
	p.rendered.Store(0)
	p.cursor.Store(0)
	p.complete.Store(false)
	p.abort.Store(false)
	p.setErr(nil)

	p.done = make(chan struct{})
	p.rendering.Store(true)
	go p.run(src, p.buf, p.format, p.done)

	p.logger.Debug("pre-render started",
		"duration_ms", durationMs,
		"sample_rate", sampleRate,
		"channels", channels,
		"bytes", size)
	return nil
}

func (p *PreRenderer) run(src decode.Source, buf []byte, format audio.Format, done chan struct{}) {
	defer close(done)
	defer p.rendering.Store(false)

	frameBytes := int64(format.FrameBytes())
	total := int64(len(buf))
	scratch := make([]int16, ChunkFrames*format.Channels)
	start := time.Now()

	for !p.abort.Load() {
		offset := p.rendered.Load()
		remaining := total - offset
		if remaining <= 0 {
			p.complete.Store(true)
			p.logger.Debug("pre-render complete", "bytes", total, "elapsed", time.Since(start))
			return
		}

		frames := int(min(remaining, ChunkFrames*frameBytes) / frameBytes)
		samples := scratch[:frames*format.Channels]
		if !src.Fill(samples, frames) {
			if e, ok := src.(interface{ Err() error }); ok && e.Err() != nil {
				p.setErr(fmt.Errorf("pre-render stopped at %d ms: %w",
					audio.MillisFor(offset/frameBytes, format.SampleRate), e.Err()))
			}
			p.logger.Debug("pre-render source ended early", "rendered", offset, "bytes", total)
			return
		}

		audio.PutSamples(buf[offset:], samples)
		p.rendered.Store(offset + int64(frames)*frameBytes)
	}
	p.logger.Debug("pre-render aborted", "rendered", p.rendered.Load(), "bytes", total)
}

// Stop aborts and joins the worker, then frees the buffer. It is a no-op
// when nothing is rendered.
func (p *PreRenderer) Stop() {
	if p.done != nil {
		p.abort.Store(true)
		<-p.done
		p.done = nil
	}
	p.buf = nil
	p.rendered.Store(0)
	p.cursor.Store(0)
	p.complete.Store(false)
}

// Fill copies rendered audio from the cursor. Parts still being rendered
// read as silence. It returns false once the cursor has reached the end of
// the buffer, or the end of a render that stopped short.
func (p *PreRenderer) Fill(buf []int16, frames int) bool {
	total := int64(len(p.buf))
	cursor := p.cursor.Load()
	if total == 0 || cursor >= total {
		return false
	}
	// rendering is cleared after the last rendered update
	if !p.rendering.Load() && cursor >= p.rendered.Load() {
		return false
	}

	want := int64(frames*p.format.Channels) * audio.SampleWidth
	out := buf[:frames*p.format.Channels]

	available := min(p.rendered.Load(), total) - cursor
	n := 0
	if available > 0 {
		n = audio.ReadSamples(out, p.buf[cursor:cursor+min(available, want)])
	}
	clear(out[n:])

	p.cursor.Store(min(cursor+want, total))
	return true
}

// Seek moves the cursor to targetMs. When the target is not rendered yet
// it polls every PollInterval, reporting the rendered time through cb,
// until the target is available. It returns false when cb aborts or the
// render ends before reaching the target.
func (p *PreRenderer) Seek(targetMs int64, cb SeekStatusCallback) bool {
	total := int64(len(p.buf))
	if total == 0 {
		return false
	}

	frameBytes := int64(p.format.FrameBytes())
	target := min(audio.FramesFor(targetMs, p.format.SampleRate)*frameBytes, total-frameBytes)

	for {
		rendered := p.rendered.Load()
		if rendered > target {
			p.cursor.Store(target)
			if cb != nil {
				cb(max(0, targetMs), true)
			}
			return true
		}
		if !p.rendering.Load() && p.rendered.Load() <= target {
			return false
		}

		if cb != nil && cb(p.timeAt(rendered), false) {
			return false
		}
		time.Sleep(PollInterval)
	}
}

// Rewind moves the cursor back to the start
func (p *PreRenderer) Rewind() {
	p.cursor.Store(0)
}

// SetPositionFrames moves the cursor without waiting for the render,
// clamped to the buffer
func (p *PreRenderer) SetPositionFrames(frame int64) {
	frameBytes := int64(p.format.FrameBytes())
	total := int64(len(p.buf))
	if total == 0 {
		return
	}
	p.cursor.Store(max(0, min(frame*frameBytes, total-frameBytes)))
}

// PositionFrames returns the cursor position in frames
func (p *PreRenderer) PositionFrames() int64 {
	frameBytes := int64(p.format.FrameBytes())
	if frameBytes == 0 {
		return 0
	}
	return p.cursor.Load() / frameBytes
}

func (p *PreRenderer) timeAt(offset int64) int64 {
	frameBytes := int64(p.format.FrameBytes())
	if frameBytes == 0 {
		return 0
	}
	return audio.MillisFor(offset/frameBytes, p.format.SampleRate)
}

// ProgressFactor returns the rendered fraction in [0,1]
func (p *PreRenderer) ProgressFactor() float64 {
	total := len(p.buf)
	if total == 0 {
		return 0
	}
	return max(0, min(1, float64(p.rendered.Load())/float64(total)))
}

// Rendering reports whether the worker is running
func (p *PreRenderer) Rendering() bool {
	return p.rendering.Load()
}

// Done reports whether the whole buffer has been rendered
func (p *PreRenderer) Done() bool {
	return p.complete.Load()
}

// Primed reports whether a buffer exists that playback can switch to
func (p *PreRenderer) Primed() bool {
	return len(p.buf) > 0 && (p.rendering.Load() || p.rendered.Load() > 0)
}

// Err returns the source error that ended the render early, if any
func (p *PreRenderer) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	return p.err
}

func (p *PreRenderer) setErr(err error) {
	p.errMu.Lock()
	p.err = err
	p.errMu.Unlock()
}

// PositionMs returns the cursor position
func (p *PreRenderer) PositionMs() int64 {
	return p.timeAt(p.cursor.Load())
}

// RenderedMs returns how much audio has been rendered
func (p *PreRenderer) RenderedMs() int64 {
	return p.timeAt(p.rendered.Load())
}

// DurationMs returns the duration the buffer was sized for
func (p *PreRenderer) DurationMs() int64 {
	if len(p.buf) == 0 {
		return 0
	}
	return p.durationMs
}

// Format returns the format of the rendered audio
func (p *PreRenderer) Format() audio.Format {
	return p.format
}

// Bytes returns the buffer size
func (p *PreRenderer) Bytes() int64 {
	return int64(len(p.buf))
}

// RenderedBytes returns how many bytes have been rendered
func (p *PreRenderer) RenderedBytes() int64 {
	return p.rendered.Load()
}

// Export writes the rendered part of the buffer to w as a 16-bit WAV file
func (p *PreRenderer) Export(w io.WriteSeeker) error {
	if len(p.buf) == 0 {
		return ErrNoBuffer
	}

	enc, err := encode.NewWAV(w, p.format)
	if err != nil {
		return err
	}
	rendered := p.rendered.Load()
	if err := enc.WritePCM(p.buf[:rendered], 0); err != nil {
		enc.Close()
		return fmt.Errorf("failed to export pre-render: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	p.logger.Info("pre-render exported", "frames", enc.Frames(), "duration_ms", p.timeAt(rendered))
	return nil
}

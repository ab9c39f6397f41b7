// ABOUTME: Haas-effect stereo widener operating on interleaved 16-bit stereo
// ABOUTME: Mixes delayed history into the image using a ring buffer delay line
package effect

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/buffer"
)

// ErrInvalidConfig is returned when a widener cannot be built from its config
var ErrInvalidConfig = errors.New("invalid widener config")

// Default widener parameters
const (
	DefaultDelayMs      = 12
	DefaultSideVolume   = 0.8
	DefaultCenterVolume = 0.5
	DefaultFarVolume    = 0.35
	// DefaultBufferFrames sizes the input snapshot when no buffer size is set
	DefaultBufferFrames = 4096
)

// WidenerConfig describes a stereo widener
type WidenerConfig struct {
	SampleRate   int
	Channels     int
	DelayMs      int
	SideVolume   float32
	CenterVolume float32
	FarVolume    float32
	// BufferFrames is the largest chunk Apply is expected to see. The
	// input snapshot is allocated up front for it.
	BufferFrames int
}

// DefaultWidenerConfig returns the stock widener settings for a sample rate
func DefaultWidenerConfig(sampleRate int) WidenerConfig {
	return WidenerConfig{
		SampleRate:   sampleRate,
		Channels:     2,
		DelayMs:      DefaultDelayMs,
		SideVolume:   DefaultSideVolume,
		CenterVolume: DefaultCenterVolume,
		FarVolume:    DefaultFarVolume,
		BufferFrames: DefaultBufferFrames,
	}
}

// Validate checks the config
func (c WidenerConfig) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	}
	if c.Channels != 2 {
		return fmt.Errorf("%w: widening needs stereo, got %d channels", ErrInvalidConfig, c.Channels)
	}
	if c.DelayMs <= 0 {
		return fmt.Errorf("%w: delay must be positive, got %dms", ErrInvalidConfig, c.DelayMs)
	}
	if c.BufferFrames < 0 {
		return fmt.Errorf("%w: buffer frames must not be negative, got %d", ErrInvalidConfig, c.BufferFrames)
	}
	for _, v := range []float32{c.SideVolume, c.CenterVolume, c.FarVolume} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%w: volumes must be within [0,1]", ErrInvalidConfig)
		}
	}
	return nil
}

// StereoWidener spreads a stereo signal by panning the dry signal left and
// feeding delayed copies into the center and the right channel. History
// spanning two delay lengths is kept in a ring buffer so the effect is
// continuous across chunk boundaries.
//
// Apply and Reset must be called from one goroutine at a time (the audio
// callback while a stream runs).
type StereoWidener struct {
	cfg         WidenerConfig
	delayFrames int

	history  *buffer.RingBuffer
	snapshot *buffer.SnapshotBuffer
}

// NewStereoWidener creates a widener for the given config
func NewStereoWidener(cfg WidenerConfig) (*StereoWidener, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	delayFrames := int(audio.FramesFor(int64(cfg.DelayMs), cfg.SampleRate))
	if delayFrames < 1 {
		delayFrames = 1
	}

	bufferFrames := cfg.BufferFrames
	if bufferFrames == 0 {
		bufferFrames = DefaultBufferFrames
	}

	return &StereoWidener{
		cfg:         cfg,
		delayFrames: delayFrames,
		history:     buffer.NewRingBuffer(2 * delayFrames * cfg.Channels),
		snapshot:    buffer.NewSnapshotBuffer(bufferFrames * cfg.Channels),
	}, nil
}

// Config returns the config the widener was built with
func (w *StereoWidener) Config() WidenerConfig {
	return w.cfg
}

// DelayFrames returns the length of one delay step in frames
func (w *StereoWidener) DelayFrames() int {
	return w.delayFrames
}

// Apply widens frames of interleaved stereo in buf in place
func (w *StereoWidener) Apply(buf []int16, frames int) {
	ch := w.cfg.Channels
	if frames*ch > len(buf) {
		frames = len(buf) / ch
	}
	if frames <= 0 {
		return
	}

	dry := w.snapshot.Snapshot(buf[:frames*ch])
	first, second := w.history.Peek(w.history.Len())
	held := w.history.Len() / ch
	d := w.delayFrames

	// sample returns channel c of frame idx in the virtual timeline made of
	// the ring contents followed by the current chunk.
	sample := func(idx, c int) float32 {
		if idx >= held {
			return float32(dry[(idx-held)*ch+c])
		}
		pos := idx*ch + c
		if pos < len(first) {
			return float32(first[pos])
		}
		return float32(second[pos-len(first)])
	}

	for i := 0; i < frames; i++ {
		left := float32(dry[i*ch]) * w.cfg.SideVolume
		var right float32

		if near := held + i - d; near >= 0 {
			left += sample(near, 0) * w.cfg.CenterVolume
			right += sample(near, 1) * w.cfg.CenterVolume
		}
		if far := held + i - 2*d; far >= 0 {
			right += sample(far, 1) * w.cfg.FarVolume
		}

		buf[i*ch] = audio.ClampFloat16(left)
		buf[i*ch+1] = audio.ClampFloat16(right)
	}

	w.remember(dry, frames)
}

// remember keeps the newest two delay lengths of pristine input in the ring
func (w *StereoWidener) remember(dry []int16, frames int) {
	ch := w.cfg.Channels
	keep := 2 * w.delayFrames
	held := w.history.Len() / ch

	if frames >= keep {
		w.history.Reset()
		w.history.CopyFrom(dry[(frames-keep)*ch:])
		return
	}

	if overflow := held + frames - keep; overflow > 0 {
		w.history.Advance(overflow * ch)
	}
	w.history.CopyFrom(dry)
}

// Warm reports whether two delay lengths of history have been collected
func (w *StereoWidener) Warm() bool {
	return w.history.IsSaturated()
}

// Reset drops all history so the next chunk starts a fresh warm-up
func (w *StereoWidener) Reset() {
	w.history.Reset()
	w.snapshot.Reset()
}

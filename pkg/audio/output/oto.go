// ABOUTME: Oto-based audio backend
// ABOUTME: Feeds a pull-mode oto player from the sink's render function
package output

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

// oto allows a single context per process, so it is shared by every
// backend instance and can never change format once created
var (
	otoMu       sync.Mutex
	otoCtx      *oto.Context
	otoRate     int
	otoChannels int
)

func sharedOtoContext(cfg StreamConfig) (*oto.Context, error) {
	otoMu.Lock()
	defer otoMu.Unlock()

	if otoCtx != nil {
		if otoRate != cfg.SampleRate || otoChannels != cfg.Channels {
			return nil, fmt.Errorf("oto is already running at %dHz %dch and cannot switch to %dHz %dch",
				otoRate, otoChannels, cfg.SampleRate, cfg.Channels)
		}
		return otoCtx, nil
	}

	op := &oto.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       oto.FormatSignedInt16LE,
	}
	if cfg.LowLatency {
		op.BufferSize = time.Duration(cfg.BufferFrames) * time.Second / time.Duration(cfg.SampleRate)
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to create oto context: %w", err)
	}
	<-readyChan

	otoCtx = ctx
	otoRate = cfg.SampleRate
	otoChannels = cfg.Channels
	return ctx, nil
}

// Oto backend implementation using oto library
type Oto struct {
	cfg    StreamConfig
	ctx    *oto.Context
	reader *otoReader
	player *oto.Player
}

// NewOto creates a new Oto backend
func NewOto() *Oto {
	return &Oto{}
}

func (o *Oto) Name() string { return "oto" }

// Open initializes the shared context and the pull reader
func (o *Oto) Open(cfg StreamConfig, render RenderFunc) error {
	ctx, err := sharedOtoContext(cfg)
	if err != nil {
		return err
	}
	o.cfg = cfg
	o.ctx = ctx
	o.reader = &otoReader{render: render, channels: cfg.Channels}
	return nil
}

// Start creates a fresh player so no stale audio from before a stop is heard
func (o *Oto) Start() error {
	if o.reader == nil {
		return ErrNotOpen
	}
	if o.player != nil {
		return nil
	}
	if err := o.ctx.Resume(); err != nil {
		return fmt.Errorf("failed to resume oto context: %w", err)
	}

	o.reader.done.Store(false)
	o.player = o.ctx.NewPlayer(o.reader)
	o.player.SetBufferSize(o.cfg.BufferFrames * o.cfg.Channels * audio.SampleWidth)
	o.player.Play()
	return nil
}

func (o *Oto) Stop() error {
	if o.player == nil {
		return nil
	}
	o.player.Pause()
	err := o.player.Close()
	o.player = nil
	return err
}

// Close stops playback. The shared context stays alive for the next stream.
func (o *Oto) Close() error {
	err := o.Stop()
	o.reader = nil
	return err
}

// otoReader adapts a RenderFunc to the io.Reader oto pulls from
type otoReader struct {
	render   RenderFunc
	channels int
	samples  []int16
	done     atomic.Bool
}

func (r *otoReader) Read(b []byte) (int, error) {
	if r.done.Load() {
		return 0, io.EOF
	}

	frameBytes := r.channels * audio.SampleWidth
	n := len(b) / frameBytes * frameBytes
	if n == 0 {
		return 0, nil
	}

	count := n / audio.SampleWidth
	if cap(r.samples) < count {
		r.samples = make([]int16, count)
	}
	samples := r.samples[:count]

	if !r.render(samples) {
		r.done.Store(true)
	}
	audio.PutSamples(b, samples)
	return n, nil
}

// ABOUTME: Beep speaker audio backend
// ABOUTME: Streams stereo audio through gopxl/beep's shared speaker
package output

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// The beep speaker is a process-wide singleton
var (
	speakerMu   sync.Mutex
	speakerRate beep.SampleRate
)

func initSpeaker(cfg StreamConfig) error {
	speakerMu.Lock()
	defer speakerMu.Unlock()

	rate := beep.SampleRate(cfg.SampleRate)
	if speakerRate != 0 {
		if speakerRate != rate {
			return fmt.Errorf("speaker is already running at %dHz and cannot switch to %dHz", speakerRate, rate)
		}
		return nil
	}

	bufferSize := rate.N(100 * time.Millisecond)
	if cfg.LowLatency {
		bufferSize = cfg.BufferFrames
	}
	if err := speaker.Init(rate, bufferSize); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	speakerRate = rate
	return nil
}

// Beep backend implementation using the beep speaker
type Beep struct {
	render   RenderFunc
	samples  []int16
	ctrl     *beep.Ctrl
	channels int
	ended    atomic.Bool
}

// NewBeep creates a new Beep backend
func NewBeep() *Beep {
	return &Beep{}
}

func (b *Beep) Name() string { return "beep" }

func (b *Beep) Open(cfg StreamConfig, render RenderFunc) error {
	if cfg.Channels != 2 {
		return fmt.Errorf("beep backend needs stereo, got %d channels", cfg.Channels)
	}
	if err := initSpeaker(cfg); err != nil {
		return err
	}
	b.render = render
	b.channels = cfg.Channels
	b.samples = make([]int16, cfg.BufferFrames*cfg.Channels)
	return nil
}

// stream converts rendered int16 frames to beep's float pairs
func (b *Beep) stream(samples [][2]float64) (int, bool) {
	count := len(samples) * b.channels
	if cap(b.samples) < count {
		b.samples = make([]int16, count)
	}
	buf := b.samples[:count]

	if !b.render(buf) {
		b.ended.Store(true)
		return 0, false
	}
	for i := range samples {
		samples[i][0] = float64(buf[i*2]) / 32768
		samples[i][1] = float64(buf[i*2+1]) / 32768
	}
	return len(samples), true
}

func (b *Beep) Start() error {
	if b.render == nil {
		return ErrNotOpen
	}
	if b.ctrl != nil && !b.ended.Load() {
		return nil
	}
	b.ended.Store(false)
	b.ctrl = &beep.Ctrl{Streamer: beep.StreamerFunc(b.stream)}
	speaker.Play(b.ctrl)
	return nil
}

// Stop removes the streamer. Clear holds the speaker lock, so no stream
// call is in flight afterwards.
func (b *Beep) Stop() error {
	if b.ctrl == nil {
		return nil
	}
	speaker.Clear()
	b.ctrl = nil
	return nil
}

// Close stops playback; the speaker stays initialized for the next stream
func (b *Beep) Close() error {
	err := b.Stop()
	b.render = nil
	return err
}

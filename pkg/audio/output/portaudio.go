//go:build portaudio

// ABOUTME: PortAudio audio backend
// ABOUTME: Cross-platform audio output using PortAudio
package output

import (
	"fmt"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// PortAudio backend implementation
type PortAudio struct {
	stream   *portaudio.Stream
	render   RenderFunc
	running  bool
	stopping atomic.Bool
	pending  pendingStop
}

// NewPortAudio creates a new PortAudio backend
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Name() string { return "portaudio" }

// Open initializes PortAudio
func (p *PortAudio) Open(cfg StreamConfig, render RenderFunc) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}

	p.render = render
	stream, err := portaudio.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.BufferFrames, p.callback)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("failed to open stream: %w", err)
	}

	p.stream = stream
	return nil
}

func (p *PortAudio) callback(out []int16) {
	if p.stopping.Load() {
		clear(out)
		return
	}
	if !p.render(out) {
		// Stopping from inside the callback deadlocks PortAudio
		if p.stopping.CompareAndSwap(false, true) {
			p.pending.start(p.stream.Stop)
		}
	}
}

func (p *PortAudio) Start() error {
	if p.stream == nil {
		return fmt.Errorf("output not opened")
	}
	if pending, _ := p.pending.wait(); pending {
		// The stream stopped itself at the end of the last playback
		p.running = false
	}
	if p.running {
		return nil
	}
	p.stopping.Store(false)
	if err := p.stream.Start(); err != nil {
		return err
	}
	p.running = true
	return nil
}

func (p *PortAudio) Stop() error {
	if p.stream == nil || !p.running {
		return nil
	}
	p.running = false
	if p.stopping.Swap(true) {
		// The callback already asked for a stop
		_, err := p.pending.wait()
		return err
	}
	return p.stream.Stop()
}

// Close releases resources
func (p *PortAudio) Close() error {
	if p.stream != nil {
		if err := p.Stop(); err != nil {
			return err
		}
		if err := p.stream.Close(); err != nil {
			return err
		}
		p.stream = nil
	}
	return portaudio.Terminate()
}

//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"errors"
)

var errPortAudioDisabled = errors.New("PortAudio support not enabled (build with -tags portaudio)")

// PortAudio backend implementation (stub)
type PortAudio struct{}

// NewPortAudio creates a new PortAudio backend
func NewPortAudio() *PortAudio {
	return &PortAudio{}
}

func (p *PortAudio) Name() string { return "portaudio" }

// Open initializes PortAudio
func (p *PortAudio) Open(cfg StreamConfig, render RenderFunc) error {
	return errPortAudioDisabled
}

func (p *PortAudio) Start() error { return errPortAudioDisabled }
func (p *PortAudio) Stop() error  { return nil }
func (p *PortAudio) Close() error { return nil }

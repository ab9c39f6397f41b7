// ABOUTME: Audio stream configuration and validation
// ABOUTME: Defines AudioConfig, its defaults and the per-backend stream settings
package output

import (
	"fmt"
	"slices"
)

// Default stream settings
const (
	DefaultSampleRate   = 44100
	DefaultChannels     = 2
	DefaultBufferFrames = 1024
	DefaultBackend      = "oto"
)

// ConfigError describes an invalid audio configuration field
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("audio config error in field '%s': %s", e.Field, e.Message)
}

// AudioConfig describes the stream the sink opens
type AudioConfig struct {
	SampleRate int     `mapstructure:"sample_rate"`
	Channels   int     `mapstructure:"channels"`
	Device     string  `mapstructure:"device"`
	LowLatency bool    `mapstructure:"low_latency"`
	Volume     float64 `mapstructure:"volume"`
	Backend    string  `mapstructure:"backend"`
	// BufferFrames is the callback quantum in frames
	BufferFrames int `mapstructure:"buffer_frames"`
}

// DefaultAudioConfig returns the stock stream settings
func DefaultAudioConfig() AudioConfig {
	return AudioConfig{
		SampleRate:   DefaultSampleRate,
		Channels:     DefaultChannels,
		Volume:       1.0,
		Backend:      DefaultBackend,
		BufferFrames: DefaultBufferFrames,
	}
}

// Validate checks the configuration
func (c AudioConfig) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 192000 {
		return &ConfigError{Field: "sample_rate", Message: fmt.Sprintf("must be between 8000 and 192000, got %d", c.SampleRate)}
	}
	if c.Channels != 1 && c.Channels != 2 {
		return &ConfigError{Field: "channels", Message: fmt.Sprintf("must be 1 or 2, got %d", c.Channels)}
	}
	if c.Volume < 0 || c.Volume > 1 {
		return &ConfigError{Field: "volume", Message: fmt.Sprintf("must be between 0 and 1, got %g", c.Volume)}
	}
	if c.BufferFrames < 64 || c.BufferFrames > 16384 {
		return &ConfigError{Field: "buffer_frames", Message: fmt.Sprintf("must be between 64 and 16384, got %d", c.BufferFrames)}
	}
	if !slices.Contains(Backends(), c.Backend) {
		return &ConfigError{Field: "backend", Message: fmt.Sprintf("unknown backend %q (available: %v)", c.Backend, Backends())}
	}
	return nil
}

// StreamChanged reports whether switching to other needs the stream reopened.
// Volume is applied on the fly and is not part of the stream.
func (c AudioConfig) StreamChanged(other AudioConfig) bool {
	return c.Backend != other.Backend || c.stream() != other.stream()
}

// StreamConfig is the part of AudioConfig a backend opens a stream with
type StreamConfig struct {
	SampleRate   int
	Channels     int
	Device       string
	LowLatency   bool
	BufferFrames int
}

func (c AudioConfig) stream() StreamConfig {
	return StreamConfig{
		SampleRate:   c.SampleRate,
		Channels:     c.Channels,
		Device:       c.Device,
		LowLatency:   c.LowLatency,
		BufferFrames: c.BufferFrames,
	}
}

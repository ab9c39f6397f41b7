// ABOUTME: Playback configuration
// ABOUTME: Decoder and audio settings, validation and change detection
package playback

import (
	"errors"
	"fmt"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/effect"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
)

// DefaultSongLengthMs is used for tunes that do not report a length
const DefaultSongLengthMs = 180_000

// WideningConfig configures the stereo widener
type WideningConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	DelayMs      int     `mapstructure:"delay_ms"`
	SideVolume   float32 `mapstructure:"side_volume"`
	CenterVolume float32 `mapstructure:"center_volume"`
	FarVolume    float32 `mapstructure:"far_volume"`
}

// DecoderConfig configures how tunes are decoded
type DecoderConfig struct {
	// SampleRate and Channels are what tunes are conformed to. 0 follows the audio config.
	SampleRate          int            `mapstructure:"sample_rate"`
	Channels            int            `mapstructure:"channels"`
	DefaultSongLengthMs int64          `mapstructure:"default_song_length_ms"`
	Widening            WideningConfig `mapstructure:"widening"`
	InstantSeek         bool           `mapstructure:"instant_seek"`
	// Loop replays the tune when it ends
	Loop bool `mapstructure:"loop"`
}

// Config is the complete playback configuration
type Config struct {
	Decoder DecoderConfig      `mapstructure:"decoder"`
	Audio   output.AudioConfig `mapstructure:"audio"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() Config {
	return Config{
		Decoder: DecoderConfig{
			DefaultSongLengthMs: DefaultSongLengthMs,
			Widening: WideningConfig{
				DelayMs:      effect.DefaultDelayMs,
				SideVolume:   effect.DefaultSideVolume,
				CenterVolume: effect.DefaultCenterVolume,
				FarVolume:    effect.DefaultFarVolume,
			},
		},
		Audio: output.DefaultAudioConfig(),
	}
}

// Validate checks the configuration. Decoder and audio formats must agree.
func (c Config) Validate() error {
	if err := c.Audio.Validate(); err != nil {
		var outErr *output.ConfigError
		if errors.As(err, &outErr) {
			return &ConfigError{Field: "audio." + outErr.Field, Message: outErr.Message, Err: err}
		}
		return &ConfigError{Field: "audio", Message: err.Error(), Err: err}
	}

	if c.Decoder.SampleRate != 0 && c.Decoder.SampleRate != c.Audio.SampleRate {
		return &ConfigError{
			Field:   "decoder.sample_rate",
			Message: fmt.Sprintf("decoder rate %d does not match audio rate %d", c.Decoder.SampleRate, c.Audio.SampleRate),
		}
	}
	if c.Decoder.Channels != 0 && c.Decoder.Channels != c.Audio.Channels {
		return &ConfigError{
			Field:   "decoder.channels",
			Message: fmt.Sprintf("decoder channels %d do not match audio channels %d", c.Decoder.Channels, c.Audio.Channels),
		}
	}
	if c.Decoder.DefaultSongLengthMs < 0 {
		return &ConfigError{Field: "decoder.default_song_length_ms", Message: "must not be negative"}
	}

	if c.Decoder.Widening.Enabled {
		if err := c.widenerConfig().Validate(); err != nil {
			return &ConfigError{Field: "decoder.widening", Message: err.Error(), Err: err}
		}
	}
	return nil
}

func (c Config) widenerConfig() effect.WidenerConfig {
	w := c.Decoder.Widening
	return effect.WidenerConfig{
		SampleRate:   c.Audio.SampleRate,
		Channels:     c.Audio.Channels,
		DelayMs:      w.DelayMs,
		SideVolume:   w.SideVolume,
		CenterVolume: w.CenterVolume,
		FarVolume:    w.FarVolume,
		BufferFrames: c.Audio.BufferFrames,
	}
}

func (c Config) decodeConfig() decode.Config {
	return decode.Config{
		SampleRate:          c.Audio.SampleRate,
		DefaultSongLengthMs: c.Decoder.DefaultSongLengthMs,
	}
}

// decoderChanged reports whether switching to other invalidates decoded audio
func (c Config) decoderChanged(other Config) bool {
	return c.Decoder.SampleRate != other.Decoder.SampleRate ||
		c.Decoder.Channels != other.Decoder.Channels ||
		c.Decoder.DefaultSongLengthMs != other.Decoder.DefaultSongLengthMs ||
		c.Audio.SampleRate != other.Audio.SampleRate ||
		c.Audio.Channels != other.Audio.Channels
}

// SwitchResult tells the caller what SwitchConfig did
type SwitchResult int

const (
	// SwitchFailed means the new config was rejected and the previous one is still active
	SwitchFailed SwitchResult = iota
	// AppliedOnTheFly means playback continued uninterrupted
	AppliedOnTheFly
	// AppliedPlaybackStopped means a decoder or stream reset stopped playback
	AppliedPlaybackStopped
)

func (r SwitchResult) String() string {
	switch r {
	case AppliedOnTheFly:
		return "applied"
	case AppliedPlaybackStopped:
		return "applied, playback stopped"
	default:
		return "failed"
	}
}

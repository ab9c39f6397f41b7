// ABOUTME: Wraps a tune so its output matches the negotiated stream format
// ABOUTME: Converts rate and channel layout through the resample package
package decode

import (
	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/resample"
)

// conformedTune converts a tune to another format on the fly
type conformedTune struct {
	Tune
	format audio.Format
	stream *resample.Stream
}

// Conform returns a tune producing sampleRate/channels. Tunes already in
// that format are returned unchanged.
func Conform(t Tune, sampleRate, channels int) Tune {
	native := t.Format()
	if native.SampleRate == sampleRate && native.Channels == channels {
		return t
	}
	if c, ok := t.(*conformedTune); ok {
		return Conform(c.Tune, sampleRate, channels)
	}

	return &conformedTune{
		Tune:   t,
		format: audio.Format{SampleRate: sampleRate, Channels: channels},
		stream: resample.NewStream(t, native.SampleRate, native.Channels, sampleRate, channels),
	}
}

// Native returns the tune a conformed tune wraps, or t itself
func Native(t Tune) Tune {
	if c, ok := t.(*conformedTune); ok {
		return c.Tune
	}
	return t
}

func (c *conformedTune) Fill(buf []int16, frames int) bool {
	return c.stream.Fill(buf, frames)
}

func (c *conformedTune) Format() audio.Format {
	return c.format
}

func (c *conformedTune) SelectSubsong(n int) error {
	if err := c.Tune.SelectSubsong(n); err != nil {
		return err
	}
	c.stream.Reset()
	return nil
}

func (c *conformedTune) Rewind() error {
	if err := c.Tune.Rewind(); err != nil {
		return err
	}
	c.stream.Reset()
	return nil
}

// Err reports the decode error of the wrapped tune, if it keeps one
func (c *conformedTune) Err() error {
	if e, ok := c.Tune.(interface{ Err() error }); ok {
		return e.Err()
	}
	return nil
}

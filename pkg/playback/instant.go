// ABOUTME: Instant seek support
// ABOUTME: Manages the pre-render of the current tune and its lifetime
package playback

import (
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
)

// cloner is implemented by tunes that can produce an independent copy
type cloner interface {
	Clone() decode.Tune
}

// EnableInstantSeek turns pre-rendering of the current and future tunes on
// or off. The pre-renderer becomes the stream's source on the next seek or
// replay. Turning it off while the pre-renderer is playing seeks the live
// tune to the current position.
func (c *Controller) EnableInstantSeek(enabled bool) error {
	c.mustInit()
	if enabled == c.cfg.Decoder.InstantSeek {
		return nil
	}
	c.cfg.Decoder.InstantSeek = enabled
	if c.tune == nil {
		return nil
	}

	if enabled {
		if err := c.startPreRender(); err != nil {
			c.cfg.Decoder.InstantSeek = false
			return err
		}
		return nil
	}
	return c.dropPreRender()
}

// InstantSeek reports whether instant seek is enabled
func (c *Controller) InstantSeek() bool {
	return c.cfg.Decoder.InstantSeek
}

// PreRenderProgress returns the rendered fraction of the current tune
func (c *Controller) PreRenderProgress() float64 {
	if c.pre == nil {
		return 0
	}
	return c.pre.ProgressFactor()
}

// startPreRender renders an independent copy of the current tune
func (c *Controller) startPreRender() error {
	if c.tune == nil {
		return ErrNoTune
	}
	if c.usingPre {
		return nil
	}

	src, err := c.reopen()
	if err != nil {
		return err
	}
	rate, channels := c.cfg.Audio.SampleRate, c.cfg.Audio.Channels
	conformed := decode.Conform(src, rate, channels)
	if err := c.pre.Render(conformed, rate, channels, c.DurationMs()); err != nil {
		src.Close()
		return err
	}

	if c.preTune != nil {
		c.preTune.Close()
	}
	c.preTune = src
	return nil
}

// reopen opens a second instance of the current tune at its start
func (c *Controller) reopen() (decode.Tune, error) {
	if cl, ok := c.tune.(cloner); ok {
		return cl.Clone(), nil
	}
	if c.path == "" {
		return nil, ErrNoInstantSeek
	}

	t, err := c.load(c.path, c.cfg.decodeConfig())
	if err != nil {
		return nil, &InputError{Path: c.path, Err: err}
	}
	if c.subsong > 0 {
		if err := t.SelectSubsong(c.subsong); err != nil {
			t.Close()
			return nil, &InputError{Path: c.path, Err: err}
		}
	}
	return t, nil
}

// dropPreRender stops pre-rendering. When the pre-renderer is the active
// source playback moves back to the live tune first.
func (c *Controller) dropPreRender() error {
	if c.usingPre {
		switch c.State() {
		case Playing, Paused, Seeking:
			pos := c.TimeMs()
			if c.seek != nil {
				pos = c.seek.targetMs
			}
			if err := c.SeekTo(pos); err != nil {
				return err
			}
		}
	}
	c.destroyPreRender()
	return nil
}

// destroyPreRender frees the pre-render buffer. The stream must be stopped
// or playing from the live tune.
func (c *Controller) destroyPreRender() {
	if c.pre == nil {
		return
	}
	if c.usingPre && c.live != nil {
		c.installSource(c.live, false)
	}
	c.pre.Stop()
	if c.preTune != nil {
		if err := c.preTune.Close(); err != nil {
			c.logger.Warn("failed to close pre-render tune", "error", err)
		}
		c.preTune = nil
	}
	c.usingPre = false
}

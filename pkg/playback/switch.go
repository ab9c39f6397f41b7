// ABOUTME: Runtime reconfiguration
// ABOUTME: Applies a new config, resetting only the subsystems whose settings changed
package playback

import "github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"

// SwitchConfig applies cfg. Volume, widening, looping and instant seek are
// applied while playing. Stream settings reopen the audio stream and
// decoder settings re-conform the tune and drop the pre-render; both stop
// playback. On failure the previous config stays active.
//
// With AppliedOnTheFly a non-nil error reports a pre-render that could not
// be started.
func (c *Controller) SwitchConfig(cfg Config) (SwitchResult, error) {
	c.mustInit()
	if err := cfg.Validate(); err != nil {
		return SwitchFailed, err
	}
	widener, err := newWidener(cfg)
	if err != nil {
		return SwitchFailed, err
	}

	old := c.cfg
	streamChanged := old.Audio.StreamChanged(cfg.Audio)
	decoderChanged := old.decoderChanged(cfg)

	if !streamChanged && !decoderChanged {
		instant := cfg.Decoder.InstantSeek
		cfg.Decoder.InstantSeek = old.Decoder.InstantSeek
		c.cfg = cfg
		c.sink.SetVolume(cfg.Audio.Volume)
		if old.Decoder.Widening != cfg.Decoder.Widening {
			c.widener = widener
			c.sink.SetWidener(widener)
		}

		c.logger.Info("config applied on the fly",
			"volume", cfg.Audio.Volume,
			"widening", cfg.Decoder.Widening.Enabled,
			"loop", cfg.Decoder.Loop)
		return AppliedOnTheFly, c.EnableInstantSeek(instant)
	}

	c.Stop()
	if decoderChanged {
		c.destroyPreRender()
	}

	if streamChanged {
		if err := c.sink.Open(cfg.Audio); err != nil {
			c.logger.Error("failed to open audio stream, restoring previous config", "error", err)
			if rerr := c.sink.Open(old.Audio); rerr != nil {
				c.logger.Error("failed to restore audio stream", "error", rerr)
				return SwitchFailed, &OutputError{Op: "reconfigure", Err: err}
			}
			if c.tune != nil {
				c.rewind()
				if old.Decoder.InstantSeek && !c.pre.Primed() {
					if perr := c.startPreRender(); perr != nil {
						c.logger.Warn("instant seek unavailable", "error", perr)
					}
				}
			}
			return SwitchFailed, &OutputError{Op: "reconfigure", Err: err}
		}
	}

	c.cfg = cfg
	c.widener = widener
	c.sink.SetWidener(widener)
	c.sink.SetVolume(cfg.Audio.Volume)

	if c.tune != nil {
		if decoderChanged {
			c.live = decode.Conform(decode.Native(c.tune), cfg.Audio.SampleRate, cfg.Audio.Channels)
		}
		c.rewind()
		if cfg.Decoder.InstantSeek && !c.pre.Primed() {
			if err := c.startPreRender(); err != nil {
				c.logger.Warn("instant seek unavailable", "error", err)
			}
		}
	}

	c.logger.Info("config applied, playback stopped",
		"stream_reset", streamChanged,
		"decoder_reset", decoderChanged)
	return AppliedPlaybackStopped, nil
}

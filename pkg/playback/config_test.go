// ABOUTME: Tests for playback configuration and runtime reconfiguration
// ABOUTME: Tests validation and the three SwitchConfig outcomes
package playback

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"matching decoder format", func(c *Config) {
			c.Decoder.SampleRate = c.Audio.SampleRate
			c.Decoder.Channels = c.Audio.Channels
		}, ""},
		{"widening", func(c *Config) { c.Decoder.Widening.Enabled = true }, ""},
		{"bad audio rate", func(c *Config) { c.Audio.SampleRate = 1 }, "audio.sample_rate"},
		{"decoder rate mismatch", func(c *Config) { c.Decoder.SampleRate = 48000 }, "decoder.sample_rate"},
		{"decoder channel mismatch", func(c *Config) { c.Decoder.Channels = 1 }, "decoder.channels"},
		{"negative song length", func(c *Config) { c.Decoder.DefaultSongLengthMs = -1 }, "decoder.default_song_length_ms"},
		{"mono widening", func(c *Config) {
			c.Audio.Channels = 1
			c.Decoder.Widening.Enabled = true
		}, "decoder.widening"},
		{"widening volume", func(c *Config) {
			c.Decoder.Widening.Enabled = true
			c.Decoder.Widening.FarVolume = 3
		}, "decoder.widening"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestWidenerConfigFollowsBufferFrames(t *testing.T) {
	for _, frames := range []int{256, 4096, 16384} {
		cfg := DefaultConfig()
		cfg.Audio.BufferFrames = frames
		if got := cfg.widenerConfig().BufferFrames; got != frames {
			t.Errorf("expected widener sized for %d frames, got %d", frames, got)
		}
	}
}

func TestSwitchConfigOnTheFly(t *testing.T) {
	c := newTestController(t, testConfig())
	c.Play(newTone(10_000))
	session := c.Session().ID

	cfg := c.Config()
	cfg.Audio.Volume = 0.25
	cfg.Decoder.Widening.Enabled = true
	cfg.Decoder.Loop = true
	cfg.Decoder.InstantSeek = true

	result, err := c.SwitchConfig(cfg)
	if err != nil {
		t.Fatalf("SwitchConfig failed: %v", err)
	}
	if result != AppliedOnTheFly {
		t.Fatalf("expected AppliedOnTheFly, got %s", result)
	}
	if c.State() != Playing {
		t.Errorf("expected playback to continue, got %s", c.State())
	}
	if c.Session().ID != session {
		t.Error("expected the stream to stay open")
	}
	if c.sink.Volume() != 0.25 {
		t.Errorf("expected volume 0.25, got %f", c.sink.Volume())
	}
	if c.sink.Widener() == nil {
		t.Error("expected widener installed")
	}
	if !c.pre.Primed() || !c.InstantSeek() {
		t.Error("expected pre-render to start")
	}
	if !c.Config().Decoder.Loop {
		t.Error("expected loop enabled")
	}

	cfg.Decoder.Widening.Enabled = false
	if result, _ := c.SwitchConfig(cfg); result != AppliedOnTheFly {
		t.Fatalf("expected AppliedOnTheFly, got %s", result)
	}
	if c.sink.Widener() != nil {
		t.Error("expected widener removed")
	}
}

func TestSwitchConfigResetsStream(t *testing.T) {
	c := newTestController(t, testConfig())
	c.Play(newTone(10_000))
	session := c.Session().ID

	cfg := c.Config()
	cfg.Audio.SampleRate = 16000
	result, err := c.SwitchConfig(cfg)
	if err != nil {
		t.Fatalf("SwitchConfig failed: %v", err)
	}
	if result != AppliedPlaybackStopped {
		t.Fatalf("expected AppliedPlaybackStopped, got %s", result)
	}
	if c.State() != Stopped {
		t.Errorf("expected Stopped, got %s", c.State())
	}
	if c.Session().ID == session || c.Session().Config.SampleRate != 16000 {
		t.Error("expected a new 16 kHz stream session")
	}
	if c.live.Format().SampleRate != 16000 {
		t.Errorf("expected tune conformed to 16 kHz, got %d", c.live.Format().SampleRate)
	}

	if err := c.Replay(); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if c.State() != Playing {
		t.Errorf("expected Playing, got %s", c.State())
	}
}

func TestSwitchConfigInvalid(t *testing.T) {
	c := newTestController(t, testConfig())
	c.Play(newTone(10_000))
	before := c.Config()

	cfg := before
	cfg.Audio.Channels = 5
	result, err := c.SwitchConfig(cfg)
	if result != SwitchFailed || StatusOf(err) != StatusConfigError {
		t.Fatalf("expected SwitchFailed with config error, got %s, %v", result, err)
	}
	if c.Config() != before {
		t.Error("expected previous config to stay active")
	}
	if c.State() != Playing {
		t.Errorf("expected playback to continue, got %s", c.State())
	}
}

func TestSwitchConfigStreamFailureRestores(t *testing.T) {
	var failNext atomic.Bool
	factory := func(name string) (output.Backend, error) {
		if failNext.Swap(false) {
			return nil, errors.New("device busy")
		}
		return nullFactory(name)
	}

	c := New(WithBackendFactory(factory))
	if err := c.Init(testConfig()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	defer c.Close()
	c.Play(newTone(10_000))
	before := c.Config()

	cfg := before
	cfg.Audio.BufferFrames = 256
	failNext.Store(true)
	result, err := c.SwitchConfig(cfg)
	if result != SwitchFailed {
		t.Fatalf("expected SwitchFailed, got %s", result)
	}
	var outErr *OutputError
	if !errors.As(err, &outErr) {
		t.Fatalf("expected *OutputError, got %v", err)
	}
	if c.Config() != before {
		t.Error("expected previous config restored")
	}
	if c.Session() == nil || c.Session().Config.BufferFrames != before.Audio.BufferFrames {
		t.Error("expected the previous stream reopened")
	}

	if err := c.Replay(); err != nil {
		t.Fatalf("Replay after restore failed: %v", err)
	}
}

// ABOUTME: Tests for audio configuration
// ABOUTME: Tests validation rules and stream change detection
package output

import (
	"errors"
	"testing"
)

func TestAudioConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*AudioConfig)
		field   string
		wantErr bool
	}{
		{"defaults", func(c *AudioConfig) {}, "", false},
		{"mono", func(c *AudioConfig) { c.Channels = 1 }, "", false},
		{"low rate", func(c *AudioConfig) { c.SampleRate = 4000 }, "sample_rate", true},
		{"surround", func(c *AudioConfig) { c.Channels = 6 }, "channels", true},
		{"loud", func(c *AudioConfig) { c.Volume = 1.5 }, "volume", true},
		{"tiny buffer", func(c *AudioConfig) { c.BufferFrames = 16 }, "buffer_frames", true},
		{"unknown backend", func(c *AudioConfig) { c.Backend = "jack" }, "backend", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultAudioConfig()
			tt.modify(&cfg)

			err := cfg.Validate()
			if !tt.wantErr {
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

func TestAudioConfigStreamChanged(t *testing.T) {
	base := DefaultAudioConfig()

	volume := base
	volume.Volume = 0.3
	if base.StreamChanged(volume) {
		t.Error("expected volume change to be applied on the fly")
	}

	rate := base
	rate.SampleRate = 48000
	if !base.StreamChanged(rate) {
		t.Error("expected sample rate change to need a new stream")
	}

	backend := base
	backend.Backend = "null"
	if !base.StreamChanged(backend) {
		t.Error("expected backend change to need a new stream")
	}
}

func TestNewBackend(t *testing.T) {
	for _, name := range Backends() {
		b, err := NewBackend(name)
		if err != nil {
			t.Fatalf("NewBackend(%q) failed: %v", name, err)
		}
		if b.Name() != name {
			t.Errorf("expected name %q, got %q", name, b.Name())
		}
	}

	if _, err := NewBackend("jack"); !errors.Is(err, ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

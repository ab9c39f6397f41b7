// ABOUTME: Tests for the playback controller state machine
// ABOUTME: Tests init, transport commands, end of tune and error statuses
package playback

import (
	"errors"
	"testing"
	"time"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
)

func TestCommandsBeforeInitPanic(t *testing.T) {
	commands := map[string]func(c *Controller){
		"Stop":   func(c *Controller) { c.Stop() },
		"Play":   func(c *Controller) { c.Play(newTone(1000)) },
		"SeekTo": func(c *Controller) { c.SeekTo(0) },
		"Pause":  func(c *Controller) { c.Pause() },
		"Poll":   func(c *Controller) { c.Poll() },
	}

	for name, cmd := range commands {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				err, ok := r.(error)
				if !ok || !errors.Is(err, ErrNotInitialized) {
					t.Errorf("expected ErrNotInitialized panic, got %v", r)
				}
			}()
			cmd(New())
		})
	}
}

func TestInit(t *testing.T) {
	c := newTestController(t, testConfig())

	if c.State() != Stopped {
		t.Errorf("expected Stopped, got %s", c.State())
	}
	if c.Session() == nil || c.Session().Config.SampleRate != testRate {
		t.Error("expected an open stream session")
	}
	if err := c.Init(testConfig()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState on second Init, got %v", err)
	}
}

func TestInitErrors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := testConfig()
		cfg.Audio.Volume = 2

		c := New(WithBackendFactory(nullFactory))
		err := c.Init(cfg)
		if StatusOf(err) != StatusConfigError {
			t.Fatalf("expected config error, got %v", err)
		}
		if c.State() != Undefined {
			t.Errorf("expected Undefined after failed Init, got %s", c.State())
		}
	})

	t.Run("stream failure", func(t *testing.T) {
		failing := func(string) (output.Backend, error) {
			return nil, errors.New("no audio device")
		}
		c := New(WithBackendFactory(failing))
		err := c.Init(testConfig())
		if StatusOf(err) != StatusOutputError {
			t.Fatalf("expected output error, got %v", err)
		}
	})
}

func TestPlayAndStop(t *testing.T) {
	c := newTestController(t, testConfig())

	if err := c.Play(newTone(10_000)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if c.State() != Playing {
		t.Fatalf("expected Playing, got %s", c.State())
	}
	if c.DurationMs() != 10_000 {
		t.Errorf("expected 10000 ms, got %d", c.DurationMs())
	}
	if c.Metadata().Title == "" {
		t.Error("expected tune metadata")
	}

	if err := c.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if c.State() != Stopped {
		t.Errorf("expected Stopped, got %s", c.State())
	}
	if c.TimeMs() != 0 {
		t.Errorf("expected position reset, got %d ms", c.TimeMs())
	}
	if err := c.Stop(); err != nil {
		t.Errorf("expected second Stop to be a no-op, got %v", err)
	}
	if c.State() != Stopped {
		t.Errorf("expected Stopped after second Stop, got %s", c.State())
	}
}

func TestStopFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, c *Controller)
		want  State
	}{
		{"stopped", func(t *testing.T, c *Controller) {}, Stopped},
		{"playing", func(t *testing.T, c *Controller) {
			c.Play(newTone(10_000))
		}, Playing},
		{"paused", func(t *testing.T, c *Controller) {
			c.Play(newTone(10_000))
			c.Pause()
		}, Paused},
		{"seeking", func(t *testing.T, c *Controller) {
			c.Play(newTone(600_000))
			c.Pause()
			c.SeekTo(500_000)
		}, Seeking},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestController(t, testConfig())
			tt.setup(t, c)
			if c.State() != tt.want {
				t.Fatalf("expected setup to reach %s, got %s", tt.want, c.State())
			}

			if err := c.Stop(); err != nil {
				t.Fatalf("Stop failed: %v", err)
			}
			if c.State() != Stopped {
				t.Errorf("expected Stopped, got %s", c.State())
			}
			if c.seek != nil {
				t.Error("expected seek worker to be joined")
			}

			if err := c.Stop(); err != nil {
				t.Errorf("expected second Stop to be a no-op, got %v", err)
			}
			if c.State() != Stopped {
				t.Errorf("expected Stopped after second Stop, got %s", c.State())
			}
		})
	}
}

func TestPauseResume(t *testing.T) {
	c := newTestController(t, testConfig())

	if err := c.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState pausing while stopped, got %v", err)
	}
	if err := c.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("expected ErrInvalidState resuming while stopped, got %v", err)
	}

	c.Play(newTone(10_000))
	if err := c.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if c.State() != Paused {
		t.Fatalf("expected Paused, got %s", c.State())
	}
	paused := c.TimeMs()
	if c.TimeMs() != paused {
		t.Error("expected position to hold while paused")
	}

	if err := c.TogglePause(); err != nil {
		t.Fatalf("TogglePause failed: %v", err)
	}
	if c.State() != Playing {
		t.Errorf("expected Playing after toggle, got %s", c.State())
	}
	if err := c.TogglePause(); err != nil {
		t.Fatalf("TogglePause failed: %v", err)
	}
	if c.State() != Paused {
		t.Errorf("expected Paused after second toggle, got %s", c.State())
	}
	if err := c.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if c.State() != Playing {
		t.Errorf("expected Playing, got %s", c.State())
	}
}

func TestTuneEndStops(t *testing.T) {
	c := newTestController(t, testConfig())

	if err := c.Play(newTone(100)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	pollUntil(t, c, func() bool { return c.State() == Stopped })

	if c.TimeMs() != 0 {
		t.Errorf("expected rewound position, got %d ms", c.TimeMs())
	}
	if err := c.Replay(); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if c.State() != Playing {
		t.Errorf("expected Playing after replay, got %s", c.State())
	}
}

func TestTuneEndLoops(t *testing.T) {
	cfg := testConfig()
	cfg.Decoder.Loop = true
	c := newTestController(t, cfg)

	if err := c.Play(newTone(100)); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	// 100 ms of audio renders in roughly 13 ticks, so this covers several loops
	for range 200 {
		if err := c.Poll(); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		if c.State() != Playing {
			t.Fatalf("expected looping tune to keep playing, got %s", c.State())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestReplayWithoutTune(t *testing.T) {
	c := newTestController(t, testConfig())
	if err := c.Replay(); !errors.Is(err, ErrNoTune) {
		t.Errorf("expected ErrNoTune, got %v", err)
	}
	if err := c.SwitchSubsong(1); !errors.Is(err, ErrNoTune) {
		t.Errorf("expected ErrNoTune, got %v", err)
	}
	if err := c.Play(nil); !errors.Is(err, ErrNoTune) {
		t.Errorf("expected ErrNoTune, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	var opened []string
	loader := func(path string, cfg decode.Config) (decode.Tune, error) {
		opened = append(opened, path)
		if path == "missing.mp3" {
			return nil, decode.ErrUnsupportedFormat
		}
		return decode.NewTone(cfg), nil
	}
	c := newTestController(t, testConfig(), WithLoader(loader))

	if err := c.Load("tone.wav", 2); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.State() != Playing || c.Subsong() != 2 {
		t.Errorf("expected subsong 2 playing, got %s subsong %d", c.State(), c.Subsong())
	}

	err := c.Load("missing.mp3", 0)
	var inErr *InputError
	if !errors.As(err, &inErr) || inErr.Path != "missing.mp3" {
		t.Fatalf("expected InputError for missing.mp3, got %v", err)
	}
	if !errors.Is(err, decode.ErrUnsupportedFormat) {
		t.Errorf("expected wrapped decoder error, got %v", err)
	}
	if StatusOf(err) != StatusInputError {
		t.Errorf("expected input status, got %s", StatusOf(err))
	}

	if err := c.Load("tone.wav", 99); StatusOf(err) != StatusInputError {
		t.Errorf("expected input error for bad subsong, got %v", err)
	}
}

func TestSwitchSubsong(t *testing.T) {
	c := newTestController(t, testConfig())
	tone := newTone(10_000)
	c.Play(tone)

	if err := c.SwitchSubsong(3); err != nil {
		t.Fatalf("SwitchSubsong failed: %v", err)
	}
	if c.State() != Playing || c.Subsong() != 3 {
		t.Errorf("expected subsong 3 playing, got %s subsong %d", c.State(), c.Subsong())
	}
	if c.Subsongs() != tone.Subsongs() {
		t.Errorf("expected %d subsongs, got %d", tone.Subsongs(), c.Subsongs())
	}

	if err := c.SwitchSubsong(99); StatusOf(err) != StatusInputError {
		t.Errorf("expected input error, got %v", err)
	}

	c.Play(&failingTune{Tune: newTone(1000)})
	if err := c.SwitchSubsong(1); StatusOf(err) != StatusInputError {
		t.Errorf("expected input error, got %v", err)
	}
}

func TestSourceFormatMismatchPanics(t *testing.T) {
	c := newTestController(t, testConfig())
	c.Play(newTone(1000))
	c.Stop()

	defer func() {
		if recover() == nil {
			t.Error("expected panic for mismatched sample rate")
		}
	}()
	c.live = decode.NewTone(decode.Config{SampleRate: 44100})
	c.installSource(c.live, false)
}

func TestVolumeAndVisualization(t *testing.T) {
	c := newTestController(t, testConfig())

	c.SetVolume(1.7)
	if c.Config().Audio.Volume != 1 {
		t.Errorf("expected clamped volume 1, got %f", c.Config().Audio.Volume)
	}
	c.SetVolume(0.4)
	if c.Status().Volume != 0.4 {
		t.Errorf("expected volume 0.4, got %f", c.Status().Volume)
	}

	c.SetVisualizationSize(128)
	c.Play(newTone(10_000))
	out := make([]int16, 128)
	pollUntil(t, c, func() bool { return c.ReadVisualization(out) == 128 })
}

func TestStatus(t *testing.T) {
	c := newTestController(t, testConfig())
	c.Play(newTone(5000))

	s := c.Status()
	if s.State != Playing {
		t.Errorf("expected Playing, got %s", s.State)
	}
	if s.DurationMs != 5000 {
		t.Errorf("expected 5000 ms, got %d", s.DurationMs)
	}
	if s.SessionID == "" || s.Backend != "null" {
		t.Errorf("expected session details, got %q/%q", s.SessionID, s.Backend)
	}
	if s.Subsongs != 8 {
		t.Errorf("expected 8 subsongs, got %d", s.Subsongs)
	}
}

func TestClose(t *testing.T) {
	c := New(WithBackendFactory(nullFactory))
	if err := c.Close(); err != nil {
		t.Errorf("expected Close on an uninitialized controller to succeed, got %v", err)
	}
	if err := c.Init(testConfig()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	c.Play(newTone(1000))

	if err := c.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if c.State() != Undefined {
		t.Errorf("expected Undefined after Close, got %s", c.State())
	}
	if c.Session() != nil {
		t.Error("expected no session after Close")
	}
}

// ABOUTME: Shared helpers for playback tests
// ABOUTME: Builds controllers on the null backend and fake tunes
package playback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
)

const testRate = 8000

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Audio.SampleRate = testRate
	cfg.Audio.BufferFrames = 64
	cfg.Audio.Backend = "null"
	return cfg
}

func nullFactory(string) (output.Backend, error) {
	return output.NewNull(time.Millisecond), nil
}

func newTestController(t *testing.T, cfg Config, opts ...Option) *Controller {
	t.Helper()
	opts = append([]Option{WithBackendFactory(nullFactory)}, opts...)
	c := New(opts...)
	if err := c.Init(cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func newTone(lengthMs int64) *decode.Tone {
	return decode.NewTone(decode.Config{SampleRate: testRate, DefaultSongLengthMs: lengthMs})
}

// slowTune is a tone that takes a moment per Fill and cannot be cloned
type slowTune struct {
	decode.Tune
	delay time.Duration
}

func newSlowTune(lengthMs int64, delay time.Duration) *slowTune {
	return &slowTune{Tune: newTone(lengthMs), delay: delay}
}

func (s *slowTune) Fill(buf []int16, frames int) bool {
	time.Sleep(s.delay)
	return s.Tune.Fill(buf, frames)
}

// failingTune cannot select subsongs
type failingTune struct {
	decode.Tune
}

func (f *failingTune) SelectSubsong(n int) error {
	return errors.New("corrupt subsong table")
}

func waitSeek(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.WaitSeek(ctx); err != nil {
		t.Fatalf("WaitSeek failed: %v", err)
	}
}

func pollUntil(t *testing.T, c *Controller, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for condition")
		}
		if err := c.Poll(); err != nil {
			t.Fatalf("Poll failed: %v", err)
		}
		time.Sleep(time.Millisecond)
	}
}

// seekRecorder collects seek reports from the worker goroutine
type seekRecorder struct {
	mu      sync.Mutex
	times   []int64
	dones   int
	abortAt int64
}

func (r *seekRecorder) callback(ms int64, done bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.times = append(r.times, ms)
	if done {
		r.dones++
	}
	return r.abortAt > 0 && ms >= r.abortAt
}

func (r *seekRecorder) snapshot() ([]int64, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.times...), r.dones
}

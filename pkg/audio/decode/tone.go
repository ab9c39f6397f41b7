// ABOUTME: Tone generator tune
// ABOUTME: Generates sine notes, one per subsong, for tests and --tone playback
package decode

import (
	"fmt"
	"math"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

const (
	// DefaultToneSampleRate is used when no rate is configured
	DefaultToneSampleRate = 44100
	// DefaultToneLengthMs is the length of each note when none is configured
	DefaultToneLengthMs = 30_000

	toneAmplitude = 0.5
)

// toneNotes is an A minor scale from A4 to A5
var toneNotes = []float64{440.00, 493.88, 523.25, 587.33, 659.25, 698.46, 783.99, 880.00}

// Tone generates a sine wave. Subsong n plays the nth note of a scale.
type Tone struct {
	format      audio.Format
	lengthMs    int64
	totalFrames int64

	subsong int
	frame   int64
	ended   bool
}

// NewTone creates a stereo tone tune from the decoder config
func NewTone(cfg Config) *Tone {
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = DefaultToneSampleRate
	}
	lengthMs := cfg.DefaultSongLengthMs
	if lengthMs <= 0 {
		lengthMs = DefaultToneLengthMs
	}

	return &Tone{
		format:      audio.Format{SampleRate: rate, Channels: 2},
		lengthMs:    lengthMs,
		totalFrames: audio.FramesFor(lengthMs, rate),
	}
}

// Frequency returns the frequency of the current subsong
func (t *Tone) Frequency() float64 {
	return toneNotes[t.subsong]
}

func (t *Tone) Fill(buf []int16, frames int) bool {
	if t.ended {
		return false
	}
	if max := len(buf) / 2; frames > max {
		frames = max
	}

	freq := t.Frequency()
	rate := float64(t.format.SampleRate)

	for i := 0; i < frames; i++ {
		var pcmValue int16
		if t.frame < t.totalFrames {
			sample := math.Sin(2 * math.Pi * freq * float64(t.frame) / rate)
			pcmValue = int16(sample * audio.MaxInt16 * toneAmplitude)
			t.frame++
		}
		buf[i*2] = pcmValue
		buf[i*2+1] = pcmValue
	}

	if t.frame >= t.totalFrames {
		t.ended = true
	}
	return true
}

func (t *Tone) Format() audio.Format { return t.format }
func (t *Tone) DurationMs() int64    { return t.lengthMs }
func (t *Tone) Subsongs() int        { return len(toneNotes) }

func (t *Tone) Metadata() Metadata {
	return Metadata{
		Title:    fmt.Sprintf("Test Tone %.0f Hz", t.Frequency()),
		Author:   "tuneplay",
		Released: "generated",
		LengthMs: t.lengthMs,
	}
}

func (t *Tone) SelectSubsong(n int) error {
	if n < 0 || n >= len(toneNotes) {
		return fmt.Errorf("%w: %d (tune has %d)", ErrNoSubsong, n, len(toneNotes))
	}
	t.subsong = n
	return t.Rewind()
}

func (t *Tone) Rewind() error {
	t.frame = 0
	t.ended = false
	return nil
}

func (t *Tone) Close() error { return nil }

// Clone returns an independent tone at the start of the same subsong
func (t *Tone) Clone() Tune {
	return &Tone{
		format:      t.format,
		lengthMs:    t.lengthMs,
		totalFrames: t.totalFrames,
		subsong:     t.subsong,
	}
}

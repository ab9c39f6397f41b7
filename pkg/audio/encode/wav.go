// ABOUTME: WAV audio encoder
// ABOUTME: Encodes 16-bit PCM samples into a RIFF/WAVE stream using go-audio/wav
package encode

import (
	"errors"
	"fmt"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

const (
	wavBitDepth = 16
	// wavFormatPCM is the WAVE_FORMAT_PCM format tag
	wavFormatPCM = 1
)

// ErrClosed is returned when writing to a closed encoder
var ErrClosed = errors.New("encoder closed")

var _ Encoder = (*WAVEncoder)(nil)

// WAVEncoder encodes PCM audio into a WAV file
type WAVEncoder struct {
	enc    *wav.Encoder
	format audio.Format
	buf    *goaudio.IntBuffer
	frames int64
	closed bool
}

// NewWAV creates a WAV encoder writing to w. The header is patched with the
// final sizes on Close, which is why w must be seekable.
func NewWAV(w io.WriteSeeker, format audio.Format) (*WAVEncoder, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("invalid format for WAV encoder: %d Hz, %d channels",
			format.SampleRate, format.Channels)
	}

	return &WAVEncoder{
		enc:    wav.NewEncoder(w, format.SampleRate, wavBitDepth, format.Channels, wavFormatPCM),
		format: format,
		buf: &goaudio.IntBuffer{
			Format:         &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
			SourceBitDepth: wavBitDepth,
		},
	}, nil
}

// Write encodes interleaved samples
func (e *WAVEncoder) Write(samples []int16) error {
	if e.closed {
		return ErrClosed
	}
	if len(samples)%e.format.Channels != 0 {
		return fmt.Errorf("sample count %d is not a multiple of %d channels", len(samples), e.format.Channels)
	}
	if len(samples) == 0 {
		return nil
	}

	if cap(e.buf.Data) < len(samples) {
		e.buf.Data = make([]int, len(samples))
	}
	e.buf.Data = e.buf.Data[:len(samples)]
	for i, s := range samples {
		e.buf.Data[i] = int(s)
	}

	if err := e.enc.Write(e.buf); err != nil {
		return fmt.Errorf("wav encode failed: %w", err)
	}
	e.frames += int64(len(samples) / e.format.Channels)
	return nil
}

// WritePCM encodes little-endian 16-bit PCM bytes
func (e *WAVEncoder) WritePCM(pcm []byte, chunkSamples int) error {
	if chunkSamples <= 0 {
		chunkSamples = 4096 * e.format.Channels
	}
	samples := make([]int16, chunkSamples)

	for len(pcm) >= audio.SampleWidth {
		n := audio.ReadSamples(samples, pcm)
		n -= n % e.format.Channels
		if n == 0 {
			break
		}
		if err := e.Write(samples[:n]); err != nil {
			return err
		}
		pcm = pcm[n*audio.SampleWidth:]
	}
	return nil
}

// Frames returns the number of frames written so far
func (e *WAVEncoder) Frames() int64 {
	return e.frames
}

// Close writes the final header. It is safe to call more than once.
func (e *WAVEncoder) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if err := e.enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize wav: %w", err)
	}
	return nil
}

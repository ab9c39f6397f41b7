// ABOUTME: WAV tune decoder
// ABOUTME: Decodes PCM WAV files using go-audio/wav
package decode

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

// wavBlockFrames is how many frames are read from the file at once
const wavBlockFrames = 4096

type wavReader struct {
	file     *os.File
	decoder  *wav.Decoder
	channels int
	bitDepth int

	block *goaudio.IntBuffer
	avail int // samples in block
	pos   int // next sample in block
}

// OpenWAV opens a PCM WAV file
func OpenWAV(path string) (Tune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open WAV file: %w", err)
	}

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		f.Close()
		return nil, fmt.Errorf("%w: invalid WAV file", ErrUnsupportedFormat)
	}
	if err := decoder.FwdToPCM(); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to locate WAV data: %w", err)
	}

	format := audio.Format{
		SampleRate: int(decoder.SampleRate),
		Channels:   int(decoder.NumChans),
	}
	bitDepth := int(decoder.BitDepth)
	if !format.Valid() || bitDepth == 0 {
		f.Close()
		return nil, fmt.Errorf("%w: WAV header has %d Hz, %d channels, %d bits",
			ErrUnsupportedFormat, format.SampleRate, format.Channels, bitDepth)
	}

	var durationMs int64
	if frameBytes := format.Channels * bitDepth / 8; frameBytes > 0 {
		durationMs = audio.MillisFor(int64(decoder.PCMSize/frameBytes), format.SampleRate)
	}

	title := titleFromPath(path)
	slog.Debug("loaded WAV", "title", title, "sample_rate", format.SampleRate,
		"channels", format.Channels, "bit_depth", bitDepth)

	r := &wavReader{
		file:     f,
		decoder:  decoder,
		channels: format.Channels,
		bitDepth: bitDepth,
		block: &goaudio.IntBuffer{
			Data:   make([]int, wavBlockFrames*format.Channels),
			Format: &goaudio.Format{NumChannels: format.Channels, SampleRate: format.SampleRate},
		},
	}
	return newFileTune(r, format, durationMs, Metadata{Title: title}), nil
}

func (r *wavReader) sample(v int) int16 {
	if r.bitDepth == 8 {
		// 8-bit WAV is unsigned
		v -= 128
	}
	return audio.ScaleToInt16(int32(v), r.bitDepth)
}

func (r *wavReader) readFrames(buf []int16, frames int) (int, error) {
	want := frames * r.channels
	got := 0
	for got < want {
		if r.pos >= r.avail {
			n, err := r.decoder.PCMBuffer(r.block)
			if err != nil && err != io.EOF {
				return got / r.channels, err
			}
			if n == 0 {
				return got / r.channels, io.EOF
			}
			r.avail = n - n%r.channels
			r.pos = 0
			continue
		}

		for ; r.pos < r.avail && got < want; r.pos++ {
			buf[got] = r.sample(r.block.Data[r.pos])
			got++
		}
	}
	return got / r.channels, nil
}

func (r *wavReader) rewind() error {
	if err := r.decoder.Rewind(); err != nil {
		return err
	}
	r.avail = 0
	r.pos = 0
	return nil
}

func (r *wavReader) close() error {
	return r.file.Close()
}

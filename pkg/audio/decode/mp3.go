// ABOUTME: MP3 tune decoder
// ABOUTME: Decodes MP3 files to 16-bit stereo using go-mp3
package decode

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit stereo
const mp3FrameBytes = 4

type mp3Reader struct {
	file    *os.File
	decoder *mp3.Decoder
	scratch []byte
}

// OpenMP3 opens an MP3 file
func OpenMP3(path string) (Tune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open MP3 file: %w", err)
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	format := audio.Format{SampleRate: decoder.SampleRate(), Channels: 2}

	var durationMs int64
	if length := decoder.Length(); length > 0 {
		durationMs = audio.MillisFor(length/mp3FrameBytes, format.SampleRate)
	}

	title := titleFromPath(path)
	slog.Debug("loaded MP3", "title", title, "sample_rate", format.SampleRate, "duration_ms", durationMs)

	r := &mp3Reader{file: f, decoder: decoder}
	return newFileTune(r, format, durationMs, Metadata{Title: title}), nil
}

func (r *mp3Reader) readFrames(buf []int16, frames int) (int, error) {
	need := frames * mp3FrameBytes
	if cap(r.scratch) < need {
		r.scratch = make([]byte, need)
	}
	b := r.scratch[:need]

	n, err := io.ReadFull(r.decoder, b)
	got := n / mp3FrameBytes
	audio.ReadSamples(buf, b[:got*mp3FrameBytes])

	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			err = io.EOF
		}
		return got, err
	}
	return got, nil
}

func (r *mp3Reader) rewind() error {
	_, err := r.decoder.Seek(0, io.SeekStart)
	return err
}

func (r *mp3Reader) close() error {
	return r.file.Close()
}

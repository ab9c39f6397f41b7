// ABOUTME: Shared Tune implementation over a format-specific frame reader
// ABOUTME: Handles end-of-tune padding, rewinding and subsong bookkeeping
package decode

import (
	"errors"
	"fmt"
	"io"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

// maxStalls bounds how many empty reads are tolerated before giving up
const maxStalls = 8

// frameReader is implemented by each file format
type frameReader interface {
	// readFrames decodes up to frames frames into buf. It returns io.EOF
	// once the stream is exhausted.
	readFrames(buf []int16, frames int) (int, error)
	rewind() error
	close() error
}

// fileTune is a single-subsong tune backed by a frameReader
type fileTune struct {
	reader     frameReader
	format     audio.Format
	durationMs int64
	meta       Metadata

	ended bool
	err   error
}

func newFileTune(r frameReader, format audio.Format, durationMs int64, meta Metadata) *fileTune {
	meta.LengthMs = durationMs
	return &fileTune{
		reader:     r,
		format:     format,
		durationMs: durationMs,
		meta:       meta,
	}
}

// Fill decodes exactly frames frames. The final partial chunk is padded with
// silence and the call after it returns false.
func (t *fileTune) Fill(buf []int16, frames int) bool {
	if t.ended {
		return false
	}

	ch := t.format.Channels
	if max := len(buf) / ch; frames > max {
		frames = max
	}

	got := 0
	stalls := 0
	for got < frames {
		n, err := t.reader.readFrames(buf[got*ch:frames*ch], frames-got)
		got += n
		if err != nil {
			if !errors.Is(err, io.EOF) {
				t.err = err
			}
			t.ended = true
			break
		}
		if n == 0 {
			stalls++
			if stalls >= maxStalls {
				t.ended = true
				break
			}
		}
	}

	if got == 0 && t.ended {
		return false
	}
	clear(buf[got*ch : frames*ch])
	return true
}

func (t *fileTune) Format() audio.Format { return t.format }
func (t *fileTune) DurationMs() int64    { return t.durationMs }
func (t *fileTune) Metadata() Metadata   { return t.meta }
func (t *fileTune) Subsongs() int        { return 1 }

// Err returns the decode error that ended the tune early, if any
func (t *fileTune) Err() error { return t.err }

func (t *fileTune) SelectSubsong(n int) error {
	if n != 0 {
		return fmt.Errorf("%w: %d (tune has 1)", ErrNoSubsong, n)
	}
	return t.Rewind()
}

func (t *fileTune) Rewind() error {
	if err := t.reader.rewind(); err != nil {
		return fmt.Errorf("failed to rewind: %w", err)
	}
	t.ended = false
	t.err = nil
	return nil
}

func (t *fileTune) Close() error {
	return t.reader.close()
}

// ABOUTME: Ogg Opus tune decoder
// ABOUTME: Decodes .opus files to 48kHz PCM using libopusfile bindings
package decode

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/hraban/opus.v2"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

// Ogg Opus always decodes at 48kHz
const opusSampleRate = 48000

// opusMaxFrameSamples is the largest packet (120ms at 48kHz) per channel
const opusMaxFrameSamples = 5760

type opusReader struct {
	file     *os.File
	stream   *opus.Stream
	channels int

	pcm   []int16
	avail int // samples in pcm
	pos   int
}

// OpenOpus opens an Ogg Opus file
func OpenOpus(path string) (Tune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Opus file: %w", err)
	}

	channels, err := opusChannels(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	stream, err := opus.NewStream(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode Opus: %w", err)
	}

	title := titleFromPath(path)
	slog.Debug("loaded Opus", "title", title, "channels", channels)

	r := &opusReader{
		file:     f,
		stream:   stream,
		channels: channels,
		pcm:      make([]int16, opusMaxFrameSamples*channels),
	}
	format := audio.Format{SampleRate: opusSampleRate, Channels: channels}
	return newFileTune(r, format, 0, Metadata{Title: title}), nil
}

// opusChannels reads the channel count from the OpusHead packet and rewinds
func opusChannels(f *os.File) (int, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return 0, fmt.Errorf("failed to read Opus header: %w", err)
	}
	head = head[:n]

	idx := bytes.Index(head, []byte("OpusHead"))
	if idx < 0 || idx+9 >= len(head) {
		return 0, fmt.Errorf("%w: missing OpusHead", ErrUnsupportedFormat)
	}
	channels := int(head[idx+9])
	if channels != 1 && channels != 2 {
		return 0, fmt.Errorf("%w: %d channel Opus", ErrUnsupportedFormat, channels)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, fmt.Errorf("failed to rewind Opus file: %w", err)
	}
	return channels, nil
}

func (r *opusReader) readFrames(buf []int16, frames int) (int, error) {
	want := frames * r.channels
	got := 0
	for got < want {
		if r.pos >= r.avail {
			n, err := r.stream.Read(r.pcm)
			if err != nil {
				return got / r.channels, err
			}
			if n == 0 {
				return got / r.channels, io.EOF
			}
			r.avail = n * r.channels
			r.pos = 0
		}

		c := copy(buf[got:want], r.pcm[r.pos:r.avail])
		r.pos += c
		got += c
	}
	return got / r.channels, nil
}

func (r *opusReader) rewind() error {
	r.stream.Close()
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := opus.NewStream(r.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	r.stream = stream
	r.avail = 0
	r.pos = 0
	return nil
}

func (r *opusReader) close() error {
	r.stream.Close()
	return r.file.Close()
}

// ABOUTME: FLAC tune decoder
// ABOUTME: Decodes FLAC files frame by frame using mewkiz/flac
package decode

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
)

type flacReader struct {
	file     *os.File
	stream   *flac.Stream
	channels int
	bitDepth int

	current *frame.Frame
	pos     int // next sample index within current
}

// OpenFLAC opens a FLAC file
func OpenFLAC(path string) (Tune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FLAC file: %w", err)
	}

	// Parse reads every metadata block, including Vorbis comments
	stream, err := flac.Parse(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode FLAC: %w", err)
	}

	info := stream.Info
	format := audio.Format{
		SampleRate: int(info.SampleRate),
		Channels:   int(info.NChannels),
	}
	durationMs := audio.MillisFor(int64(info.NSamples), format.SampleRate)

	md := flacMetadata(stream)
	if md.Title == "" {
		md.Title = titleFromPath(path)
	}

	slog.Debug("loaded FLAC", "title", md.Title, "sample_rate", format.SampleRate,
		"channels", format.Channels, "bit_depth", info.BitsPerSample)

	r := &flacReader{
		file:     f,
		stream:   stream,
		channels: format.Channels,
		bitDepth: int(info.BitsPerSample),
	}
	return newFileTune(r, format, durationMs, md), nil
}

// flacMetadata extracts tags from the Vorbis comment block
func flacMetadata(stream *flac.Stream) Metadata {
	var md Metadata
	for _, block := range stream.Blocks {
		comment, ok := block.Body.(*meta.VorbisComment)
		if !ok {
			continue
		}
		for _, tag := range comment.Tags {
			switch strings.ToUpper(tag[0]) {
			case "TITLE":
				md.Title = tag[1]
			case "ARTIST":
				md.Author = tag[1]
			case "DATE", "ALBUM":
				if md.Released == "" {
					md.Released = tag[1]
				}
			}
		}
	}
	return md
}

func (r *flacReader) readFrames(buf []int16, frames int) (int, error) {
	got := 0
	for got < frames {
		if r.current == nil || r.pos >= int(r.current.BlockSize) {
			fr, err := r.stream.ParseNext()
			if err != nil {
				return got, err
			}
			r.current = fr
			r.pos = 0
		}

		for ; r.pos < int(r.current.BlockSize) && got < frames; r.pos++ {
			for ch := 0; ch < r.channels; ch++ {
				sample := r.current.Subframes[ch].Samples[r.pos]
				buf[got*r.channels+ch] = audio.ScaleToInt16(sample, r.bitDepth)
			}
			got++
		}
	}
	return got, nil
}

func (r *flacReader) rewind() error {
	if _, err := r.file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek to start: %w", err)
	}
	stream, err := flac.New(r.file)
	if err != nil {
		return fmt.Errorf("failed to create new stream: %w", err)
	}
	r.stream = stream
	r.current = nil
	r.pos = 0
	return nil
}

func (r *flacReader) close() error {
	return r.file.Close()
}

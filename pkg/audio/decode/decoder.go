// ABOUTME: Source and Tune contracts plus the extension-based opener
// ABOUTME: Common interface for all tune decoders
package decode

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

var (
	// ErrUnsupportedFormat is returned for files no decoder understands
	ErrUnsupportedFormat = errors.New("unsupported tune format")
	// ErrNoSubsong is returned when selecting a subsong the tune does not have
	ErrNoSubsong = errors.New("no such subsong")
)

// Source fills PCM buffers on demand.
//
// Fill must write exactly frames frames of interleaved samples into buf or
// return false. It must not block for an unbounded time.
type Source interface {
	Fill(buf []int16, frames int) bool
}

// Metadata describes a tune
type Metadata struct {
	Title    string
	Author   string
	Released string
	LengthMs int64
}

// Tune is a decoded tune: a Source plus the controls a player needs
type Tune interface {
	Source

	// Format returns the format Fill produces
	Format() audio.Format
	// DurationMs returns the length of the current subsong, 0 if unknown
	DurationMs() int64
	Metadata() Metadata
	Subsongs() int
	SelectSubsong(n int) error
	// Rewind restarts the current subsong from its beginning
	Rewind() error
	Close() error
}

// Config holds decoder settings shared by all formats
type Config struct {
	// SampleRate is the rate generated tunes are rendered at
	SampleRate int
	// DefaultSongLengthMs is used when a tune does not know its length
	DefaultSongLengthMs int64
}

// Open opens a tune file, choosing the decoder by extension
func Open(path string, cfg Config) (Tune, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("tune file not found: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return OpenMP3(path)
	case ".flac":
		return OpenFLAC(path)
	case ".wav", ".wave":
		return OpenWAV(path)
	case ".opus", ".ogg":
		return OpenOpus(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported: .mp3, .flac, .wav, .opus)", ErrUnsupportedFormat, ext)
	}
}

// titleFromPath uses the filename stem as a title
func titleFromPath(path string) string {
	filename := filepath.Base(path)
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}

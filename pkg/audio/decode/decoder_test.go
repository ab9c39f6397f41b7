// ABOUTME: Tests for tune opening
// ABOUTME: Tests extension dispatch and error reporting for bad input
package decode

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestOpenUnsupportedExtension(t *testing.T) {
	path := writeFile(t, "song.xm", []byte("not a tracker module"))

	_, err := Open(path, Config{})
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mp3"), Config{})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected wrapped not-exist error, got %v", err)
	}
}

func TestOpenCorruptFiles(t *testing.T) {
	garbage := []byte("this is definitely not audio data, just some text padding it out")

	tests := []struct {
		name string
		file string
	}{
		{"mp3", "bad.mp3"},
		{"flac", "bad.flac"},
		{"wav", "bad.wav"},
		{"opus", "bad.opus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, garbage)
			tune, err := Open(path, Config{})
			if err == nil {
				tune.Close()
				t.Fatal("expected error for corrupt file, got nil")
			}
		})
	}
}

func TestTitleFromPath(t *testing.T) {
	if got := titleFromPath("/music/Some Song.flac"); got != "Some Song" {
		t.Errorf("expected %q, got %q", "Some Song", got)
	}
}

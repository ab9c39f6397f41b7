// ABOUTME: Tune decoding package for multiple codec support
// ABOUTME: Provides the Source/Tune contracts and file-backed implementations
// Package decode turns tune files into interleaved 16-bit PCM on demand.
//
// Supports: MP3, FLAC, WAV, Ogg Opus and a built-in tone generator.
//
// Every tune implements Source, the single operation the audio sink and the
// pre-renderer pull from. Tunes whose native format differs from the
// negotiated stream format are wrapped with Conform.
//
// Example:
//
//	tune, err := decode.Open("song.flac", decode.Config{})
//	tune = decode.Conform(tune, 44100, 2)
//	ok := tune.Fill(buf, 512)
package decode

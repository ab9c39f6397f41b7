// ABOUTME: Audio encoder package for writing rendered PCM to files
// ABOUTME: Provides the Encoder interface and a WAV implementation
// Package encode writes interleaved 16-bit PCM to container formats.
//
// Supports: WAV (16-bit PCM)
//
// Example:
//
//	enc, err := encode.NewWAV(file, audio.Format{SampleRate: 44100, Channels: 2})
//	err = enc.Write(samples)
//	err = enc.Close()
package encode

// ABOUTME: Audio fundamentals package providing core types and utilities
// ABOUTME: Defines Format and frame, duration and sample conversion helpers
// Package audio provides the fundamental PCM types shared by the player.
//
// Everything downstream of the decoders works on signed 16-bit interleaved
// samples. Durations are expressed in milliseconds and positions in frames.
//
// Example:
//
//	format := audio.Format{SampleRate: 44100, Channels: 2}
//	frames := audio.FramesFor(1500, format.SampleRate) // 66150
//	bytes := frames * int64(format.FrameBytes())
package audio

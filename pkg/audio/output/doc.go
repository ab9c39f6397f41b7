// ABOUTME: Audio output package for real-time playback
// ABOUTME: Provides the Sink, its stream sessions and the pluggable backends
// Package output plays audio pulled from a decode.Source.
//
// A Sink owns one real-time stream at a time. Backends (oto, malgo, beep,
// portaudio, null) call the sink's render function on their own thread;
// that path never blocks, never logs and does not allocate once warm.
// Everything it reads from other goroutines (source, volume, widener,
// visualization buffer) is published through atomics.
//
// Example:
//
//	sink := output.NewSink()
//	err := sink.Open(output.DefaultAudioConfig())
//	err = sink.SetSource(tune)
//	err = sink.Start()
package output

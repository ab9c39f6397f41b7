// ABOUTME: Playback control package
// ABOUTME: Provides the Controller state machine, seeking and reconfiguration
// Package playback drives a tune through the playback state machine.
//
// A Controller owns the audio sink, the live tune and an optional
// pre-renderer. Every command runs on the goroutine that owns the
// controller. Seeks run on a worker goroutine and are finalized by Poll or
// WaitSeek on the owning goroutine, which is also the only place the audio
// stream is started.
//
// Basic usage:
//
//	c := playback.New(playback.WithLogger(logger))
//	if err := c.Init(playback.DefaultConfig()); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	if err := c.Load("song.flac", 0); err != nil {
//		log.Fatal(err)
//	}
//	c.SeekTo(30_000)
//	c.WaitSeek(ctx)
package playback

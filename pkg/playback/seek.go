// ABOUTME: Seek orchestration
// ABOUTME: Runs seeks on a worker goroutine and finalizes them on the owning goroutine
package playback

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
)

// seekChunkFrames is how many frames the live seek decodes per step
const seekChunkFrames = 4096

// seekOperation is one SeekTo call. The worker owns the tune or the
// pre-renderer until done is closed.
type seekOperation struct {
	abort     atomic.Bool
	currentMs atomic.Int64
	// frames is the position the worker has reached
	frames atomic.Int64

	targetMs int64
	resumeTo State
	instant  bool
	done     chan struct{}
}

// SeekTo starts seeking to targetMs. A running seek is aborted first. The
// controller stays Seeking until Poll, WaitSeek or AbortSeek observes the
// worker's end.
func (c *Controller) SeekTo(targetMs int64) error {
	c.mustInit()

	state := c.State()
	if state == Stopped || state == Undefined {
		return fmt.Errorf("%w: cannot seek while %s", ErrInvalidState, state)
	}

	resume := state
	if c.seek != nil {
		resume = c.seek.resumeTo
		c.joinSeek(true)
	}
	if resume != Playing && resume != Paused {
		panic(fmt.Sprintf("playback: seek would resume to %s", resume))
	}

	if err := c.sink.Stop(); err != nil {
		c.rewind()
		c.setState(Stopped)
		return &OutputError{Op: "seek", Err: err}
	}

	targetMs = max(0, targetMs)
	rate := c.cfg.Audio.SampleRate
	start := c.positionFrames()
	target := audio.FramesFor(targetMs, rate)

	op := &seekOperation{
		targetMs: targetMs,
		resumeTo: resume,
		done:     make(chan struct{}),
	}
	op.frames.Store(start)
	if target >= start {
		op.currentMs.Store(audio.MillisFor(start, rate))
	}

	if c.cfg.Decoder.InstantSeek && c.pre.Primed() {
		if !c.usingPre {
			c.livePos = start
			c.pre.SetPositionFrames(start)
			c.installSource(c.pre, true)
		}
		op.instant = true
	} else {
		if c.usingPre {
			c.installSource(c.live, false)
		} else {
			c.livePos = start
		}
	}

	c.seek = op
	c.setState(Seeking)
	c.logger.Debug("seek started",
		"target_ms", targetMs,
		"from_ms", audio.MillisFor(start, rate),
		"instant", op.instant,
		"resume", resume)

	if op.instant {
		go c.runInstantSeek(op)
	} else {
		go c.runLiveSeek(op, c.live, c.livePos, target)
	}
	return nil
}

// Poll finalizes a finished seek and handles the end of the tune. The UI
// calls it on every refresh.
func (c *Controller) Poll() error {
	c.mustInit()

	if op := c.seek; op != nil {
		select {
		case <-op.done:
		default:
			return nil
		}
		return c.finishSeek(c.joinSeek(false))
	}

	if c.State() == Playing && c.sink.Ended() {
		return c.handleEnd()
	}
	return nil
}

// WaitSeek blocks until the running seek finishes and finalizes it. It
// returns immediately when no seek is running.
func (c *Controller) WaitSeek(ctx context.Context) error {
	c.mustInit()

	op := c.seek
	if op == nil {
		return nil
	}
	select {
	case <-op.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return c.finishSeek(c.joinSeek(false))
}

// AbortSeek stops the running seek where it is and restores the state the
// controller had when the seek started. The worker has exited when it
// returns.
func (c *Controller) AbortSeek() error {
	c.mustInit()
	if c.seek == nil {
		return nil
	}
	return c.finishSeek(c.joinSeek(true))
}

// joinSeek waits for the worker and adopts the position it reached
func (c *Controller) joinSeek(abort bool) *seekOperation {
	op := c.seek
	if abort {
		op.abort.Store(true)
	}
	<-op.done
	c.seek = nil

	c.baseFrames = op.frames.Load()
	if !op.instant {
		c.livePos = c.baseFrames
	}
	c.sink.ResetFramesPlayed()
	c.sink.ResetEffects()

	c.logger.Debug("seek finished",
		"target_ms", op.targetMs,
		"position_ms", audio.MillisFor(c.baseFrames, c.cfg.Audio.SampleRate),
		"aborted", op.abort.Load())
	return op
}

func (c *Controller) finishSeek(op *seekOperation) error {
	resume := op.resumeTo
	if resume != Playing && resume != Paused {
		panic(fmt.Sprintf("playback: seek finished with resume state %s", resume))
	}
	if resume == Playing {
		return c.start()
	}
	c.setState(Paused)
	return nil
}

// reporter wraps the user callback so every report updates the operation
func (c *Controller) reporter(op *seekOperation) SeekStatusCallback {
	user := c.onSeek
	return func(ms int64, done bool) bool {
		if ms > op.currentMs.Load() {
			op.currentMs.Store(ms)
		}
		if user != nil && user(ms, done) {
			op.abort.Store(true)
		}
		return op.abort.Load()
	}
}

// runLiveSeek decodes and discards audio until the tune reaches target.
// Backward seeks rewind first.
func (c *Controller) runLiveSeek(op *seekOperation, tune decode.Tune, from, target int64) {
	defer close(op.done)

	report := c.reporter(op)
	format := tune.Format()
	pos := from

	if target < pos {
		if err := tune.Rewind(); err != nil {
			c.logger.Warn("failed to rewind for seek", "error", err)
			report(audio.MillisFor(pos, format.SampleRate), true)
			return
		}
		pos = 0
		op.frames.Store(0)
	}

	scratch := make([]int16, seekChunkFrames*format.Channels)
	for pos < target && !op.abort.Load() {
		frames := int(min(seekChunkFrames, target-pos))
		if !tune.Fill(scratch[:frames*format.Channels], frames) {
			break
		}
		pos += int64(frames)
		op.frames.Store(pos)
		if report(audio.MillisFor(pos, format.SampleRate), false) {
			break
		}
	}
	report(audio.MillisFor(pos, format.SampleRate), true)
}

// runInstantSeek moves the pre-renderer's cursor, waiting for the render
// when the target is not there yet
func (c *Controller) runInstantSeek(op *seekOperation) {
	defer close(op.done)

	report := c.reporter(op)
	if !c.pre.Seek(op.targetMs, report) {
		report(audio.MillisFor(c.pre.PositionFrames(), c.pre.Format().SampleRate), true)
	}
	op.frames.Store(c.pre.PositionFrames())
}

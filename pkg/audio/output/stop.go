// ABOUTME: Device stop requested from inside an audio callback
// ABOUTME: Runs the stop on its own goroutine and lets Start/Stop/Close wait for it
package output

import "sync/atomic"

// pendingStop tracks a stop that was started off the audio callback.
// Backends cannot stop their device from inside its own callback, so the
// callback hands the stop to a goroutine and later calls wait for it.
type pendingStop struct {
	done atomic.Pointer[stopResult]
}

type stopResult struct {
	done chan struct{}
	err  error
}

// start runs stop on a new goroutine. Callers make sure only one stop is
// started per playback, usually with a CompareAndSwap on their stopping flag.
func (p *pendingStop) start(stop func() error) {
	r := &stopResult{done: make(chan struct{})}
	p.done.Store(r)
	go func() {
		defer close(r.done)
		r.err = stop()
	}()
}

// wait blocks until a started stop has finished and returns its error.
// It returns false when no stop was pending.
func (p *pendingStop) wait() (bool, error) {
	r := p.done.Swap(nil)
	if r == nil {
		return false, nil
	}
	<-r.done
	return true, r.err
}

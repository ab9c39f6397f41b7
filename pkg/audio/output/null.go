// ABOUTME: Null audio backend driven by a ticker
// ABOUTME: Renders into a discarded buffer for headless runs and tests
package output

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// Null is a backend that pulls audio on a timer and throws it away
type Null struct {
	interval time.Duration
	cfg      StreamConfig
	render   RenderFunc
	buf      []int16

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}

	renders atomic.Int64
}

// NewNull creates a null backend. With interval 0 it paces itself in real
// time; tests pass a short interval to run faster than real time.
func NewNull(interval time.Duration) *Null {
	return &Null{interval: interval}
}

func (n *Null) Name() string { return "null" }

func (n *Null) Open(cfg StreamConfig, render RenderFunc) error {
	if render == nil {
		return errors.New("render function is required")
	}
	n.cfg = cfg
	n.render = render
	n.buf = make([]int16, cfg.BufferFrames*cfg.Channels)

	if n.interval <= 0 {
		n.interval = time.Duration(cfg.BufferFrames) * time.Second / time.Duration(cfg.SampleRate)
	}
	return nil
}

func (n *Null) Start() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.render == nil {
		return ErrNotOpen
	}
	if n.done != nil {
		select {
		case <-n.done:
		default:
			return nil
		}
	}

	n.stop = make(chan struct{})
	n.done = make(chan struct{})
	go n.loop(n.stop, n.done)
	return nil
}

func (n *Null) loop(stop, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(n.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			n.renders.Add(1)
			if !n.render(n.buf) {
				return
			}
		}
	}
}

func (n *Null) Stop() error {
	n.mu.Lock()
	stop, done := n.stop, n.done
	n.stop, n.done = nil, nil
	n.mu.Unlock()

	if done == nil {
		return nil
	}
	close(stop)
	<-done
	return nil
}

func (n *Null) Close() error {
	return n.Stop()
}

// Renders returns how many quanta have been rendered
func (n *Null) Renders() int64 {
	return n.renders.Load()
}

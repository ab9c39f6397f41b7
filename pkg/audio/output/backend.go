// ABOUTME: Real-time backend contract and registry
// ABOUTME: Maps backend names to constructors for the audio subsystems we support
package output

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownBackend is returned for backend names that are not registered
var ErrUnknownBackend = errors.New("unknown audio backend")

// RenderFunc fills out with interleaved samples. It runs on the backend's
// real-time thread. Returning false asks the backend to stop the stream;
// out has already been silenced in that case.
type RenderFunc func(out []int16) bool

// Backend is a real-time audio subsystem
type Backend interface {
	// Open prepares a stream that pulls audio from render
	Open(cfg StreamConfig, render RenderFunc) error
	// Start begins invoking render
	Start() error
	// Stop halts the stream. No render call is in flight once it returns.
	// It is a no-op on a stopped stream.
	Stop() error
	// Close releases the stream
	Close() error
	Name() string
}

// BackendFactory constructs a backend by name
type BackendFactory func(name string) (Backend, error)

var backends = map[string]func() Backend{
	"oto":       func() Backend { return NewOto() },
	"malgo":     func() Backend { return NewMalgo() },
	"beep":      func() Backend { return NewBeep() },
	"portaudio": func() Backend { return NewPortAudio() },
	"null":      func() Backend { return NewNull(0) },
}

// Backends returns the registered backend names
func Backends() []string {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend creates a registered backend
func NewBackend(name string) (Backend, error) {
	ctor, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, name)
	}
	return ctor(), nil
}

// ABOUTME: Audio sink that owns the real-time stream
// ABOUTME: Pulls from the active source, applies widening, visualization and volume
package output

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/buffer"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/effect"
)

var (
	// ErrNotOpen is returned when the sink has no open stream
	ErrNotOpen = errors.New("audio stream not open")
	// ErrStreamRunning is returned for operations that need a stopped stream
	ErrStreamRunning = errors.New("audio stream is running")
)

// sourceRef lets the source be swapped with a single atomic store
type sourceRef struct {
	src decode.Source
}

// Sink owns one real-time audio stream.
//
// Thread assignment:
//   - Open, Start, Stop, Close, SetSource, SetWidener, SetVisualizationSize:
//     owning goroutine only
//   - render: backend thread only
//   - everything else: any goroutine
type Sink struct {
	logger     *slog.Logger
	newBackend BackendFactory

	mu      sync.Mutex
	backend Backend

	session atomic.Pointer[Session]
	source  atomic.Pointer[sourceRef]
	widener atomic.Pointer[effect.StereoWidener]
	vis     atomic.Pointer[buffer.DoubleBuffer]

	channels     atomic.Int32
	volume       atomic.Uint64 // float64 bits
	framesPlayed atomic.Int64
	running      atomic.Bool
	ended        atomic.Bool
}

// SinkOption configures a Sink
type SinkOption func(*Sink)

// WithLogger sets the sink's logger
func WithLogger(logger *slog.Logger) SinkOption {
	return func(s *Sink) {
		s.logger = logger
	}
}

// WithBackendFactory replaces the backend registry lookup
func WithBackendFactory(factory BackendFactory) SinkOption {
	return func(s *Sink) {
		s.newBackend = factory
	}
}

// NewSink creates a sink with no open stream
func NewSink(opts ...SinkOption) *Sink {
	s := &Sink{
		logger:     slog.Default(),
		newBackend: NewBackend,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.volume.Store(math.Float64bits(1.0))
	return s
}

// Open closes any current stream and opens a new one with cfg
func (s *Sink) Open(cfg AudioConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()

	backend, err := s.newBackend(cfg.Backend)
	if err != nil {
		return err
	}
	if err := backend.Open(cfg.stream(), s.render); err != nil {
		return fmt.Errorf("failed to open %s stream: %w", backend.Name(), err)
	}

	session := newSession(cfg, backend.Name())
	s.backend = backend
	s.channels.Store(int32(cfg.Channels))
	s.session.Store(session)
	s.SetVolume(cfg.Volume)
	s.ended.Store(false)

	s.logger.Info("audio stream opened",
		"session", session.ID,
		"backend", backend.Name(),
		"sample_rate", cfg.SampleRate,
		"channels", cfg.Channels,
		"buffer_frames", cfg.BufferFrames,
		"low_latency", cfg.LowLatency)
	return nil
}

// Start starts the stream. Starting a running stream is a no-op.
func (s *Sink) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.backend == nil {
		return ErrNotOpen
	}
	if s.running.Load() {
		return nil
	}

	s.ended.Store(false)
	s.running.Store(true)
	if err := s.backend.Start(); err != nil {
		s.running.Store(false)
		return fmt.Errorf("failed to start %s stream: %w", s.backend.Name(), err)
	}
	return nil
}

// Stop stops the stream and waits until no render call is in flight
func (s *Sink) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked()
}

func (s *Sink) stopLocked() error {
	if s.backend == nil || !s.running.Load() {
		return nil
	}
	err := s.backend.Stop()
	s.running.Store(false)
	if err != nil {
		return fmt.Errorf("failed to stop %s stream: %w", s.backend.Name(), err)
	}
	return nil
}

// Close stops and releases the stream and ends its session
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeLocked()
}

func (s *Sink) closeLocked() error {
	if s.backend == nil {
		return nil
	}
	stopErr := s.stopLocked()
	closeErr := s.backend.Close()

	if session := s.session.Load(); session != nil {
		s.logger.Info("audio stream closed", "session", session.ID)
	}
	s.backend = nil
	s.session.Store(nil)

	if stopErr != nil {
		return stopErr
	}
	return closeErr
}

// SetSource swaps the source the stream pulls from. The stream must be stopped.
func (s *Sink) SetSource(src decode.Source) error {
	if s.running.Load() {
		return ErrStreamRunning
	}
	if src == nil {
		s.source.Store(nil)
		return nil
	}
	s.source.Store(&sourceRef{src: src})
	s.ended.Store(false)
	return nil
}

// Source returns the active source, or nil
func (s *Sink) Source() decode.Source {
	if ref := s.source.Load(); ref != nil {
		return ref.src
	}
	return nil
}

// SetVolume sets the volume, clamped to [0,1]
func (s *Sink) SetVolume(volume float64) {
	volume = max(0, min(1, volume))
	s.volume.Store(math.Float64bits(volume))
}

// Volume returns the current volume
func (s *Sink) Volume() float64 {
	return math.Float64frombits(s.volume.Load())
}

// SetWidener installs a stereo widener, or removes it when w is nil
func (s *Sink) SetWidener(w *effect.StereoWidener) {
	s.widener.Store(w)
}

// Widener returns the installed widener, or nil
func (s *Sink) Widener() *effect.StereoWidener {
	return s.widener.Load()
}

// ResetEffects clears effect history after a discontinuity. The stream
// must be stopped.
func (s *Sink) ResetEffects() {
	if w := s.widener.Load(); w != nil {
		w.Reset()
	}
}

// SetVisualizationSize enables a visualization buffer holding samples
// samples per side. 0 disables it.
func (s *Sink) SetVisualizationSize(samples int) {
	if samples <= 0 {
		s.vis.Store(nil)
		return
	}
	if cur := s.vis.Load(); cur != nil && cur.Len() == samples {
		return
	}
	s.vis.Store(buffer.NewDoubleBuffer(samples))
}

// ReadVisualization copies the latest completed batch of samples into out.
// It returns 0 when visualization is disabled or not primed yet.
func (s *Sink) ReadVisualization(out []int16) int {
	if v := s.vis.Load(); v != nil {
		return v.Read(out)
	}
	return 0
}

// FramesPlayed returns the number of frames rendered since the last reset
func (s *Sink) FramesPlayed() int64 {
	return s.framesPlayed.Load()
}

// ResetFramesPlayed zeroes the played frame counter
func (s *Sink) ResetFramesPlayed() {
	s.framesPlayed.Store(0)
}

// Ended reports whether the source ran out since the stream was started
func (s *Sink) Ended() bool {
	return s.ended.Load()
}

// Running reports whether the stream is started and has not ended
func (s *Sink) Running() bool {
	return s.running.Load() && !s.ended.Load()
}

// Session returns the current stream session, or nil when closed
func (s *Sink) Session() *Session {
	return s.session.Load()
}

// render is the real-time callback
func (s *Sink) render(out []int16) bool {
	ch := int(s.channels.Load())
	if ch <= 0 {
		clear(out)
		return false
	}
	frames := len(out) / ch

	ref := s.source.Load()
	if ref == nil || !ref.src.Fill(out, frames) {
		clear(out)
		s.ended.Store(true)
		return false
	}

	if w := s.widener.Load(); w != nil && ch == 2 {
		w.Apply(out, frames)
	}

	if v := s.vis.Load(); v != nil {
		v.Write(out[:frames*ch])
	}

	if volume := float32(s.Volume()); volume < 1 {
		for i := range out {
			out[i] = audio.ClampFloat16(float32(out[i]) * volume)
		}
	}

	s.framesPlayed.Add(int64(frames))
	return true
}

// ABOUTME: Playback controller state machine
// ABOUTME: Owns the sink, the live tune and the pre-renderer and switches between them
package playback

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/decode"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/effect"
	"github.com/Resonate-Protocol/tuneplay/pkg/audio/output"
	"github.com/Resonate-Protocol/tuneplay/pkg/prerender"
)

// Loader opens a tune from a path
type Loader func(path string, cfg decode.Config) (decode.Tune, error)

// SeekStatusCallback receives seek progress from the seek worker goroutine.
// Returning true aborts the seek.
type SeekStatusCallback = prerender.SeekStatusCallback

// Controller is the playback state machine. See the package documentation
// for the goroutine rules.
type Controller struct {
	logger     *slog.Logger
	load       Loader
	newBackend output.BackendFactory
	onSeek     SeekStatusCallback

	state atomic.Int32
	cfg   Config

	sink    *output.Sink
	pre     *prerender.PreRenderer
	widener *effect.StereoWidener

	// tune is the tune as opened, live is tune conformed to the stream format
	tune    decode.Tune
	live    decode.Tune
	path    string
	subsong int

	preTune  decode.Tune
	usingPre bool

	// baseFrames is the position when the sink's frame counter was last reset
	baseFrames int64
	// livePos is how many frames the live tune has produced
	livePos int64

	seek *seekOperation
}

// Option configures a Controller
type Option func(*Controller)

// WithLogger sets the controller's logger
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithLoader replaces decode.Open for Load
func WithLoader(load Loader) Option {
	return func(c *Controller) {
		c.load = load
	}
}

// WithBackendFactory replaces the audio backend registry
func WithBackendFactory(factory output.BackendFactory) Option {
	return func(c *Controller) {
		c.newBackend = factory
	}
}

// WithSeekCallback forwards seek progress to cb
func WithSeekCallback(cb SeekStatusCallback) Option {
	return func(c *Controller) {
		c.onSeek = cb
	}
}

// New creates an uninitialized controller
func New(opts ...Option) *Controller {
	c := &Controller{
		logger: slog.Default(),
		load:   decode.Open,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Init opens the audio stream and moves the controller to Stopped
func (c *Controller) Init(cfg Config) error {
	if c.State() != Undefined {
		return fmt.Errorf("%w: controller already initialized", ErrInvalidState)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	widener, err := newWidener(cfg)
	if err != nil {
		return err
	}

	opts := []output.SinkOption{output.WithLogger(c.logger.With("component", "sink"))}
	if c.newBackend != nil {
		opts = append(opts, output.WithBackendFactory(c.newBackend))
	}
	sink := output.NewSink(opts...)
	if err := sink.Open(cfg.Audio); err != nil {
		return &OutputError{Op: "open", Err: err}
	}
	sink.SetWidener(widener)

	c.sink = sink
	c.widener = widener
	c.cfg = cfg
	c.pre = prerender.New(c.logger.With("component", "prerender"))
	c.setState(Stopped)

	c.logger.Info("playback initialized",
		"backend", cfg.Audio.Backend,
		"sample_rate", cfg.Audio.SampleRate,
		"channels", cfg.Audio.Channels,
		"instant_seek", cfg.Decoder.InstantSeek,
		"widening", cfg.Decoder.Widening.Enabled)
	return nil
}

// Close stops playback, releases the tune and closes the stream
func (c *Controller) Close() error {
	if c.State() == Undefined {
		return nil
	}
	c.Stop()
	c.unload()
	err := c.sink.Close()
	c.setState(Undefined)
	return err
}

func newWidener(cfg Config) (*effect.StereoWidener, error) {
	if !cfg.Decoder.Widening.Enabled {
		return nil, nil
	}
	w, err := effect.NewStereoWidener(cfg.widenerConfig())
	if err != nil {
		return nil, &ConfigError{Field: "decoder.widening", Message: err.Error(), Err: err}
	}
	return w, nil
}

func (c *Controller) mustInit() {
	if c.State() == Undefined {
		panic(ErrNotInitialized)
	}
}

// State returns the current state. It is safe to call from any goroutine.
func (c *Controller) State() State {
	return State(c.state.Load())
}

func (c *Controller) setState(s State) {
	if old := State(c.state.Swap(int32(s))); old != s {
		c.logger.Debug("state changed", "from", old, "to", s)
	}
}

// Load opens path, selects subsong and starts playing it
func (c *Controller) Load(path string, subsong int) error {
	c.mustInit()

	t, err := c.load(path, c.cfg.decodeConfig())
	if err != nil {
		return &InputError{Path: path, Err: err}
	}
	if subsong > 0 {
		if err := t.SelectSubsong(subsong); err != nil {
			t.Close()
			return &InputError{Path: path, Err: err}
		}
	}
	return c.play(t, path, subsong)
}

// Play starts playing t. The controller takes ownership of t.
func (c *Controller) Play(t decode.Tune) error {
	c.mustInit()
	if t == nil {
		return ErrNoTune
	}
	return c.play(t, "", 0)
}

func (c *Controller) play(t decode.Tune, path string, subsong int) error {
	c.Stop()
	c.unload()

	c.tune = t
	c.path = path
	c.subsong = subsong
	c.live = decode.Conform(t, c.cfg.Audio.SampleRate, c.cfg.Audio.Channels)
	c.installSource(c.live, false)
	c.resetPosition()

	meta := t.Metadata()
	c.logger.Info("tune loaded",
		"title", meta.Title,
		"author", meta.Author,
		"duration_ms", c.DurationMs(),
		"subsong", subsong,
		"native_rate", t.Format().SampleRate)

	if c.cfg.Decoder.InstantSeek {
		if err := c.startPreRender(); err != nil {
			c.logger.Warn("instant seek unavailable", "error", err)
		}
	}
	return c.start()
}

// Replay restarts the current tune from the beginning
func (c *Controller) Replay() error {
	c.mustInit()
	if c.tune == nil {
		return ErrNoTune
	}
	c.Stop()
	c.rewind()
	return c.start()
}

// SwitchSubsong starts playing subsong n of the current tune
func (c *Controller) SwitchSubsong(n int) error {
	c.mustInit()
	if c.tune == nil {
		return ErrNoTune
	}
	c.Stop()

	if err := c.live.SelectSubsong(n); err != nil {
		return &InputError{Path: c.path, Err: err}
	}
	c.subsong = n
	c.destroyPreRender()
	c.rewind()

	if c.cfg.Decoder.InstantSeek {
		if err := c.startPreRender(); err != nil {
			c.logger.Warn("instant seek unavailable", "error", err)
		}
	}
	return c.start()
}

// Pause pauses playback. During a seek it makes the seek resume paused.
func (c *Controller) Pause() error {
	c.mustInit()
	switch c.State() {
	case Playing:
		if err := c.sink.Stop(); err != nil {
			return &OutputError{Op: "pause", Err: err}
		}
		c.setState(Paused)
	case Paused:
	case Seeking:
		c.seek.resumeTo = Paused
	default:
		return fmt.Errorf("%w: cannot pause while %s", ErrInvalidState, c.State())
	}
	return nil
}

// Resume resumes paused playback. During a seek it makes the seek resume playing.
func (c *Controller) Resume() error {
	c.mustInit()
	switch c.State() {
	case Paused:
		return c.start()
	case Playing:
	case Seeking:
		c.seek.resumeTo = Playing
	default:
		return fmt.Errorf("%w: cannot resume while %s", ErrInvalidState, c.State())
	}
	return nil
}

// TogglePause switches between playing and paused
func (c *Controller) TogglePause() error {
	c.mustInit()
	switch c.State() {
	case Playing:
		return c.Pause()
	case Paused:
		return c.Resume()
	case Seeking:
		if c.seek.resumeTo == Playing {
			c.seek.resumeTo = Paused
		} else {
			c.seek.resumeTo = Playing
		}
		return nil
	default:
		return fmt.Errorf("%w: nothing to pause", ErrInvalidState)
	}
}

// Stop stops playback and rewinds the tune. Stopping a stopped controller
// does nothing.
func (c *Controller) Stop() error {
	c.mustInit()
	if c.State() == Stopped {
		return nil
	}
	if c.seek != nil {
		c.joinSeek(true)
	}

	var err error
	if serr := c.sink.Stop(); serr != nil {
		err = &OutputError{Op: "stop", Err: serr}
	}
	c.rewind()
	c.setState(Stopped)
	return err
}

func (c *Controller) start() error {
	if err := c.sink.Start(); err != nil {
		c.setState(Stopped)
		return &OutputError{Op: "start", Err: err}
	}
	c.setState(Playing)
	return nil
}

// rewind moves every source back to the start and installs the one
// playback should use. The stream must be stopped.
func (c *Controller) rewind() {
	if c.live == nil {
		return
	}
	if err := c.live.Rewind(); err != nil {
		c.logger.Warn("failed to rewind tune", "error", err)
	}
	if c.cfg.Decoder.InstantSeek && c.pre.Primed() {
		c.pre.Rewind()
		c.installSource(c.pre, true)
	} else {
		c.installSource(c.live, false)
	}
	c.resetPosition()
}

func (c *Controller) resetPosition() {
	c.baseFrames = 0
	c.livePos = 0
	c.sink.ResetFramesPlayed()
	c.sink.ResetEffects()
}

// installSource points the stream at src. The stream must be stopped and
// src must render the stream's format.
func (c *Controller) installSource(src decode.Source, pre bool) {
	var format audio.Format
	if pre {
		format = c.pre.Format()
	} else {
		format = c.live.Format()
	}

	session := c.sink.Session()
	if session == nil {
		panic("playback: source installed without an open stream")
	}
	if format.SampleRate != session.Config.SampleRate || format.Channels != session.Config.Channels {
		panic(fmt.Sprintf("playback: source renders %d Hz/%d ch but the stream runs at %d Hz/%d ch",
			format.SampleRate, format.Channels, session.Config.SampleRate, session.Config.Channels))
	}
	if err := c.sink.SetSource(src); err != nil {
		panic(fmt.Sprintf("playback: source swapped on a running stream: %v", err))
	}
	c.usingPre = pre
}

func (c *Controller) unload() {
	c.destroyPreRender()
	if c.tune != nil {
		if err := c.tune.Close(); err != nil {
			c.logger.Warn("failed to close tune", "error", err)
		}
	}
	c.tune = nil
	c.live = nil
	c.path = ""
	c.subsong = 0
	c.sink.SetSource(nil)
}

// handleEnd runs on the owning goroutine once the sink ran out of audio
func (c *Controller) handleEnd() error {
	c.logger.Info("tune ended", "title", c.Metadata().Title, "loop", c.cfg.Decoder.Loop)
	if c.cfg.Decoder.Loop {
		return c.Replay()
	}
	return c.Stop()
}

func (c *Controller) positionFrames() int64 {
	return c.baseFrames + c.sink.FramesPlayed()
}

// TimeMs returns the playback position. During a seek it returns the
// seek's progress.
func (c *Controller) TimeMs() int64 {
	if c.State() == Undefined {
		return 0
	}
	if op := c.seek; op != nil {
		return op.currentMs.Load()
	}
	return audio.MillisFor(c.positionFrames(), c.cfg.Audio.SampleRate)
}

// DurationMs returns the tune's length, or the default song length when
// the tune does not know it. It returns 0 without a tune.
func (c *Controller) DurationMs() int64 {
	if c.tune == nil {
		return 0
	}
	if d := c.tune.DurationMs(); d > 0 {
		return d
	}
	if c.cfg.Decoder.DefaultSongLengthMs > 0 {
		return c.cfg.Decoder.DefaultSongLengthMs
	}
	return DefaultSongLengthMs
}

// Metadata returns the current tune's metadata
func (c *Controller) Metadata() decode.Metadata {
	if c.tune == nil {
		return decode.Metadata{}
	}
	return c.tune.Metadata()
}

// Subsong returns the selected subsong
func (c *Controller) Subsong() int {
	return c.subsong
}

// Subsongs returns the number of subsongs of the current tune
func (c *Controller) Subsongs() int {
	if c.tune == nil {
		return 0
	}
	return c.tune.Subsongs()
}

// Config returns the applied configuration
func (c *Controller) Config() Config {
	return c.cfg
}

// SetVolume changes the volume without touching the stream
func (c *Controller) SetVolume(volume float64) {
	c.mustInit()
	c.sink.SetVolume(volume)
	c.cfg.Audio.Volume = c.sink.Volume()
}

// SetVisualizationSize enables visualization with samples per batch. 0 disables it.
func (c *Controller) SetVisualizationSize(samples int) {
	c.mustInit()
	c.sink.SetVisualizationSize(samples)
}

// ReadVisualization copies the latest visualization batch into out
func (c *Controller) ReadVisualization(out []int16) int {
	if c.sink == nil {
		return 0
	}
	return c.sink.ReadVisualization(out)
}

// Session returns the current audio stream session
func (c *Controller) Session() *output.Session {
	if c.sink == nil {
		return nil
	}
	return c.sink.Session()
}

// Snapshot is a point-in-time view of the controller for display
type Snapshot struct {
	State             State
	TimeMs            int64
	DurationMs        int64
	SeekTargetMs      int64
	PreRenderProgress float64
	InstantSeek       bool
	Widening          bool
	Loop              bool
	Volume            float64
	Subsong           int
	Subsongs          int
	Metadata          decode.Metadata
	SessionID         string
	Backend           string
}

// Status returns a snapshot of the controller
func (c *Controller) Status() Snapshot {
	s := Snapshot{
		State:             c.State(),
		TimeMs:            c.TimeMs(),
		DurationMs:        c.DurationMs(),
		PreRenderProgress: c.PreRenderProgress(),
		InstantSeek:       c.cfg.Decoder.InstantSeek,
		Widening:          c.cfg.Decoder.Widening.Enabled,
		Loop:              c.cfg.Decoder.Loop,
		Volume:            c.cfg.Audio.Volume,
		Subsong:           c.subsong,
		Subsongs:          c.Subsongs(),
		Metadata:          c.Metadata(),
	}
	if op := c.seek; op != nil {
		s.SeekTargetMs = op.targetMs
	}
	if session := c.Session(); session != nil {
		s.SessionID = session.ID
		s.Backend = session.Backend
	}
	return s
}


// ABOUTME: Malgo-based audio backend
// ABOUTME: Uses miniaudio via malgo with a data callback and device selection
package output

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/Resonate-Protocol/tuneplay/pkg/audio"
)

// Malgo backend implementation using malgo/miniaudio library
type Malgo struct {
	cfg      StreamConfig
	render   RenderFunc
	malgoCtx *malgo.AllocatedContext
	device   *malgo.Device
	devices  []malgo.DeviceInfo // keeps the selected device ID alive

	samples  []int16
	stopping atomic.Bool
	pending  pendingStop
}

// NewMalgo creates a new Malgo backend
func NewMalgo() *Malgo {
	return &Malgo{}
}

func (m *Malgo) Name() string { return "malgo" }

// Open initializes the context and the playback device
func (m *Malgo) Open(cfg StreamConfig, render RenderFunc) error {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize malgo context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Playback)
	deviceConfig.Playback.Format = malgo.FormatS16
	deviceConfig.Playback.Channels = uint32(cfg.Channels)
	deviceConfig.SampleRate = uint32(cfg.SampleRate)
	deviceConfig.PeriodSizeInFrames = uint32(cfg.BufferFrames)
	deviceConfig.Alsa.NoMMap = 1
	if cfg.LowLatency {
		deviceConfig.PerformanceProfile = malgo.LowLatency
	} else {
		deviceConfig.PerformanceProfile = malgo.Conservative
	}

	if cfg.Device != "" {
		infos, err := ctx.Devices(malgo.Playback)
		if err != nil {
			freeMalgoContext(ctx)
			return fmt.Errorf("failed to list playback devices: %w", err)
		}
		m.devices = infos

		found := false
		for i := range m.devices {
			if m.devices[i].Name() == cfg.Device {
				deviceConfig.Playback.DeviceID = m.devices[i].ID.Pointer()
				found = true
				break
			}
		}
		if !found {
			freeMalgoContext(ctx)
			return fmt.Errorf("playback device %q not found", cfg.Device)
		}
	}

	m.cfg = cfg
	m.render = render
	m.samples = make([]int16, cfg.BufferFrames*cfg.Channels)

	callbacks := malgo.DeviceCallbacks{
		Data: func(pOutput, pInput []byte, frameCount uint32) {
			m.dataCallback(pOutput, frameCount)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, deviceConfig, callbacks)
	if err != nil {
		freeMalgoContext(ctx)
		return fmt.Errorf("failed to initialize playback device: %w", err)
	}

	m.malgoCtx = ctx
	m.device = device
	return nil
}

// dataCallback is called by malgo to fill the audio output buffer
func (m *Malgo) dataCallback(pOutput []byte, frameCount uint32) {
	count := int(frameCount) * m.cfg.Channels
	if cap(m.samples) < count {
		m.samples = make([]int16, count)
	}
	samples := m.samples[:count]

	if m.stopping.Load() {
		clear(pOutput)
		return
	}

	if !m.render(samples) {
		clear(pOutput)
		// The device cannot be stopped from inside its own callback
		if m.stopping.CompareAndSwap(false, true) {
			m.pending.start(m.device.Stop)
		}
		return
	}
	audio.PutSamples(pOutput, samples)
}

func (m *Malgo) Start() error {
	if m.device == nil {
		return ErrNotOpen
	}
	// A stop left over from the end of the last playback would land after
	// the restart and silence it
	if _, err := m.pending.wait(); err != nil {
		slog.Warn("malgo device stop error", "error", err)
	}
	m.stopping.Store(false)
	if m.device.IsStarted() {
		return nil
	}
	if err := m.device.Start(); err != nil {
		return fmt.Errorf("failed to start device: %w", err)
	}
	return nil
}

func (m *Malgo) Stop() error {
	if m.device == nil {
		return nil
	}
	m.stopping.Store(true)
	if pending, err := m.pending.wait(); pending {
		return err
	}
	if !m.device.IsStarted() {
		return nil
	}
	return m.device.Stop()
}

// Close releases output resources
func (m *Malgo) Close() error {
	if m.device != nil {
		if err := m.Stop(); err != nil {
			slog.Warn("malgo device stop error", "error", err)
		}
		m.device.Uninit()
		m.device = nil
	}
	if m.malgoCtx != nil {
		freeMalgoContext(m.malgoCtx)
		m.malgoCtx = nil
	}
	m.devices = nil
	return nil
}

func freeMalgoContext(ctx *malgo.AllocatedContext) {
	if err := ctx.Uninit(); err != nil {
		slog.Warn("malgo context uninit error", "error", err)
	}
	ctx.Free()
}

// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program for the player UI
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Options configures the TUI
type Options struct {
	// Refresh is the poll interval. Zero uses 50ms.
	Refresh time.Duration
	// VisualizationSamples sizes the spectrum batch. Zero hides the spectrum.
	VisualizationSamples int
}

// NewModel creates a new TUI model driving player
func NewModel(player Player, opts Options) Model {
	m := Model{
		player:  player,
		refresh: opts.Refresh,
		status:  player.Status(),
	}
	if m.refresh <= 0 {
		m.refresh = defaultTick
	}
	if opts.VisualizationSamples > 0 {
		audio := player.Config().Audio
		m.spectrum = NewSpectrum(audio.SampleRate, audio.Channels)
		m.vis = make([]int16, opts.VisualizationSamples)
	}
	return m
}

// Run starts the TUI and blocks until the user quits
func Run(player Player, opts Options) error {
	p := tea.NewProgram(NewModel(player, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

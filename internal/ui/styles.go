// ABOUTME: Lip Gloss palette and styles for the player TUI
// ABOUTME: Uses ANSI colors so the UI follows the terminal theme
package ui

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder  = lipgloss.ANSIColor(8)
	colorTitle   = lipgloss.ANSIColor(10)
	colorText    = lipgloss.ANSIColor(7)
	colorDim     = lipgloss.ANSIColor(8)
	colorAccent  = lipgloss.ANSIColor(11)
	colorPlaying = lipgloss.ANSIColor(10)
	colorError   = lipgloss.ANSIColor(9)

	spectrumLow  = lipgloss.ANSIColor(10)
	spectrumMid  = lipgloss.ANSIColor(11)
	spectrumHigh = lipgloss.ANSIColor(9)
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1).
			Width(panelWidth + 4)

	titleStyle   = lipgloss.NewStyle().Foreground(colorTitle).Bold(true)
	trackStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	textStyle    = lipgloss.NewStyle().Foreground(colorText)
	stateStyle   = lipgloss.NewStyle().Foreground(colorPlaying).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(colorDim)
	activeStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	barFillStyle = lipgloss.NewStyle().Foreground(colorAccent)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError)

	specLowStyle  = lipgloss.NewStyle().Foreground(spectrumLow)
	specMidStyle  = lipgloss.NewStyle().Foreground(spectrumMid)
	specHighStyle = lipgloss.NewStyle().Foreground(spectrumHigh)
)

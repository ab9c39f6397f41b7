// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Polls the playback controller on a timer and maps keys to commands
package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/tuneplay/pkg/playback"
)

const (
	panelWidth  = 56
	seekStepMs  = 5000
	volumeStep  = 0.05
	defaultTick = 50 * time.Millisecond
)

// Player is the part of the playback controller the TUI drives
type Player interface {
	Poll() error
	Status() playback.Snapshot
	TogglePause() error
	Replay() error
	Stop() error
	SeekTo(targetMs int64) error
	SwitchSubsong(n int) error
	SetVolume(volume float64)
	EnableInstantSeek(enabled bool) error
	Config() playback.Config
	SwitchConfig(cfg playback.Config) (playback.SwitchResult, error)
	ReadVisualization(out []int16) int
}

// tickMsg drives polling and redraws
type tickMsg time.Time

// Model represents the TUI state
type Model struct {
	player  Player
	refresh time.Duration

	status   playback.Snapshot
	spectrum *Spectrum
	levels   []float64
	vis      []int16

	message string
	failed  bool

	width    int
	quitting bool
}

// Init starts the poll timer
func (m Model) Init() tea.Cmd {
	return tick(m.refresh)
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tickMsg:
		m.refreshStatus()
		return m, tick(m.refresh)
	}
	return m, nil
}

// refreshStatus polls the player and reads a visualization batch
func (m *Model) refreshStatus() {
	if err := m.player.Poll(); err != nil {
		m.report("", err)
	}
	m.status = m.player.Status()

	if m.spectrum != nil {
		n := m.player.ReadVisualization(m.vis)
		m.levels = m.spectrum.Analyze(m.vis[:n])
	}
}

// report shows the outcome of a command
func (m *Model) report(ok string, err error) {
	if err != nil {
		m.message = err.Error()
		m.failed = true
		return
	}
	m.message = ok
	m.failed = false
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.status
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ":
		if st.State == playback.Stopped {
			m.report("playing", m.player.Replay())
		} else {
			m.report("", m.player.TogglePause())
		}
	case "left":
		m.report("", m.player.SeekTo(max(st.TimeMs-seekStepMs, 0)))
	case "right":
		m.report("", m.player.SeekTo(st.TimeMs+seekStepMs))
	case "s":
		m.report("stopped", m.player.Stop())
	case "r":
		m.report("replaying", m.player.Replay())
	case "n":
		if st.Subsong+1 < st.Subsongs {
			m.report(fmt.Sprintf("subsong %d", st.Subsong+2), m.player.SwitchSubsong(st.Subsong+1))
		}
	case "p":
		if st.Subsong > 0 {
			m.report(fmt.Sprintf("subsong %d", st.Subsong), m.player.SwitchSubsong(st.Subsong-1))
		}
	case "up":
		m.player.SetVolume(min(st.Volume+volumeStep, 1))
	case "down":
		m.player.SetVolume(max(st.Volume-volumeStep, 0))
	case "i":
		enable := !st.InstantSeek
		m.report(fmt.Sprintf("instant seek %s", onOff(enable)), m.player.EnableInstantSeek(enable))
	case "w":
		cfg := m.player.Config()
		cfg.Decoder.Widening.Enabled = !cfg.Decoder.Widening.Enabled
		result, err := m.player.SwitchConfig(cfg)
		m.report(fmt.Sprintf("widening %s: %s", onOff(cfg.Decoder.Widening.Enabled), result), err)
	default:
		return m, nil
	}

	m.status = m.player.Status()
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderTrack(),
		"",
		m.renderTime(),
		m.renderProgress(),
	}
	if m.spectrum != nil {
		sections = append(sections, "", renderSpectrum(m.levels, panelWidth))
	}
	sections = append(sections,
		"",
		m.renderControls(),
		m.renderMessage(),
		m.renderHelp(),
	)
	return frameStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

// renderHeader renders the title and player state
func (m Model) renderHeader() string {
	title := titleStyle.Render("tuneplay")
	state := stateStyle.Render(strings.ToUpper(m.status.State.String()))
	gap := max(panelWidth-lipgloss.Width(title)-lipgloss.Width(state), 1)
	return title + strings.Repeat(" ", gap) + state
}

// renderTrack renders tune metadata
func (m Model) renderTrack() string {
	md := m.status.Metadata
	if md.Title == "" && md.Author == "" {
		return dimStyle.Render("(no metadata)")
	}

	s := trackStyle.Render(truncate(md.Title, panelWidth))
	line := md.Author
	if md.Released != "" {
		line += " (" + md.Released + ")"
	}
	if line != "" {
		s += "\n" + textStyle.Render(truncate(line, panelWidth))
	}
	if m.status.Subsongs > 1 {
		s += "\n" + dimStyle.Render(fmt.Sprintf("subsong %d/%d", m.status.Subsong+1, m.status.Subsongs))
	}
	return s
}

// renderTime renders elapsed and total time, plus the target of a running seek
func (m Model) renderTime() string {
	s := textStyle.Render(formatTime(m.status.TimeMs) + " / " + formatTime(m.status.DurationMs))
	if m.status.State == playback.Seeking {
		s += dimStyle.Render("  seeking to " + formatTime(m.status.SeekTargetMs))
	}
	return s
}

// renderProgress renders the position bar
func (m Model) renderProgress() string {
	if m.status.DurationMs <= 0 {
		return dimStyle.Render(strings.Repeat("░", panelWidth))
	}
	pos := min(m.status.TimeMs, m.status.DurationMs)
	return renderBar(int(pos), int(m.status.DurationMs), panelWidth)
}

// renderControls renders volume and effect toggles
func (m Model) renderControls() string {
	vol := int(m.status.Volume*100 + 0.5)
	s := fmt.Sprintf("Volume: %s %3d%%", renderBar(vol, 100, 10), vol)

	instant := "instant seek " + onOff(m.status.InstantSeek)
	if m.status.InstantSeek && m.status.PreRenderProgress < 1 {
		instant += fmt.Sprintf(" (%d%%)", int(m.status.PreRenderProgress*100))
	}
	toggles := []string{
		toggle(instant, m.status.InstantSeek),
		toggle("widening "+onOff(m.status.Widening), m.status.Widening),
		toggle("loop "+onOff(m.status.Loop), m.status.Loop),
	}
	s += "\n" + strings.Join(toggles, dimStyle.Render(" · "))
	if m.status.Backend != "" {
		s += "\n" + dimStyle.Render(fmt.Sprintf("%s session %s", m.status.Backend, shortID(m.status.SessionID)))
	}
	return s
}

// renderMessage renders the outcome of the last command
func (m Model) renderMessage() string {
	if m.message == "" {
		return ""
	}
	if m.failed {
		return errorStyle.Render(truncate(m.message, panelWidth))
	}
	return dimStyle.Render(truncate(m.message, panelWidth))
}

// renderHelp renders keyboard shortcuts
func (m Model) renderHelp() string {
	return dimStyle.Render("space:Pause  ←/→:Seek  s:Stop  r:Replay  n/p:Subsong\n" +
		"↑/↓:Volume  i:Instant seek  w:Widening  q:Quit")
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return dimStyle.Render(strings.Repeat("░", width))
	}
	filled := min((value*width)/max, width)
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}

func truncate(s string, length int) string {
	r := []rune(s)
	if len(r) <= length {
		return s
	}
	return string(r[:length-3]) + "..."
}

func formatTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	sec := ms / 1000
	return fmt.Sprintf("%02d:%02d", sec/60, sec%60)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func toggle(label string, active bool) string {
	if active {
		return activeStyle.Render(label)
	}
	return dimStyle.Render(label)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

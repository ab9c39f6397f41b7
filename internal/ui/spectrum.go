// ABOUTME: Spectrum analyzer for the visualization buffer
// ABOUTME: Windows interleaved PCM, runs an FFT and folds it into log-spaced bands
package ui

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

const (
	spectrumBands = 16
	lowestBandHz  = 40.0
	// floorDb maps to an empty bar, 0 dB to a full one
	floorDb = -60.0
)

var barBlocks = []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

// Spectrum turns visualization batches into smoothed band levels in [0, 1]
type Spectrum struct {
	rate     int
	channels int
	prev     []float64
}

// NewSpectrum creates an analyzer for PCM at rate with channels interleaved
func NewSpectrum(rate, channels int) *Spectrum {
	if channels < 1 {
		channels = 1
	}
	return &Spectrum{
		rate:     rate,
		channels: channels,
		prev:     make([]float64, spectrumBands),
	}
}

// Analyze returns the band levels for samples. An empty batch decays the
// previous levels.
func (s *Spectrum) Analyze(samples []int16) []float64 {
	bands := make([]float64, spectrumBands)
	frames := len(samples) / s.channels
	if frames < 2 {
		for b := range bands {
			bands[b] = s.prev[b] * 0.8
			s.prev[b] = bands[b]
		}
		return bands
	}

	mono := make([]float64, frames)
	for i := range mono {
		var sum float64
		for ch := 0; ch < s.channels; ch++ {
			sum += float64(samples[i*s.channels+ch])
		}
		mono[i] = sum / float64(s.channels) / 32768
	}
	window.Apply(mono, window.Hann)
	spectrum := fft.FFTReal(mono)

	binHz := float64(s.rate) / float64(frames)
	half := frames / 2
	for b := range bands {
		lo := int(s.edge(b) / binHz)
		hi := int(s.edge(b+1) / binHz)
		lo = max(lo, 1)
		hi = min(max(hi, lo), half-1)

		var peak float64
		for i := lo; i <= hi; i++ {
			peak = max(peak, cmplx.Abs(spectrum[i]))
		}

		// A full scale sine peaks at frames/4 after the Hann window
		var level float64
		if peak > 0 {
			db := 20 * math.Log10(peak*4/float64(frames))
			level = (db - floorDb) / -floorDb
		}
		level = max(0, min(1, level))

		if level > s.prev[b] {
			level = level*0.6 + s.prev[b]*0.4
		} else {
			level = level*0.25 + s.prev[b]*0.75
		}
		bands[b] = level
		s.prev[b] = level
	}
	return bands
}

// edge returns the lower frequency of band b. Bands are log-spaced up to Nyquist.
func (s *Spectrum) edge(b int) float64 {
	nyquist := float64(s.rate) / 2
	return lowestBandHz * math.Pow(nyquist/lowestBandHz, float64(b)/spectrumBands)
}

// bandFor returns the band containing freq
func (s *Spectrum) bandFor(freq float64) int {
	for b := 0; b < spectrumBands; b++ {
		if freq < s.edge(b+1) {
			return b
		}
	}
	return spectrumBands - 1
}

// renderSpectrum draws levels as colored bars filling width columns
func renderSpectrum(levels []float64, width int) string {
	if len(levels) == 0 || width < len(levels) {
		return ""
	}
	bw := max((width-(len(levels)-1))/len(levels), 1)

	var sb strings.Builder
	for i, level := range levels {
		idx := int(level * float64(len(barBlocks)-1))
		idx = max(0, min(idx, len(barBlocks)-1))

		var style lipgloss.Style
		switch {
		case level > 0.75:
			style = specHighStyle
		case level > 0.45:
			style = specMidStyle
		default:
			style = specLowStyle
		}
		sb.WriteString(style.Render(strings.Repeat(barBlocks[idx], bw)))
		if i < len(levels)-1 {
			sb.WriteString(" ")
		}
	}
	return sb.String()
}

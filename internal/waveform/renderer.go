// Package waveform turns spectrum snapshots into a fixed-width bar display
// for the recording view.
package waveform

import (
	"strings"
)

// blockRunes are the eighth-height block characters, lowest to tallest
var blockRunes = []rune{' ', '▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Renderer resamples magnitude spectra into a fixed number of smoothed bars.
// Bar heights are deterministic for a given input sequence; the renderer never
// reads the clock or any other ambient state.
type Renderer struct {
	bars      int
	smoothing float64
	heights   []float64
}

// NewRenderer creates a renderer producing the given number of bars.
// Smoothing in (0,1] controls how fast bars track the input; 1 disables
// smoothing.
func NewRenderer(bars int, smoothing float64) *Renderer {
	return &Renderer{
		bars:      bars,
		smoothing: smoothing,
		heights:   make([]float64, bars),
	}
}

// Update folds one spectrum snapshot into the bar heights and returns the
// updated heights. A nil spectrum decays all bars toward zero.
func (r *Renderer) Update(spectrum []float64) []float64 {
	for i := 0; i < r.bars; i++ {
		raw := resample(spectrum, i, r.bars)
		r.heights[i] = r.heights[i]*(1-r.smoothing) + raw*r.smoothing
	}
	return r.Heights()
}

// resample maps bar index i of n onto the spectrum by averaging the bins the
// bar spans
func resample(spectrum []float64, i, n int) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	lo := i * len(spectrum) / n
	hi := (i + 1) * len(spectrum) / n
	if hi <= lo {
		hi = lo + 1
	}
	if hi > len(spectrum) {
		hi = len(spectrum)
	}

	sum := 0.0
	for _, v := range spectrum[lo:hi] {
		sum += v
	}
	return sum / float64(hi-lo)
}

// Heights returns a copy of the current bar heights, each in [0,1]
func (r *Renderer) Heights() []float64 {
	out := make([]float64, len(r.heights))
	copy(out, r.heights)
	return out
}

// Reset zeroes all bars
func (r *Renderer) Reset() {
	for i := range r.heights {
		r.heights[i] = 0
	}
}

// View renders the current bars as a single line of block characters
func (r *Renderer) View() string {
	var b strings.Builder
	for _, h := range r.heights {
		if h < 0 {
			h = 0
		}
		if h > 1 {
			h = 1
		}
		idx := int(h * float64(len(blockRunes)-1))
		b.WriteRune(blockRunes[idx])
	}
	return b.String()
}

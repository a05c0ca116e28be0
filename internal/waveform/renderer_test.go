package waveform

import (
	"testing"
	"unicode/utf8"
)

func TestUpdateDeterministic(t *testing.T) {
	spectrum := []float64{0.1, 0.4, 0.8, 0.2}

	a := NewRenderer(8, 0.5)
	b := NewRenderer(8, 0.5)

	for i := 0; i < 5; i++ {
		a.Update(spectrum)
		b.Update(spectrum)
	}

	ha, hb := a.Heights(), b.Heights()
	for i := range ha {
		if ha[i] != hb[i] {
			t.Errorf("Bar %d differs between identical renderers: %f vs %f", i, ha[i], hb[i])
		}
	}
}

func TestUpdateBarCount(t *testing.T) {
	for _, bars := range []int{4, 24, 128} {
		r := NewRenderer(bars, 1.0)
		heights := r.Update([]float64{0.5, 0.5})
		if len(heights) != bars {
			t.Errorf("Expected %d bars, got %d", bars, len(heights))
		}
	}
}

func TestUpdateRange(t *testing.T) {
	r := NewRenderer(8, 1.0)
	heights := r.Update([]float64{0, 0.25, 0.5, 0.75, 1, 1, 1, 1})

	for i, h := range heights {
		if h < 0 || h > 1 {
			t.Errorf("Bar %d out of [0,1]: %f", i, h)
		}
	}
}

func TestSmoothingLagsInput(t *testing.T) {
	r := NewRenderer(4, 0.3)

	heights := r.Update([]float64{1, 1, 1, 1})
	for i, h := range heights {
		if h >= 1 {
			t.Errorf("Bar %d must lag a sudden full-scale input, got %f", i, h)
		}
		if h < 0.29 || h > 0.31 {
			t.Errorf("Bar %d: expected 0.3 after one smoothed tick, got %f", i, h)
		}
	}
}

func TestNilSpectrumDecays(t *testing.T) {
	r := NewRenderer(4, 0.5)
	r.Update([]float64{1, 1, 1, 1})

	before := r.Heights()
	after := r.Update(nil)

	for i := range after {
		if after[i] >= before[i] {
			t.Errorf("Bar %d must decay on nil input: %f -> %f", i, before[i], after[i])
		}
	}
}

func TestResetZeroesBars(t *testing.T) {
	r := NewRenderer(4, 1.0)
	r.Update([]float64{1, 1, 1, 1})
	r.Reset()

	for i, h := range r.Heights() {
		if h != 0 {
			t.Errorf("Bar %d: expected 0 after reset, got %f", i, h)
		}
	}
}

func TestViewWidth(t *testing.T) {
	r := NewRenderer(24, 1.0)
	r.Update([]float64{0.2, 0.9})

	if n := utf8.RuneCountInString(r.View()); n != 24 {
		t.Errorf("Expected 24-rune view, got %d", n)
	}
}

func TestViewSilenceIsBlank(t *testing.T) {
	r := NewRenderer(8, 1.0)
	view := r.View()

	for _, ch := range view {
		if ch != ' ' {
			t.Errorf("Expected blank view at rest, got %q", view)
			break
		}
	}
}

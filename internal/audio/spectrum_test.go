package audio

import (
	"testing"
)

func TestSpectrumDeterministic(t *testing.T) {
	samples := sineWave(440, 16000, 0.032)

	a := Spectrum(samples, 16)
	b := Spectrum(samples, 16)

	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("Expected 16 bins, got %d and %d", len(a), len(b))
	}

	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Bin %d differs between identical invocations: %f vs %f", i, a[i], b[i])
		}
	}
}

func TestSpectrumSilence(t *testing.T) {
	silence := make([]int16, 512)

	spec := Spectrum(silence, 8)
	for i, v := range spec {
		if v != 0 {
			t.Errorf("Bin %d: expected 0 for silence, got %f", i, v)
		}
	}
}

func TestSpectrumToneConcentratesEnergy(t *testing.T) {
	sampleRate := 16000
	// 1kHz tone; with 8 bins over 8kHz Nyquist, energy lands in the second band.
	samples := sineWave(1000, sampleRate, 0.064)

	spec := Spectrum(samples, 8)

	maxBin := 0
	for i, v := range spec {
		if v > spec[maxBin] {
			maxBin = i
		}
	}

	if maxBin != 1 {
		t.Errorf("Expected peak energy in bin 1, got bin %d (spectrum %v)", maxBin, spec)
	}

	if spec[maxBin] < 0.1 {
		t.Errorf("Expected significant energy in peak bin, got %f", spec[maxBin])
	}
}

func TestSpectrumRange(t *testing.T) {
	samples := sineWave(2000, 16000, 0.032)

	for _, bins := range []int{4, 16, 64} {
		spec := Spectrum(samples, bins)
		if len(spec) != bins {
			t.Errorf("Expected %d bins, got %d", bins, len(spec))
		}
		for i, v := range spec {
			if v < 0 || v > 1 {
				t.Errorf("bins=%d bin %d out of [0,1]: %f", bins, i, v)
			}
		}
	}
}

func TestSpectrumEmptyInput(t *testing.T) {
	spec := Spectrum(nil, 8)
	if len(spec) != 8 {
		t.Fatalf("Expected 8 zero bins for empty input, got %d", len(spec))
	}
	for i, v := range spec {
		if v != 0 {
			t.Errorf("Bin %d: expected 0, got %f", i, v)
		}
	}
}

func TestMeanMagnitude(t *testing.T) {
	if got := MeanMagnitude([]float64{0.2, 0.4, 0.6}); got < 0.399 || got > 0.401 {
		t.Errorf("Expected mean 0.4, got %f", got)
	}

	if got := MeanMagnitude(nil); got != 0 {
		t.Errorf("Expected 0 for empty spectrum, got %f", got)
	}
}

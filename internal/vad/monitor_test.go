package vad

import (
	"io"
	"log/slog"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testMonitor() *Monitor {
	return NewMonitor(Config{
		SilenceThreshold: 0.1,
		SilenceTicks:     3,
		Smoothing:        1.0, // no smoothing, readings pass through
	}, testLogger())
}

func loudSpectrum() []float64  { return []float64{0.5, 0.5, 0.5, 0.5} }
func quietSpectrum() []float64 { return []float64{0.01, 0.01, 0.01, 0.01} }

func TestObserveLoudness(t *testing.T) {
	m := testMonitor()

	tick := m.Observe(loudSpectrum())
	if tick.Loudness < 0.49 || tick.Loudness > 0.51 {
		t.Errorf("Expected loudness ~0.5, got %f", tick.Loudness)
	}
	if tick.Silent {
		t.Error("Loud spectrum must not be silent")
	}

	tick = m.Observe(quietSpectrum())
	if !tick.Silent {
		t.Error("Quiet spectrum must be silent")
	}
}

func TestSpeechEndedFiresOnce(t *testing.T) {
	m := testMonitor()

	m.Observe(loudSpectrum())

	fired := 0
	for i := 0; i < 10; i++ {
		if m.Observe(quietSpectrum()).SpeechEnded {
			fired++
		}
	}

	if fired != 1 {
		t.Errorf("Expected SpeechEnded exactly once, fired %d times", fired)
	}
}

func TestSpeechEndedRequiresConsecutiveSilence(t *testing.T) {
	m := testMonitor()

	// Two silent ticks, then a loud one resets the run.
	m.Observe(quietSpectrum())
	m.Observe(quietSpectrum())
	m.Observe(loudSpectrum())

	if tick := m.Observe(quietSpectrum()); tick.SpeechEnded {
		t.Error("Signal must not fire after the silence run was broken")
	}
	m.Observe(quietSpectrum())
	if tick := m.Observe(quietSpectrum()); !tick.SpeechEnded {
		t.Error("Signal must fire after the run rebuilds to the threshold")
	}
}

func TestResetRearmsSignal(t *testing.T) {
	m := testMonitor()

	for i := 0; i < 3; i++ {
		m.Observe(quietSpectrum())
	}
	if m.GetStats().SignalsFired != 1 {
		t.Fatal("Expected signal from first capture")
	}

	m.Reset()

	if m.Loudness() != 0 {
		t.Error("Reset must clear smoothed loudness")
	}

	fired := false
	for i := 0; i < 3; i++ {
		if m.Observe(quietSpectrum()).SpeechEnded {
			fired = true
		}
	}
	if !fired {
		t.Error("Signal must fire again after Reset")
	}

	stats := m.GetStats()
	if stats.SignalsFired != 2 {
		t.Errorf("Expected 2 lifetime signals, got %d", stats.SignalsFired)
	}
}

func TestSmoothingDampensSpikes(t *testing.T) {
	m := NewMonitor(Config{
		SilenceThreshold: 0.1,
		SilenceTicks:     3,
		Smoothing:        0.3,
	}, testLogger())

	// A single loud tick from rest must not reach the raw reading.
	tick := m.Observe(loudSpectrum())
	if tick.Loudness >= 0.5 {
		t.Errorf("Smoothed loudness must lag raw input, got %f", tick.Loudness)
	}
	if tick.Loudness < 0.14 || tick.Loudness > 0.16 {
		t.Errorf("Expected 0.15 after one smoothed tick, got %f", tick.Loudness)
	}

	// Repeated loud ticks converge toward the raw value.
	for i := 0; i < 50; i++ {
		tick = m.Observe(loudSpectrum())
	}
	if tick.Loudness < 0.49 {
		t.Errorf("Expected convergence toward 0.5, got %f", tick.Loudness)
	}
}

func TestObserveEmptySpectrum(t *testing.T) {
	m := testMonitor()

	tick := m.Observe(nil)
	if tick.Loudness != 0 {
		t.Errorf("Expected zero loudness for nil spectrum, got %f", tick.Loudness)
	}
	if !tick.Silent {
		t.Error("Nil spectrum must count as silent")
	}
}

func TestZeroSilenceTicksDisablesSignal(t *testing.T) {
	m := NewMonitor(Config{
		SilenceThreshold: 0.1,
		SilenceTicks:     0,
		Smoothing:        1.0,
	}, testLogger())

	for i := 0; i < 100; i++ {
		if m.Observe(quietSpectrum()).SpeechEnded {
			t.Fatal("Signal must never fire when SilenceTicks is 0")
		}
	}
}

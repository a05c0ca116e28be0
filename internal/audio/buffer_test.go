package audio

import (
	"testing"
	"time"
)

func TestCaptureBufferAppend(t *testing.T) {
	buf := NewCaptureBuffer(16000)

	buf.Append([]int16{1, 2, 3})
	buf.Append([]int16{4, 5})

	if buf.Len() != 5 {
		t.Errorf("Expected 5 samples, got %d", buf.Len())
	}

	samples := buf.Samples()
	expected := []int16{1, 2, 3, 4, 5}
	for i, v := range expected {
		if samples[i] != v {
			t.Errorf("Sample %d: expected %d, got %d", i, v, samples[i])
		}
	}
}

func TestCaptureBufferSamplesIsCopy(t *testing.T) {
	buf := NewCaptureBuffer(16000)
	buf.Append([]int16{10, 20})

	samples := buf.Samples()
	samples[0] = 99

	if buf.Samples()[0] != 10 {
		t.Error("Samples must return a copy, not the internal slice")
	}
}

func TestCaptureBufferDuration(t *testing.T) {
	buf := NewCaptureBuffer(16000)

	// One second of audio at 16kHz
	frame := make([]int16, 16000)
	buf.Append(frame)

	if d := buf.Duration(); d != time.Second {
		t.Errorf("Expected 1s duration, got %v", d)
	}
}

func TestCaptureBufferReset(t *testing.T) {
	buf := NewCaptureBuffer(16000)
	buf.Append([]int16{1, 2, 3})

	buf.Reset()

	if buf.Len() != 0 {
		t.Errorf("Expected empty buffer after reset, got %d samples", buf.Len())
	}

	stats := buf.GetStats()
	if stats.TotalFrames != 0 {
		t.Errorf("Expected frame count reset, got %d", stats.TotalFrames)
	}
}

func TestCaptureBufferStats(t *testing.T) {
	buf := NewCaptureBuffer(16000)
	buf.Append([]int16{1, 2})
	buf.Append([]int16{3, 4})

	stats := buf.GetStats()
	if stats.TotalFrames != 2 {
		t.Errorf("Expected 2 frames, got %d", stats.TotalFrames)
	}
	if stats.BufferedSamples != 4 {
		t.Errorf("Expected 4 buffered samples, got %d", stats.BufferedSamples)
	}
	if stats.FirstFrame.IsZero() || stats.LastFrame.IsZero() {
		t.Error("Expected frame timestamps to be recorded")
	}
}

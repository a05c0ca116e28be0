package audio

import (
	"sync"
	"time"
)

// CaptureBuffer accumulates PCM-16 frames delivered by the microphone reader.
// Frames arrive in order from a single goroutine, so unlike a network buffer
// there is no sequence reordering; the buffer only grows until it is drained
// on finalization or reset.
type CaptureBuffer struct {
	sampleRate int
	samples    []int16

	// Metadata
	firstFrame  time.Time
	lastFrame   time.Time
	totalFrames uint64

	mu sync.RWMutex
}

// BufferStats represents capture buffer statistics for monitoring
type BufferStats struct {
	SampleRate      int           `json:"sample_rate"`
	BufferedSamples int           `json:"buffered_samples"`
	TotalFrames     uint64        `json:"total_frames"`
	Duration        time.Duration `json:"duration"`
	FirstFrame      time.Time     `json:"first_frame"`
	LastFrame       time.Time     `json:"last_frame"`
}

// NewCaptureBuffer creates a capture buffer pre-sized for a few seconds of audio
func NewCaptureBuffer(sampleRate int) *CaptureBuffer {
	return &CaptureBuffer{
		sampleRate: sampleRate,
		samples:    make([]int16, 0, sampleRate*2), // Pre-allocate for 2 seconds
	}
}

// Append adds one microphone frame to the buffer
func (b *CaptureBuffer) Append(frame []int16) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	if b.totalFrames == 0 {
		b.firstFrame = now
	}
	b.lastFrame = now
	b.totalFrames++

	b.samples = append(b.samples, frame...)
}

// Samples returns a copy of the accumulated PCM samples
func (b *CaptureBuffer) Samples() []int16 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int16, len(b.samples))
	copy(out, b.samples)
	return out
}

// Len returns the current number of buffered samples
func (b *CaptureBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.samples)
}

// Duration returns the buffered audio length at the configured sample rate
func (b *CaptureBuffer) Duration() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.sampleRate <= 0 {
		return 0
	}
	seconds := float64(len(b.samples)) / float64(b.sampleRate)
	return time.Duration(seconds * float64(time.Second))
}

// Reset drops all buffered samples; called on every transition out of finalization
func (b *CaptureBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.samples = b.samples[:0]
	b.totalFrames = 0
	b.firstFrame = time.Time{}
	b.lastFrame = time.Time{}
}

// GetStats returns current buffer statistics
func (b *CaptureBuffer) GetStats() BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var duration time.Duration
	if b.sampleRate > 0 {
		duration = time.Duration(float64(len(b.samples)) / float64(b.sampleRate) * float64(time.Second))
	}

	return BufferStats{
		SampleRate:      b.sampleRate,
		BufferedSamples: len(b.samples),
		TotalFrames:     b.totalFrames,
		Duration:        duration,
		FirstFrame:      b.firstFrame,
		LastFrame:       b.lastFrame,
	}
}

package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/whitelabel-ai/agents-ui/internal/audio"
)

// State represents the capture session lifecycle
type State int

const (
	StateIdle State = iota
	StateCapturing
	StateFinalizing
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCapturing:
		return "capturing"
	case StateFinalizing:
		return "finalizing"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Config contains capture session configuration
type Config struct {
	SampleRate      int
	FramesPerBuffer int
	SpectrumBins    int
	MaxClipDuration time.Duration
}

// Session owns the microphone stream while recording. The device stream is
// held exactly while the session is Capturing or Finalizing and is released
// on every exit path, including Dispose during an active capture.
type Session struct {
	cfg    Config
	device Device
	logger *slog.Logger

	state  State
	stream Stream
	buffer *audio.CaptureBuffer
	level  []float64 // Latest magnitude vector, transient

	readerCancel context.CancelFunc
	readerWG     sync.WaitGroup

	disposed bool

	// Statistics
	sessionsStarted uint64
	clipsFinalized  uint64
	readErrors      uint64

	mu sync.RWMutex
}

// SessionStats represents capture session statistics for monitoring
type SessionStats struct {
	State           string `json:"state"`
	SessionsStarted uint64 `json:"sessions_started"`
	ClipsFinalized  uint64 `json:"clips_finalized"`
	ReadErrors      uint64 `json:"read_errors"`
	BufferedSamples int    `json:"buffered_samples"`
}

// NewSession creates a capture session over the given input device
func NewSession(device Device, cfg Config, logger *slog.Logger) *Session {
	return &Session{
		cfg:    cfg,
		device: device,
		logger: logger,
		buffer: audio.NewCaptureBuffer(cfg.SampleRate),
	}
}

// Start requests exclusive access to the input device and begins buffering
// frames. It fails with ErrDeviceUnavailable if the device cannot be opened;
// the session remains Idle on failure.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return fmt.Errorf("capture session is disposed")
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return fmt.Errorf("capture already in progress (state=%s)", s.state)
	}
	s.mu.Unlock()

	stream, err := s.device.Open(StreamConfig{
		SampleRate:      s.cfg.SampleRate,
		FramesPerBuffer: s.cfg.FramesPerBuffer,
	})
	if err != nil {
		s.logger.Warn("Failed to open input device", slog.String("error", err.Error()))
		return err
	}

	readerCtx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	if s.disposed || s.state != StateIdle {
		// Lost the start race while the device was opening; release the
		// just-opened stream, no reader ever touches it.
		disposed := s.disposed
		state := s.state
		s.mu.Unlock()
		cancel()
		stream.Stop()
		stream.Close()
		if disposed {
			return fmt.Errorf("capture session is disposed")
		}
		return fmt.Errorf("capture already in progress (state=%s)", state)
	}
	s.stream = stream
	s.readerCancel = cancel
	s.state = StateCapturing
	s.sessionsStarted++
	s.buffer.Reset()
	s.mu.Unlock()

	s.readerWG.Add(1)
	go s.readLoop(readerCtx, stream)

	s.logger.Info("Capture started",
		slog.Int("sample_rate", s.cfg.SampleRate),
		slog.Int("frames_per_buffer", s.cfg.FramesPerBuffer),
	)

	return nil
}

// readLoop pulls frames from the stream until cancelled or the stream errors
func (s *Session) readLoop(ctx context.Context, stream Stream) {
	defer s.readerWG.Done()

	frame := make([]int16, s.cfg.FramesPerBuffer)
	clipFull := false

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := stream.Read(frame); err != nil {
			// Stop() unblocks a pending Read with an error; only count
			// errors from a still-active capture.
			select {
			case <-ctx.Done():
			default:
				s.mu.Lock()
				s.readErrors++
				s.mu.Unlock()
				s.logger.Warn("Microphone read failed", slog.String("error", err.Error()))
			}
			return
		}

		if s.cfg.MaxClipDuration > 0 && s.buffer.Duration() >= s.cfg.MaxClipDuration {
			if !clipFull {
				clipFull = true
				s.logger.Warn("Max clip duration reached, dropping further frames",
					slog.Duration("max", s.cfg.MaxClipDuration),
				)
			}
		} else {
			s.buffer.Append(frame)
		}

		spectrum := audio.Spectrum(frame, s.cfg.SpectrumBins)

		s.mu.Lock()
		s.level = spectrum
		s.mu.Unlock()
	}
}

// Stop finalizes the current capture into a single WAV clip and returns the
// session to Idle. Calling Stop while Idle is a no-op returning no clip.
func (s *Session) Stop() (*audio.Clip, error) {
	s.mu.Lock()
	if s.state != StateCapturing {
		s.mu.Unlock()
		return nil, nil
	}
	s.state = StateFinalizing
	stream := s.stream
	cancel := s.readerCancel
	s.mu.Unlock()

	s.releaseStream(stream, cancel)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.stream = nil
	s.readerCancel = nil
	s.level = nil

	samples := s.buffer.Samples()
	duration := s.buffer.Duration()
	s.buffer.Reset()
	s.state = StateIdle

	if len(samples) == 0 {
		return nil, fmt.Errorf("no audio captured")
	}

	wav, err := audio.EncodeWAV(samples, s.cfg.SampleRate)
	if err != nil {
		return nil, fmt.Errorf("failed to encode clip: %w", err)
	}

	s.clipsFinalized++

	s.logger.Info("Capture finalized",
		slog.Duration("duration", duration),
		slog.Int("samples", len(samples)),
		slog.Int("wav_bytes", len(wav)),
	)

	return &audio.Clip{WAV: wav, Duration: duration, SampleRate: s.cfg.SampleRate}, nil
}

// Dispose stops any active capture and releases the device unconditionally.
// It is safe to call multiple times and is the single exit path used by every
// teardown branch of the owning controller.
func (s *Session) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	stream := s.stream
	cancel := s.readerCancel
	s.stream = nil
	s.readerCancel = nil
	s.state = StateIdle
	s.level = nil
	s.mu.Unlock()

	s.releaseStream(stream, cancel)

	s.buffer.Reset()
	s.logger.Info("Capture session disposed")
}

// releaseStream cancels the reader, unblocks and closes the stream, and waits
// for the reader goroutine to exit
func (s *Session) releaseStream(stream Stream, cancel context.CancelFunc) {
	if cancel != nil {
		cancel()
	}
	if stream != nil {
		if err := stream.Stop(); err != nil {
			s.logger.Debug("Stream stop returned error", slog.String("error", err.Error()))
		}
	}
	s.readerWG.Wait()
	if stream != nil {
		if err := stream.Close(); err != nil {
			s.logger.Warn("Stream close returned error", slog.String("error", err.Error()))
		}
	}
}

// State returns the current session state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// LevelSnapshot returns a copy of the latest per-frame magnitude vector, or
// nil when no capture is active
func (s *Session) LevelSnapshot() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.level == nil {
		return nil
	}
	out := make([]float64, len(s.level))
	copy(out, s.level)
	return out
}

// GetStats returns current session statistics
func (s *Session) GetStats() SessionStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return SessionStats{
		State:           s.state.String(),
		SessionsStarted: s.sessionsStarted,
		ClipsFinalized:  s.clipsFinalized,
		ReadErrors:      s.readErrors,
		BufferedSamples: s.buffer.Len(),
	}
}

package vad

import (
	"log/slog"
	"sync"

	"github.com/whitelabel-ai/agents-ui/internal/audio"
)

// Config contains voice activity monitor configuration
type Config struct {
	// SilenceThreshold is the smoothed loudness at or below which a tick
	// counts as silent, in [0,1].
	SilenceThreshold float64
	// SilenceTicks is the number of consecutive silent ticks that constitute
	// end of speech.
	SilenceTicks int
	// Smoothing is the exponential smoothing factor applied to raw loudness,
	// in (0,1]. 1 disables smoothing.
	Smoothing float64
}

// Tick is the outcome of observing one frame of spectrum data
type Tick struct {
	// Loudness is the smoothed loudness for this tick, in [0,1]
	Loudness float64
	// Silent reports whether this tick fell at or below the threshold
	Silent bool
	// SpeechEnded is set on the single tick that completes the configured
	// silence run. It fires at most once per capture until Reset.
	SpeechEnded bool
}

// Monitor observes per-tick loudness during a capture and detects end of
// speech. It never touches the capture itself; the caller decides what to do
// with the signal.
type Monitor struct {
	cfg    Config
	logger *slog.Logger

	smoothed     float64
	silentRun    int
	signalFired  bool
	ticksTotal   uint64
	signalsFired uint64

	mu sync.Mutex
}

// MonitorStats represents monitor statistics for the stats endpoint
type MonitorStats struct {
	TicksObserved uint64  `json:"ticks_observed"`
	SignalsFired  uint64  `json:"signals_fired"`
	Loudness      float64 `json:"loudness"`
	SilentRun     int     `json:"silent_run"`
}

// NewMonitor creates a voice activity monitor
func NewMonitor(cfg Config, logger *slog.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		logger: logger,
	}
}

// Observe folds one spectrum snapshot into the monitor and returns the tick
// outcome. A nil or empty spectrum is observed as zero loudness.
func (m *Monitor) Observe(spectrum []float64) Tick {
	raw := audio.MeanMagnitude(spectrum)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.ticksTotal++
	m.smoothed = m.smoothed*(1-m.cfg.Smoothing) + raw*m.cfg.Smoothing

	tick := Tick{Loudness: m.smoothed}

	if m.smoothed <= m.cfg.SilenceThreshold {
		tick.Silent = true
		m.silentRun++
	} else {
		m.silentRun = 0
	}

	if !m.signalFired && m.cfg.SilenceTicks > 0 && m.silentRun >= m.cfg.SilenceTicks {
		m.signalFired = true
		m.signalsFired++
		tick.SpeechEnded = true

		m.logger.Info("End of speech detected",
			slog.Int("silent_ticks", m.silentRun),
			slog.Float64("loudness", m.smoothed),
		)
	}

	return tick
}

// Reset clears per-capture state so the next capture can fire its own
// end-of-speech signal. Lifetime counters are preserved.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.smoothed = 0
	m.silentRun = 0
	m.signalFired = false
}

// Loudness returns the current smoothed loudness
func (m *Monitor) Loudness() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.smoothed
}

// GetStats returns current monitor statistics
func (m *Monitor) GetStats() MonitorStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return MonitorStats{
		TicksObserved: m.ticksTotal,
		SignalsFired:  m.signalsFired,
		Loudness:      m.smoothed,
		SilentRun:     m.silentRun,
	}
}

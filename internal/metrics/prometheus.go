package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the agent chat client
type Metrics struct {
	// Capture metrics
	CapturesStarted prometheus.Counter
	ClipsFinalized  prometheus.Counter
	ClipDuration    prometheus.Histogram
	DeviceErrors    prometheus.Counter

	// VAD metrics
	VADTicksObserved prometheus.Counter
	VADSilentTicks   prometheus.Counter
	VADAutoStops     prometheus.Counter

	// Conversation metrics
	Turns *prometheus.CounterVec

	// Agent request metrics
	SendRequests  prometheus.Counter
	SendSuccesses prometheus.Counter
	SendFailures  prometheus.Counter
	SendDuration  prometheus.Histogram
	AudioDropped  prometheus.Counter

	// Debug HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Capture metrics
		CapturesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_captures_started_total",
			Help: "Total number of microphone captures started",
		}),
		ClipsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_clips_finalized_total",
			Help: "Total number of captures finalized into WAV clips",
		}),
		ClipDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_clip_duration_seconds",
			Help:    "Duration of finalized clips in seconds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 8), // 0.5s to ~2 minutes
		}),
		DeviceErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_device_errors_total",
			Help: "Total number of microphone open or read failures",
		}),

		// VAD metrics
		VADTicksObserved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_vad_ticks_observed_total",
			Help: "Total number of loudness ticks observed",
		}),
		VADSilentTicks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_vad_silent_ticks_total",
			Help: "Total number of ticks at or below the silence threshold",
		}),
		VADAutoStops: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_vad_auto_stops_total",
			Help: "Total number of captures ended by silence detection",
		}),

		// Conversation metrics
		Turns: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_turns_total",
			Help: "Total number of conversation turns appended",
		}, []string{"author", "kind"}),

		// Agent request metrics
		SendRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_send_requests_total",
			Help: "Total number of requests sent to the agent backend",
		}),
		SendSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_send_successes_total",
			Help: "Total number of successful agent requests",
		}),
		SendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_send_failures_total",
			Help: "Total number of failed agent requests",
		}),
		SendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_send_duration_seconds",
			Help:    "Duration of agent requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),
		AudioDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "chat_reply_audio_dropped_total",
			Help: "Total number of reply clips dropped as undecodable",
		}),

		// Debug HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_http_requests_total",
			Help: "Total number of debug HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chat_http_request_duration_seconds",
			Help:    "Duration of debug HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
	}
}

// RecordCaptureStarted increments the captures started counter
func (m *Metrics) RecordCaptureStarted() {
	m.CapturesStarted.Inc()
}

// RecordClipFinalized records a finalized clip and its duration
func (m *Metrics) RecordClipFinalized(durationSeconds float64) {
	m.ClipsFinalized.Inc()
	m.ClipDuration.Observe(durationSeconds)
}

// RecordDeviceError increments the device errors counter
func (m *Metrics) RecordDeviceError() {
	m.DeviceErrors.Inc()
}

// RecordVADTick increments tick counters
func (m *Metrics) RecordVADTick(silent bool) {
	m.VADTicksObserved.Inc()
	if silent {
		m.VADSilentTicks.Inc()
	}
}

// RecordAutoStop increments the auto-stop counter
func (m *Metrics) RecordAutoStop() {
	m.VADAutoStops.Inc()
}

// RecordTurn records an appended conversation turn
func (m *Metrics) RecordTurn(author, kind string) {
	m.Turns.WithLabelValues(author, kind).Inc()
}

// RecordSendRequest increments the send requests counter
func (m *Metrics) RecordSendRequest() {
	m.SendRequests.Inc()
}

// RecordSendSuccess records a successful agent request
func (m *Metrics) RecordSendSuccess(durationSeconds float64) {
	m.SendSuccesses.Inc()
	m.SendDuration.Observe(durationSeconds)
}

// RecordSendFailure records a failed agent request
func (m *Metrics) RecordSendFailure(durationSeconds float64) {
	m.SendFailures.Inc()
	m.SendDuration.Observe(durationSeconds)
}

// RecordAudioDropped increments the dropped reply audio counter
func (m *Metrics) RecordAudioDropped() {
	m.AudioDropped.Inc()
}

// RecordHTTPRequest records a debug HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

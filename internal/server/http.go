// Package server exposes the local monitoring HTTP API: health, stats, the
// sanitized configuration, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whitelabel-ai/agents-ui/internal/capture"
	"github.com/whitelabel-ai/agents-ui/internal/chat"
	"github.com/whitelabel-ai/agents-ui/internal/config"
	"github.com/whitelabel-ai/agents-ui/internal/metrics"
	"github.com/whitelabel-ai/agents-ui/internal/transport"
	"github.com/whitelabel-ai/agents-ui/internal/vad"
)

// HTTPServer provides HTTP endpoints for monitoring the running chat client
type HTTPServer struct {
	server     *http.Server
	logger     *slog.Logger
	config     *config.Config
	controller *chat.Controller
	session    *capture.Session
	monitor    *vad.Monitor
	client     *transport.Client
	metrics    *metrics.Metrics

	startTime time.Time
}

// NewHTTPServer creates a new monitoring HTTP server
func NewHTTPServer(cfg config.MonitorConfig, logger *slog.Logger,
	appConfig *config.Config, controller *chat.Controller, session *capture.Session,
	monitor *vad.Monitor, client *transport.Client, m *metrics.Metrics) *HTTPServer {

	h := &HTTPServer{
		logger:     logger,
		config:     appConfig,
		controller: controller,
		session:    session,
		monitor:    monitor,
		client:     client,
		metrics:    m,
		startTime:  time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: 200}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		statusCode := fmt.Sprintf("%d", ww.statusCode)
		h.metrics.RecordHTTPRequest(r.Method, endpoint, statusCode, duration)
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting monitoring HTTP server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping monitoring HTTP server...")

	return h.server.Shutdown(ctx)
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	controllerStats := h.controller.GetStats()
	clientStats := h.client.GetStats()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    "agents-ui",
			"version": "1.0.0",
		},
		"components": map[string]interface{}{
			"controller": map[string]interface{}{
				"state":           controllerStats.State,
				"sends_started":   controllerStats.SendsStarted,
				"sends_completed": controllerStats.SendsCompleted,
				"sends_failed":    controllerStats.SendsFailed,
			},
			"capture": h.session.GetStats(),
			"agent_client": map[string]interface{}{
				"total_requests": clientStats.TotalRequests,
				"success_rate":   clientStats.SuccessRate,
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := map[string]interface{}{
		"uptime":       time.Since(h.startTime).String(),
		"timestamp":    time.Now().UTC(),
		"controller":   h.controller.GetStats(),
		"capture":      h.session.GetStats(),
		"vad":          h.monitor.GetStats(),
		"agent_client": h.client.GetStats(),
		"timeline":     h.controller.Timeline().GetStats(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sanitizedConfig := map[string]interface{}{
		"agent": map[string]interface{}{
			"base_url": h.config.Agent.BaseURL,
			"agent_id": h.config.Agent.AgentID,
			"timeout":  h.config.Agent.TimeoutSeconds,
		},
		"audio": map[string]interface{}{
			"sample_rate":       h.config.Audio.SampleRate,
			"channels":          h.config.Audio.Channels,
			"bit_depth":         h.config.Audio.BitDepth,
			"frames_per_buffer": h.config.Audio.FramesPerBuffer,
			"max_clip_seconds":  h.config.Audio.MaxClipSeconds,
		},
		"vad": map[string]interface{}{
			"silence_threshold":    h.config.VAD.SilenceThreshold,
			"silence_ticks":        h.config.VAD.SilenceTicks,
			"smoothing":            h.config.VAD.Smoothing,
			"spectrum_bins":        h.config.VAD.SpectrumBins,
			"auto_stop_on_silence": h.config.VAD.AutoStopOnSilence,
		},
		"ui": map[string]interface{}{
			"enable_waveform": h.config.UI.EnableWaveform,
			"waveform_bars":   h.config.UI.WaveformBars,
		},
		"logging": map[string]interface{}{
			"level":  h.config.Logging.Level,
			"format": h.config.Logging.Format,
			"output": h.config.Logging.Output,
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(sanitizedConfig)
}

// handleRoot implements the / endpoint with API documentation
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	apiDoc := map[string]interface{}{
		"service": "Agent Chat Client",
		"version": "1.0.0",
		"endpoints": map[string]interface{}{
			"GET /":        "API documentation",
			"GET /health":  "Client health check",
			"GET /stats":   "Runtime statistics",
			"GET /config":  "Sanitized configuration",
			"GET /metrics": "Prometheus metrics",
		},
		"timestamp": time.Now().UTC(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiDoc)
}

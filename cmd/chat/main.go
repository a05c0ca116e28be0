package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/whitelabel-ai/agents-ui/internal/app"
	"github.com/whitelabel-ai/agents-ui/internal/capture"
	"github.com/whitelabel-ai/agents-ui/internal/chat"
	"github.com/whitelabel-ai/agents-ui/internal/config"
	"github.com/whitelabel-ai/agents-ui/internal/metrics"
	"github.com/whitelabel-ai/agents-ui/internal/server"
	"github.com/whitelabel-ai/agents-ui/internal/timeline"
	"github.com/whitelabel-ai/agents-ui/internal/transport"
	"github.com/whitelabel-ai/agents-ui/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	appName           = "agents-ui"
	appVersion        = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration. The terminal belongs to the
	// TUI, so logs default to a file.
	logger := initLogger(cfg.Logging)

	logger.Info("Client starting",
		slog.String("app", appName),
		slog.String("version", appVersion),
		slog.String("config_path", *configPath),
	)

	logger.Info("Configuration loaded",
		slog.String("base_url", cfg.Agent.BaseURL),
		slog.String("agent_id", cfg.Agent.AgentID),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Float64("silence_threshold", cfg.VAD.SilenceThreshold),
		slog.Int("silence_ticks", cfg.VAD.SilenceTicks),
		slog.Bool("auto_stop_on_silence", cfg.VAD.AutoStopOnSilence),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()

	// Initialize capture session over the default microphone
	device := capture.NewPortAudioDevice()
	session := capture.NewSession(device, capture.Config{
		SampleRate:      cfg.Audio.SampleRate,
		FramesPerBuffer: cfg.Audio.FramesPerBuffer,
		SpectrumBins:    cfg.VAD.SpectrumBins,
		MaxClipDuration: cfg.Audio.GetMaxClipDuration(),
	}, logger)

	// Initialize voice activity monitor
	monitor := vad.NewMonitor(vad.Config{
		SilenceThreshold: cfg.VAD.SilenceThreshold,
		SilenceTicks:     cfg.VAD.SilenceTicks,
		Smoothing:        cfg.VAD.Smoothing,
	}, logger)

	// Initialize agent backend client
	client, err := transport.NewClient(transport.Config{
		BaseURL: cfg.Agent.BaseURL,
		AgentID: cfg.Agent.AgentID,
		Timeout: cfg.Agent.GetTimeout(),
	}, logger)
	if err != nil {
		logger.Error("Failed to create agent client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize chat controller
	controller := chat.NewController(chat.Config{
		AutoStopOnSilence: cfg.VAD.AutoStopOnSilence,
	}, session, monitor, client, timeline.New(), appMetrics, logger)

	// Start the monitoring HTTP server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.Monitor.Enabled {
		httpServer = server.NewHTTPServer(cfg.Monitor, logger, cfg, controller, session, monitor, client, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start monitoring server", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Run the TUI; bubbletea owns the terminal and signal handling from here
	model := app.New(app.Config{
		EnableWaveform: cfg.UI.EnableWaveform,
		WaveformBars:   cfg.UI.WaveformBars,
		AgentID:        cfg.Agent.AgentID,
	}, controller)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		logger.Error("TUI error", slog.String("error", err.Error()))
	}

	logger.Info("Starting graceful shutdown...")

	// The TUI disposes the controller on quit; repeat here for the error path.
	controller.Dispose()

	if httpServer != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()

		if err := httpServer.Stop(shutdownCtx); err != nil {
			logger.Error("Error stopping monitoring server", slog.String("error", err.Error()))
		}
	}

	// Final statistics
	stats := controller.GetStats()
	clientStats := client.GetStats()
	logger.Info("Final client statistics",
		slog.Uint64("sends_started", stats.SendsStarted),
		slog.Uint64("sends_completed", stats.SendsCompleted),
		slog.Uint64("sends_failed", stats.SendsFailed),
		slog.Uint64("auto_stops", stats.AutoStops),
		slog.Uint64("agent_requests", clientStats.TotalRequests),
	)

	logger.Info("Client stopped")
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination. Stdout is the TUI's, so unlike a plain
	// server the default is a log file.
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		path := cfg.Output
		if path == "" {
			path = "chat.log"
		}
		file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stderr\n", path, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete chat client configuration
type Config struct {
	Agent   AgentConfig   `yaml:"agent"`
	Audio   AudioConfig   `yaml:"audio"`
	VAD     VADConfig     `yaml:"vad"`
	UI      UIConfig      `yaml:"ui"`
	Monitor MonitorConfig `yaml:"monitor"`
	Logging LoggingConfig `yaml:"logging"`
}

// AgentConfig contains the remote agent endpoint configuration
type AgentConfig struct {
	BaseURL        string `yaml:"base_url"`
	AgentID        string `yaml:"agent_id"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// AudioConfig contains microphone capture parameters
type AudioConfig struct {
	SampleRate      int     `yaml:"sample_rate"`
	Channels        int     `yaml:"channels"`
	BitDepth        int     `yaml:"bit_depth"`
	FramesPerBuffer int     `yaml:"frames_per_buffer"`
	MaxClipSeconds  float64 `yaml:"max_clip_seconds"`
}

// VADConfig contains silence detection configuration
type VADConfig struct {
	SilenceThreshold  float64 `yaml:"silence_threshold"`
	SilenceTicks      int     `yaml:"silence_ticks"`
	Smoothing         float64 `yaml:"smoothing"`
	SpectrumBins      int     `yaml:"spectrum_bins"`
	AutoStopOnSilence bool    `yaml:"auto_stop_on_silence"`
}

// UIConfig contains chat view configuration
type UIConfig struct {
	EnableWaveform bool `yaml:"enable_waveform"`
	WaveformBars   int  `yaml:"waveform_bars"`
}

// MonitorConfig contains the local debug/monitoring HTTP server configuration
type MonitorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Port    int    `yaml:"port"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.VAD.Validate(); err != nil {
		return fmt.Errorf("vad config: %w", err)
	}

	if err := c.UI.Validate(); err != nil {
		return fmt.Errorf("ui config: %w", err)
	}

	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates agent endpoint configuration
func (a *AgentConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	if a.AgentID == "" {
		return fmt.Errorf("agent_id cannot be empty")
	}

	if a.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be at least 1, got %d", a.TimeoutSeconds)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", a.Channels)
	}

	if a.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", a.BitDepth)
	}

	if a.FramesPerBuffer < 64 || a.FramesPerBuffer > 8192 {
		return fmt.Errorf("frames_per_buffer must be between 64 and 8192, got %d", a.FramesPerBuffer)
	}

	if a.MaxClipSeconds <= 0 {
		return fmt.Errorf("max_clip_seconds must be positive, got %f", a.MaxClipSeconds)
	}

	return nil
}

// Validate validates silence detection configuration
func (v *VADConfig) Validate() error {
	if v.SilenceThreshold < 0 || v.SilenceThreshold > 1 {
		return fmt.Errorf("silence_threshold must be between 0 and 1, got %f", v.SilenceThreshold)
	}

	if v.SilenceTicks < 1 {
		return fmt.Errorf("silence_ticks must be at least 1, got %d", v.SilenceTicks)
	}

	if v.Smoothing <= 0 || v.Smoothing > 1 {
		return fmt.Errorf("smoothing must be in (0, 1], got %f", v.Smoothing)
	}

	if v.SpectrumBins < 4 || v.SpectrumBins > 256 {
		return fmt.Errorf("spectrum_bins must be between 4 and 256, got %d", v.SpectrumBins)
	}

	return nil
}

// Validate validates chat view configuration
func (u *UIConfig) Validate() error {
	if u.EnableWaveform {
		if u.WaveformBars < 4 || u.WaveformBars > 128 {
			return fmt.Errorf("waveform_bars must be between 4 and 128, got %d", u.WaveformBars)
		}
	}

	return nil
}

// Validate validates monitor server configuration
func (m *MonitorConfig) Validate() error {
	if m.Enabled {
		if m.Port < 1 || m.Port > 65535 {
			return fmt.Errorf("port must be between 1 and 65535, got %d", m.Port)
		}

		if m.Address == "" {
			return fmt.Errorf("address cannot be empty when monitor is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetTimeout returns the agent request timeout as a time.Duration
func (a *AgentConfig) GetTimeout() time.Duration {
	return time.Duration(a.TimeoutSeconds) * time.Second
}

// GetMaxClipDuration returns the maximum clip length as a time.Duration
func (a *AudioConfig) GetMaxClipDuration() time.Duration {
	return time.Duration(a.MaxClipSeconds * float64(time.Second))
}

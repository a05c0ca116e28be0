// Package config provides configuration loading and validation for the agent chat client.
// It handles YAML-based configuration with per-section struct validation covering the
// agent endpoint, audio capture, silence detection, UI, and monitoring parameters.
package config

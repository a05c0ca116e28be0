// Package audio handles PCM audio accumulation and format conversion for the chat client.
// It implements the capture buffer that collects microphone frames, WAV encoding/decoding
// for clips exchanged with the agent endpoint, and magnitude spectrum extraction for the
// visualizer and silence detection.
package audio

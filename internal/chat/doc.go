// Package chat coordinates the conversation. The controller owns the
// interaction state machine (Idle, Recording, Sending), drives the capture
// session and voice activity monitor, serializes sends to the agent backend,
// and publishes events the UI renders from.
package chat

// Package transport is the HTTP client for the agent backend. It speaks the
// two invoke endpoints (text and audio), normalizes the reply shapes into a
// single Reply, and degrades gracefully when the reply audio is malformed.
package transport

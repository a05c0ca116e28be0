// Package capture owns the microphone during recording. It provides the capture
// session state machine (Idle, Capturing, Finalizing), a device abstraction with a
// PortAudio implementation, and leak-free release of the input stream on every
// teardown path.
package capture

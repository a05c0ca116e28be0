package app

import "github.com/whitelabel-ai/agents-ui/internal/chat"

// ControllerEventMsg wraps a controller event for the update loop.
type ControllerEventMsg struct {
	Event chat.Event
}

// ActionErrorMsg is sent when a controller action is refused.
type ActionErrorMsg struct {
	Err error
}

// RecordingStartedMsg is sent when the microphone was acquired.
type RecordingStartedMsg struct{}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}

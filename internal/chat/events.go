package chat

import (
	"github.com/whitelabel-ai/agents-ui/internal/timeline"
)

// EventType identifies a controller event
type EventType int

const (
	// EventStateChanged reports a controller state transition
	EventStateChanged EventType = iota
	// EventTurnAppended reports a new turn in the timeline
	EventTurnAppended
	// EventNotice carries a transient user-facing message
	EventNotice
	// EventLevelTick carries the latest waveform spectrum while recording
	EventLevelTick
)

// Event is a controller notification for the UI
type Event struct {
	Type   EventType
	State  State
	Turn   timeline.Turn
	Notice string
	Level  []float64
}

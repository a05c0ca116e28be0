package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/whitelabel-ai/agents-ui/internal/audio"
	"github.com/whitelabel-ai/agents-ui/internal/metrics"
	"github.com/whitelabel-ai/agents-ui/internal/timeline"
	"github.com/whitelabel-ai/agents-ui/internal/transport"
	"github.com/whitelabel-ai/agents-ui/internal/vad"
)

// voiceTurnText is the display text for user voice turns
const voiceTurnText = "Voice message"

// defaultTickInterval drives the loudness monitor while recording
const defaultTickInterval = 50 * time.Millisecond

// State represents the controller interaction state
type State int

const (
	StateIdle State = iota
	StateRecording
	StateSending
)

// String returns a human-readable state name
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateSending:
		return "sending"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// CaptureSession is the microphone session the controller drives
type CaptureSession interface {
	Start(ctx context.Context) error
	Stop() (*audio.Clip, error)
	Dispose()
	LevelSnapshot() []float64
}

// AgentClient sends turns to the agent backend
type AgentClient interface {
	SendText(ctx context.Context, input string) (*transport.Reply, error)
	SendAudio(ctx context.Context, wav []byte) (*transport.Reply, error)
}

// Config contains controller configuration
type Config struct {
	TickInterval      time.Duration
	AutoStopOnSilence bool
}

// Controller owns the conversation state machine. At most one send is in
// flight at a time; a reply that lands after Dispose is discarded.
type Controller struct {
	cfg     Config
	session CaptureSession
	monitor *vad.Monitor
	client  AgentClient
	log     *timeline.Timeline
	metrics *metrics.Metrics
	logger  *slog.Logger

	state      State
	disposed   bool
	generation uint64

	tickerCancel context.CancelFunc
	tickerWG     sync.WaitGroup

	events chan Event

	// Statistics
	sendsStarted   uint64
	sendsCompleted uint64
	sendsFailed    uint64
	autoStops      uint64
	eventsDropped  atomic.Uint64 // emit runs both with and without mu held

	mu sync.RWMutex
}

// ControllerStats represents controller statistics for monitoring
type ControllerStats struct {
	State          string `json:"state"`
	SendsStarted   uint64 `json:"sends_started"`
	SendsCompleted uint64 `json:"sends_completed"`
	SendsFailed    uint64 `json:"sends_failed"`
	AutoStops      uint64 `json:"auto_stops"`
	EventsDropped  uint64 `json:"events_dropped"`
}

// NewController creates a chat controller. The metrics argument may be nil
// when the monitoring endpoint is disabled.
func NewController(cfg Config, session CaptureSession, monitor *vad.Monitor, client AgentClient, log *timeline.Timeline, m *metrics.Metrics, logger *slog.Logger) *Controller {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}

	return &Controller{
		cfg:     cfg,
		session: session,
		monitor: monitor,
		client:  client,
		log:     log,
		metrics: m,
		logger:  logger,
		events:  make(chan Event, 64),
	}
}

// Events returns the controller event stream. Events are dropped, not
// blocked on, when the consumer falls behind.
func (c *Controller) Events() <-chan Event {
	return c.events
}

// Timeline returns the conversation log
func (c *Controller) Timeline() *timeline.Timeline {
	return c.log
}

// State returns the current controller state
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// StartRecording acquires the microphone and begins a voice turn
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("controller is disposed")
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("cannot record while %s", c.state)
	}
	c.mu.Unlock()

	if err := c.session.Start(ctx); err != nil {
		if c.metrics != nil {
			c.metrics.RecordDeviceError()
		}
		c.logger.Warn("Failed to start capture", slog.String("error", err.Error()))
		c.notify("Microphone unavailable")
		return err
	}

	c.mu.Lock()
	if c.disposed || c.state != StateIdle {
		disposed := c.disposed
		state := c.state
		c.mu.Unlock()
		// Lost the start race while the device was opening; unwind the
		// capture before a tick loop is attached to it.
		c.session.Stop()
		if disposed {
			return fmt.Errorf("controller is disposed")
		}
		return fmt.Errorf("cannot record while %s", state)
	}
	c.monitor.Reset()
	tickerCtx, cancel := context.WithCancel(context.Background())
	c.tickerCancel = cancel
	c.setStateLocked(StateRecording)
	c.mu.Unlock()

	c.tickerWG.Add(1)
	go c.tickLoop(tickerCtx)

	if c.metrics != nil {
		c.metrics.RecordCaptureStarted()
	}

	return nil
}

// tickLoop feeds capture levels into the monitor until cancelled. When the
// monitor signals end of speech and auto-stop is enabled, it hands off to
// StopRecording and exits.
func (c *Controller) tickLoop(ctx context.Context) {
	defer c.tickerWG.Done()

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		level := c.session.LevelSnapshot()
		tick := c.monitor.Observe(level)

		if c.metrics != nil {
			c.metrics.RecordVADTick(tick.Silent)
		}

		c.emit(Event{Type: EventLevelTick, Level: level})

		if tick.SpeechEnded && c.cfg.AutoStopOnSilence {
			c.mu.Lock()
			c.autoStops++
			c.mu.Unlock()
			if c.metrics != nil {
				c.metrics.RecordAutoStop()
			}
			c.logger.Info("Silence detected, finishing voice turn")

			// StopRecording waits for this goroutine, so it must run
			// outside of it. It also cancels this ctx, so the send gets
			// a fresh one.
			go c.StopRecording(context.Background())
			return
		}
	}
}

// StopRecording finalizes the voice turn and sends the clip to the agent.
// Calling it while not recording is a no-op.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateRecording {
		c.mu.Unlock()
		return nil
	}
	// Claim the transition before releasing the lock so a concurrent stop
	// (user key and auto-stop racing) cannot finalize the capture twice.
	c.setStateLocked(StateSending)
	cancel := c.tickerCancel
	c.tickerCancel = nil
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.tickerWG.Wait()

	clip, err := c.session.Stop()

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return nil
	}

	if err != nil || clip == nil {
		c.setStateLocked(StateIdle)
		c.mu.Unlock()
		c.logger.Warn("Voice turn produced no clip")
		c.notify("Nothing recorded")
		return err
	}

	turn := c.log.AppendAudio(timeline.AuthorUser, voiceTurnText, clip.WAV, clip.Duration)
	c.emit(Event{Type: EventTurnAppended, Turn: turn})
	generation := c.generation
	c.sendsStarted++
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordClipFinalized(clip.Duration.Seconds())
		c.metrics.RecordTurn(string(timeline.AuthorUser), string(timeline.KindAudio))
		c.metrics.RecordSendRequest()
	}

	go c.send(ctx, generation, func(ctx context.Context) (*transport.Reply, error) {
		return c.client.SendAudio(ctx, clip.WAV)
	})

	return nil
}

// SubmitText sends a typed turn to the agent
func (c *Controller) SubmitText(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("message cannot be empty")
	}

	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return fmt.Errorf("controller is disposed")
	}
	if c.state != StateIdle {
		c.mu.Unlock()
		return fmt.Errorf("cannot send while %s", c.state)
	}

	turn := c.log.AppendText(timeline.AuthorUser, text)
	c.emit(Event{Type: EventTurnAppended, Turn: turn})
	c.setStateLocked(StateSending)
	generation := c.generation
	c.sendsStarted++
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordTurn(string(timeline.AuthorUser), string(timeline.KindText))
		c.metrics.RecordSendRequest()
	}

	go c.send(ctx, generation, func(ctx context.Context) (*transport.Reply, error) {
		return c.client.SendText(ctx, text)
	})

	return nil
}

// send performs one agent exchange and folds the reply into the timeline.
// Replies arriving after Dispose, or from a superseded generation, are
// discarded without touching any state.
func (c *Controller) send(ctx context.Context, generation uint64, call func(context.Context) (*transport.Reply, error)) {
	startTime := time.Now()
	reply, err := call(ctx)
	elapsed := time.Since(startTime)

	c.mu.Lock()
	if c.disposed || c.generation != generation {
		c.mu.Unlock()
		c.logger.Debug("Discarding late agent reply")
		return
	}

	c.setStateLocked(StateIdle)

	if err != nil {
		c.sendsFailed++
		c.mu.Unlock()

		if c.metrics != nil {
			c.metrics.RecordSendFailure(elapsed.Seconds())
		}
		c.logger.Warn("Agent request failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", elapsed),
		)
		c.notify(fmt.Sprintf("Send failed: %v", err))
		return
	}

	// Agent text first, then the spoken clip as its own turn when playable.
	textTurn := c.log.AppendText(timeline.AuthorAgent, reply.Text)
	c.emit(Event{Type: EventTurnAppended, Turn: textTurn})

	appendedAudio := false
	if len(reply.Audio) > 0 {
		if clip, clipErr := audio.NewClip(reply.Audio); clipErr == nil {
			audioTurn := c.log.AppendAudio(timeline.AuthorAgent, "", reply.Audio, clip.Duration)
			c.emit(Event{Type: EventTurnAppended, Turn: audioTurn})
			appendedAudio = true
		} else {
			if c.metrics != nil {
				c.metrics.RecordAudioDropped()
			}
			c.logger.Warn("Dropping unplayable reply clip", slog.String("error", clipErr.Error()))
		}
	}

	c.sendsCompleted++
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.RecordSendSuccess(elapsed.Seconds())
		c.metrics.RecordTurn(string(timeline.AuthorAgent), string(timeline.KindText))
		if appendedAudio {
			c.metrics.RecordTurn(string(timeline.AuthorAgent), string(timeline.KindAudio))
		}
	}
}

// Dispose tears the controller down. It is safe to call multiple times;
// any in-flight send is abandoned and its reply discarded.
func (c *Controller) Dispose() {
	c.mu.Lock()
	if c.disposed {
		c.mu.Unlock()
		return
	}
	c.disposed = true
	c.generation++
	cancel := c.tickerCancel
	c.tickerCancel = nil
	c.state = StateIdle
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.tickerWG.Wait()
	c.session.Dispose()

	c.logger.Info("Chat controller disposed")
}

// setStateLocked transitions the controller state and emits the change.
// Must be called with the lock held.
func (c *Controller) setStateLocked(state State) {
	if c.state == state {
		return
	}
	c.state = state
	c.emit(Event{Type: EventStateChanged, State: state})
}

// notify emits a transient user-facing message
func (c *Controller) notify(message string) {
	c.emit(Event{Type: EventNotice, Notice: message})
}

// emit delivers an event without blocking; a slow consumer loses events
// rather than stalling the controller
func (c *Controller) emit(event Event) {
	select {
	case c.events <- event:
	default:
		c.eventsDropped.Add(1)
	}
}

// GetStats returns current controller statistics
func (c *Controller) GetStats() ControllerStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return ControllerStats{
		State:          c.state.String(),
		SendsStarted:   c.sendsStarted,
		SendsCompleted: c.sendsCompleted,
		SendsFailed:    c.sendsFailed,
		AutoStops:      c.autoStops,
		EventsDropped:  c.eventsDropped.Load(),
	}
}

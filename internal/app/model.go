// Package app is the terminal front end. The bubbletea model renders the
// conversation timeline, the compose field, and the live waveform, and
// translates key presses into controller actions.
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/whitelabel-ai/agents-ui/internal/chat"
	"github.com/whitelabel-ai/agents-ui/internal/timeline"
	"github.com/whitelabel-ai/agents-ui/internal/ui"
	"github.com/whitelabel-ai/agents-ui/internal/waveform"
)

// Config contains UI configuration
type Config struct {
	EnableWaveform bool
	WaveformBars   int
	AgentID        string
}

// Model is the root bubbletea model for the chat TUI.
type Model struct {
	cfg        Config
	controller *chat.Controller
	renderer   *waveform.Renderer

	// Conversation state
	turns []timeline.Turn
	state chat.State

	// Compose field
	input textinput.Model

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a new Model over the given controller.
func New(cfg Config, controller *chat.Controller) Model {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.Prompt = "> "
	input.Focus()

	bars := cfg.WaveformBars
	if bars <= 0 {
		bars = 24
	}

	return Model{
		cfg:        cfg,
		controller: controller,
		renderer:   waveform.NewRenderer(bars, 0.5),
		turns:      controller.Timeline().Snapshot(),
		state:      controller.State(),
		input:      input,
	}
}

// Init starts listening for controller events.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitEventCmd(m.controller.Events()))
}

// waitEventCmd blocks until the controller publishes its next event.
func waitEventCmd(events <-chan chat.Event) tea.Cmd {
	return func() tea.Msg {
		return ControllerEventMsg{Event: <-events}
	}
}

// submitCmd sends the typed message to the agent.
func submitCmd(controller *chat.Controller, text string) tea.Cmd {
	return func() tea.Msg {
		if err := controller.SubmitText(context.Background(), text); err != nil {
			return ActionErrorMsg{Err: err}
		}
		return nil
	}
}

// toggleRecordingCmd starts or stops the voice turn depending on state.
func toggleRecordingCmd(controller *chat.Controller) tea.Cmd {
	return func() tea.Msg {
		switch controller.State() {
		case chat.StateRecording:
			if err := controller.StopRecording(context.Background()); err != nil {
				return ActionErrorMsg{Err: err}
			}
			return nil
		default:
			if err := controller.StartRecording(context.Background()); err != nil {
				return ActionErrorMsg{Err: err}
			}
			return RecordingStartedMsg{}
		}
	}
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, m.width-4)
		return m, nil

	case ControllerEventMsg:
		m.handleEvent(msg.Event)
		var cmd tea.Cmd
		if msg.Event.Type == chat.EventNotice {
			m.errorMessage = msg.Event.Notice
			m.errorTransient = true
			cmd = clearTransientErrorCmd()
		}
		return m, tea.Batch(cmd, waitEventCmd(m.controller.Events()))

	case ActionErrorMsg:
		m.errorMessage = msg.Err.Error()
		m.errorTransient = true
		return m, clearTransientErrorCmd()

	case RecordingStartedMsg:
		m.renderer.Reset()
		return m, nil

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEvent folds a controller event into the display state. The event
// stream drops under backpressure, so the display state is re-read from the
// controller on every delivered event instead of trusting the payload; any
// event doubles as a sync point.
func (m *Model) handleEvent(event chat.Event) {
	m.state = m.controller.State()

	switch event.Type {
	case chat.EventStateChanged, chat.EventTurnAppended:
		m.turns = m.controller.Timeline().Snapshot()

	case chat.EventLevelTick:
		if m.cfg.EnableWaveform {
			m.renderer.Update(event.Level)
		}
	}
}

// handleKey processes key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		m.controller.Dispose()
		return m, tea.Quit

	case "enter":
		text := m.input.Value()
		if strings.TrimSpace(text) == "" {
			return m, nil
		}
		m.input.Reset()
		return m, submitCmd(m.controller, text)

	case "ctrl+r":
		return m, toggleRecordingCmd(m.controller)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatusBar())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderTimeline())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}

	sections = append(sections, m.input.View())
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("AGENT CHAT")

	var agentInfo string
	if m.cfg.AgentID != "" {
		agentInfo = ui.DimStyle.Render(" — " + m.cfg.AgentID)
	}

	return title + agentInfo
}

func (m Model) renderStatusBar() string {
	var dot string
	switch m.state {
	case chat.StateRecording:
		dot = ui.RecordingDotStyle.Render("● REC")
	case chat.StateSending:
		dot = ui.SendingDotStyle.Render("⟳ SENDING")
	default:
		dot = ui.IdleDotStyle.Render("○ IDLE")
	}

	var wave string
	if m.state == chat.StateRecording && m.cfg.EnableWaveform {
		wave = "  " + ui.WaveformStyle.Render(m.renderer.View())
	}

	return dot + wave
}

func (m Model) renderTimeline() string {
	height := m.timelineVisibleLines()

	if len(m.turns) == 0 {
		lines := make([]string, height)
		lines[0] = ui.DimStyle.Render("  Type a message or press Ctrl+R to talk")
		return strings.Join(lines, "\n")
	}

	prefixWidth := 20
	textWidth := max(10, m.width-prefixWidth-2)
	indentStr := strings.Repeat(" ", prefixWidth)

	var displayLines []string
	for _, turn := range m.turns {
		ts := ui.TimestampStyle.Render(turn.CreatedAt.Format("[15:04:05]"))

		var label string
		if turn.Author == timeline.AuthorUser {
			label = ui.UserLabelStyle.Render("[YOU] ")
		} else {
			label = ui.AgentLabelStyle.Render("[AGENT] ")
		}

		text := turn.Text
		if turn.Kind == timeline.KindAudio {
			text = fmt.Sprintf("%s %s", text,
				ui.AudioBadgeStyle.Render(fmt.Sprintf("♪ %.1fs", turn.Duration.Seconds())))
		}

		wrapped := wrapText(text, textWidth)
		displayLines = append(displayLines, ts+" "+label+wrapped[0])
		for _, wl := range wrapped[1:] {
			displayLines = append(displayLines, indentStr+wl)
		}
	}

	// Newest lines win when the conversation outgrows the pane.
	start := 0
	if len(displayLines) > height {
		start = len(displayLines) - height
	}

	var lines []string
	for i := start; i < len(displayLines); i++ {
		lines = append(lines, "  "+displayLines[i])
	}
	for len(lines) < height {
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

func (m Model) timelineVisibleLines() int {
	if m.height == 0 {
		return 20
	}
	// Reserve: header(1) + status(1) + dividers(2) + error(1) + input(1) + footer(1)
	reserved := 7
	return max(5, m.height-reserved)
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func (m Model) renderFooter() string {
	var parts []string

	parts = append(parts, ui.FooterKeyStyle.Render("Enter")+ui.FooterDescStyle.Render(" Send"))
	if m.state == chat.StateRecording {
		parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+R")+ui.FooterDescStyle.Render(" Stop"))
	} else {
		parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+R")+ui.FooterDescStyle.Render(" Talk"))
	}
	parts = append(parts, ui.FooterKeyStyle.Render("Ctrl+C")+ui.FooterDescStyle.Render(" Quit"))

	return strings.Join(parts, "  ")
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if len(current)+1+len(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		if current != "" {
			lines = append(lines, current)
		} else {
			lines = append(lines, "")
		}
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

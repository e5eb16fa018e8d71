package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	engine "github.com/converselabs/converse-core/core"
)

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle    = lipgloss.NewStyle().Faint(true)
	meterOnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	meterOffStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)

type stateMsg engine.State

type transcriptMsg []engine.TranscriptEntry

type toolMsg engine.ToolExecution

type toolClearedMsg struct{}

type turnErrorMsg struct{ err error }

type model struct {
	engine *engine.Engine
	mode   engine.Mode

	viewport viewport.Model
	spinner  spinner.Model

	state      engine.State
	transcript []engine.TranscriptEntry
	tool       *engine.ToolExecution
	lastErr    error

	width  int
	height int
	ready  bool
}

func newModel(eng *engine.Engine, mode engine.Mode) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return model{engine: eng, mode: mode, spinner: s}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			// Terminals deliver no key-release events, so space toggles
			// instead of acting as a held push-to-talk key.
			if m.state.IsRecording {
				_ = m.engine.Stop()
			} else {
				_ = m.engine.Start()
			}
		case "esc":
			m.engine.Cancel()
		case "x":
			m.engine.ClearTranscript()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-5)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 5
		}
		m.viewport.SetContent(m.renderTranscript())

	case stateMsg:
		m.state = engine.State(msg)
		if m.state.Error == "" {
			m.lastErr = nil
		}

	case transcriptMsg:
		m.transcript = msg
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()

	case toolMsg:
		tool := engine.ToolExecution(msg)
		m.tool = &tool

	case toolClearedMsg:
		m.tool = nil

	case turnErrorMsg:
		m.lastErr = msg.err

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if !m.ready {
		return "starting..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("converse"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  [%s]", m.mode)))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("space: talk · esc: cancel · x: clear · q: quit"))
	return b.String()
}

func (m model) statusLine() string {
	var parts []string

	switch {
	case m.state.IsRecording:
		parts = append(parts, meterOnStyle.Render("● rec"), levelMeter(m.state.AudioLevel))
	case m.state.IsProcessing:
		parts = append(parts, m.spinner.View()+"thinking")
	case m.state.IsPlaying:
		parts = append(parts, "▶ speaking")
	default:
		parts = append(parts, statusStyle.Render("idle"))
	}

	if m.tool != nil {
		label := fmt.Sprintf("⚙ %s (%s)", m.tool.Name, m.tool.Status)
		parts = append(parts, toolStyle.Render(label))
	}
	if m.lastErr != nil {
		parts = append(parts, errorStyle.Render(m.lastErr.Error()))
	}

	return strings.Join(parts, "  ")
}

func (m model) renderTranscript() string {
	width := m.viewport.Width
	if width <= 0 {
		width = 80
	}

	var b strings.Builder
	for _, entry := range m.transcript {
		prefix := userStyle.Render("you ")
		if entry.Role == engine.RoleAssistant {
			prefix = assistantStyle.Render("bot ")
		}
		b.WriteString(prefix)
		b.WriteString(wordwrap.String(entry.Content, width-4))
		b.WriteString("\n\n")
	}
	return b.String()
}

// levelMeter renders the input volume as a 20 segment bar. Levels above
// 0.5 are already very loud speech, so the scale tops out there.
func levelMeter(level float64) string {
	const segments = 20
	lit := int(level / 0.5 * segments)
	if lit > segments {
		lit = segments
	}

	return meterOnStyle.Render(strings.Repeat("█", lit)) +
		meterOffStyle.Render(strings.Repeat("░", segments-lit))
}

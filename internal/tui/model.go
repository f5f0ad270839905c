package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Iron-Ham/prodcon/internal/engine"
	"github.com/Iron-Ham/prodcon/internal/errors"
	"github.com/Iron-Ham/prodcon/internal/tui/styles"
)

// flashDuration is how long a changed count stays highlighted.
const flashDuration = 300 * time.Millisecond

// Engine is the part of the core the model drives.
type Engine interface {
	AddProducer() error
	AddConsumer() error
	Snapshot() engine.Snapshot
}

// Model holds the TUI application state
type Model struct {
	engine  Engine
	keys    KeyMap
	help    help.Model
	view    viewport.Model
	styles  styles.Styles
	maxRows int

	// Last snapshot drawn
	snap engine.Snapshot

	// Highlight of the latest count change
	flashing bool
	flashSeq int

	width    int
	height   int
	ready    bool
	quitting bool

	status        string
	errorMessage  string
	errorSeverity errors.Severity
}

// NewModel creates a new TUI model
func NewModel(e Engine, st styles.Styles, maxRows int) Model {
	if maxRows <= 0 {
		maxRows = 1
	}
	m := Model{
		engine:  e,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		view:    viewport.New(0, 0),
		maxRows: maxRows,
	}
	m.applyStyles(st)
	return m
}

func (m *Model) applyStyles(st styles.Styles) {
	m.styles = st
	m.help.Styles.ShortKey = st.HelpKey
	m.help.Styles.FullKey = st.HelpKey
	m.help.Styles.ShortDesc = st.HelpDesc
	m.help.Styles.FullDesc = st.HelpDesc
	m.help.Styles.ShortSeparator = st.Muted
	m.help.Styles.FullSeparator = st.Muted
}

// Init draws the initial, empty state.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return renderMsg{} }
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case renderMsg:
		return m.handleRender(msg)

	case flashDoneMsg:
		if msg.seq == m.flashSeq && m.flashing {
			m.flashing = false
			m.refreshRows()
		}
		return m, nil

	case themeMsg:
		if msg.err != nil {
			m.errorMessage = fmt.Sprintf("theme: %v", msg.err)
			m.errorSeverity = errors.SeverityError
			return m, nil
		}
		m.applyStyles(styles.New(msg.palette))
		m.status = fmt.Sprintf("theme %q loaded", msg.palette.Name)
		m.errorMessage = ""
		m.layout()
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.AddProducer):
		m.addTimer("producer", m.engine.AddProducer)
		return m, nil

	case key.Matches(msg, m.keys.AddConsumer):
		m.addTimer("consumer", m.engine.AddConsumer)
		return m, nil

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.view.GotoTop()
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.view.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.view, cmd = m.view.Update(msg)
	return m, cmd
}

// addTimer runs one registration and reports the outcome in the status
// line. The count itself only changes on the next render.
func (m *Model) addTimer(role string, add func() error) {
	if err := add(); err != nil {
		m.errorMessage = err.Error()
		m.errorSeverity = errors.SeverityOf(err)
		m.status = ""
		return
	}
	m.errorMessage = ""
	m.snap = m.engine.Snapshot()
	m.status = fmt.Sprintf("added %s (%d timers)", role, m.snap.Timers)
	m.refreshRows()
}

func (m Model) handleRender(msg renderMsg) (tea.Model, tea.Cmd) {
	prev := m.snap.Count
	m.snap = m.engine.Snapshot()

	var cmd tea.Cmd
	switch {
	case m.snap.Count != prev && msg.frame.Animate:
		m.flashing = true
		m.flashSeq++
		seq := m.flashSeq
		cmd = tea.Tick(flashDuration, func(time.Time) tea.Msg {
			return flashDoneMsg{seq: seq}
		})
	case !msg.frame.Animate:
		m.flashing = false
	}

	m.refreshRows()
	return m, cmd
}

// layout sizes the viewport to whatever the header and footer leave.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	frameW := m.styles.ContentArea.GetHorizontalFrameSize()
	frameH := m.styles.ContentArea.GetVerticalFrameSize()
	used := lipglossHeight(m.headerView()) + lipglossHeight(m.footerView()) + frameH

	m.view.Width = max(1, m.width-frameW)
	m.view.Height = max(1, m.height-used)
	m.refreshRows()
}

// refreshRows rebuilds the row list, keeping the view pinned to the bottom
// when it already was.
func (m *Model) refreshRows() {
	atBottom := m.view.AtBottom()
	m.view.SetContent(renderRows(m.snap.Count, m.maxRows, m.flashing, m.styles))
	if atBottom {
		m.view.GotoBottom()
	}
}

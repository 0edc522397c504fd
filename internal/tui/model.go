package tui

import (
	"context"

	"github.com/Iron-Ham/lichlaunch/internal/config"
	"github.com/Iron-Ham/lichlaunch/internal/logging"
	"github.com/Iron-Ham/lichlaunch/internal/session"
	"github.com/Iron-Ham/lichlaunch/internal/tui/styles"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// StatusSource produces a fresh view of the running backends.
type StatusSource interface {
	Snapshot(ctx context.Context) (*session.Snapshot, error)
}

// Model is the bubbletea model for the character selector. Each roster
// account is a column and each of its characters a row.
type Model struct {
	ctx    context.Context
	source StatusSource
	logger *logging.Logger

	accounts []config.Account
	col, row int

	// statuses is keyed by roster spelling. It is nil until the first
	// successful refresh and after a failed one.
	statuses   map[string]session.Status
	statusErr  error
	refreshing bool

	width, height int

	keys KeyMap
	help help.Model

	selected string
	quitting bool
}

// statusMsg carries the result of one process-table query.
type statusMsg struct {
	snapshot *session.Snapshot
	err      error
}

// NewModel creates a selector over roster. Accounts without characters are
// not shown.
func NewModel(ctx context.Context, roster config.Roster, source StatusSource, logger *logging.Logger) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	var accounts []config.Account
	for _, a := range roster {
		if len(a.Characters) > 0 {
			accounts = append(accounts, a)
		}
	}

	h := help.New()
	h.ShowAll = false

	return Model{
		ctx:        ctx,
		source:     source,
		logger:     logger.WithComponent("tui"),
		accounts:   accounts,
		keys:       DefaultKeyMap(),
		help:       h,
		refreshing: true,
	}
}

// Init starts the first status query.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		tea.SetWindowTitle("lichlaunch"),
	)
}

// refresh queries the process table off the UI goroutine.
func (m Model) refresh() tea.Cmd {
	ctx, source := m.ctx, m.source
	return func() tea.Msg {
		snap, err := source.Snapshot(ctx)
		return statusMsg{snapshot: snap, err: err}
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		m.refreshing = false
		if msg.err != nil {
			m.logger.Warn("session status unavailable", "error", msg.err.Error())
			m.statusErr = msg.err
			m.statuses = nil
			return m, nil
		}
		m.statusErr = nil
		m.statuses = msg.snapshot.Statuses(m.characters())
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Select):
		if name := m.Current(); name != "" {
			m.selected = name
			m.logger.Info("character selected", logging.KeyCharacter, name)
			return m, tea.Quit
		}

	case key.Matches(msg, m.keys.Refresh):
		if !m.refreshing {
			m.refreshing = true
			return m, m.refresh()
		}

	case key.Matches(msg, m.keys.Up):
		if m.row > 0 {
			m.row--
		}

	case key.Matches(msg, m.keys.Down):
		if m.col < len(m.accounts) && m.row < len(m.accounts[m.col].Characters)-1 {
			m.row++
		}

	case key.Matches(msg, m.keys.Left):
		if m.col > 0 {
			m.col--
			m.clampRow()
		}

	case key.Matches(msg, m.keys.Right):
		if m.col < len(m.accounts)-1 {
			m.col++
			m.clampRow()
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m *Model) clampRow() {
	if n := len(m.accounts[m.col].Characters); m.row >= n {
		m.row = n - 1
	}
}

func (m Model) characters() []string {
	var names []string
	for _, a := range m.accounts {
		names = append(names, a.Characters...)
	}
	return names
}

// Current returns the character under the cursor.
func (m Model) Current() string {
	if m.col >= len(m.accounts) {
		return ""
	}
	chars := m.accounts[m.col].Characters
	if m.row >= len(chars) {
		return ""
	}
	return chars[m.row]
}

// Selected returns the chosen character, or "" if the user quit.
func (m Model) Selected() string {
	return m.selected
}

// state reports what is known about name: online, offline or unknown.
func (m Model) state(name string) (string, int) {
	if m.statuses == nil {
		return styles.StateUnknown, 0
	}
	st, ok := m.statuses[name]
	if !ok {
		return styles.StateUnknown, 0
	}
	if st.Online {
		return styles.StateOnline, st.Port
	}
	return styles.StateOffline, 0
}

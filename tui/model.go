// Package tui is the terminal search surface: an input line over a live list of
// matching files. Enter opens the selected file in the editor.
package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lexandro/filesearch-mcp/index"
	"github.com/lexandro/filesearch-mcp/session"
)

const (
	// listTop is the screen row of the first result.
	listTop = 2
	// chromeRows is the input line, notice line, status line and help line.
	chromeRows = 4

	doubleClickInterval = 400 * time.Millisecond
)

var (
	promptStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			MarginRight(1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	noticeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// Indexer starts a background rebuild of a group's index.
type Indexer interface {
	IndexFiles(groupName string) error
}

// CommandBuilder returns the editor command for a file. *editor.Command implements it.
type CommandBuilder interface {
	Cmd(filePath string) (*exec.Cmd, error)
}

// Config wires a Model.
type Config struct {
	Group          string
	Loader         session.Loader
	Indexer        Indexer
	Editor         CommandBuilder
	CaseSensitive  bool
	MinQueryLength int
	Logger         *slog.Logger
}

type editorFinishedMsg struct {
	path string
	err  error
}

// execOpener hands the editor command back to the model instead of starting it, so
// the terminal can be released to the editor while it runs.
type execOpener struct {
	editor  CommandBuilder
	pending *exec.Cmd
}

func (o *execOpener) Open(filePath string) error {
	cmd, err := o.editor.Cmd(filePath)
	if err != nil {
		return err
	}
	o.pending = cmd
	return nil
}

func (o *execOpener) take() *exec.Cmd {
	cmd := o.pending
	o.pending = nil
	return cmd
}

type click struct {
	row int
	at  time.Time
}

// Model is the bubbletea model of the search surface.
type Model struct {
	group   string
	indexer Indexer
	opener  *execOpener
	session *session.Session
	logger  *slog.Logger

	input textinput.Model
	keys  KeyMap
	help  help.Model

	width     int
	height    int
	offset    int
	notice    string
	status    string
	lastClick click
	now       func() time.Time
}

// New creates the search surface for one group.
func New(config Config) *Model {
	opener := &execOpener{editor: config.Editor}
	s := session.New(config.Loader, opener, session.Options{
		CaseSensitive:  config.CaseSensitive,
		MinQueryLength: config.MinQueryLength,
	}, config.Logger)
	s.Show()

	input := textinput.New()
	input.Prompt = promptStyle.Render("Find")
	input.Placeholder = "file name prefix or glob"
	input.Focus()

	return &Model{
		group:   config.Group,
		indexer: config.Indexer,
		opener:  opener,
		session: s,
		logger:  config.Logger,
		input:   input,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		height:  chromeRows + 10,
		now:     time.Now,
	}
}

// Session returns the underlying search session.
func (m *Model) Session() *session.Session { return m.session }

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.input.Width = max(1, msg.Width-lipgloss.Width(m.input.Prompt)-1)
		m.scrollToCursor()
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.session.Hide()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Up):
			m.session.MoveUp()
			m.scrollToCursor()
			return m, nil
		case key.Matches(msg, m.keys.Down):
			m.session.MoveDown()
			m.scrollToCursor()
			return m, nil
		case key.Matches(msg, m.keys.Open):
			return m, m.activate()
		case key.Matches(msg, m.keys.Index):
			m.startIndexing()
			return m, nil
		}

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case ProgressMsg:
		if msg.Running {
			m.status = msg.Label
			return m, nil
		}
		if msg.Err != nil {
			m.status = "Index failed: " + msg.Err.Error()
			return m, nil
		}
		m.status = "Index updated"
		m.applyInputError(m.session.Refresh())
		m.scrollToCursor()
		return m, nil

	case editorFinishedMsg:
		m.session.Show()
		if msg.err != nil {
			m.logger.Warn("editor exited with error", "path", msg.path, "error", msg.err)
			m.status = fmt.Sprintf("Editor error: %v", msg.err)
		}
		return m, nil
	}

	previous := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if value := m.input.Value(); value != previous {
		m.setInput(value)
	}
	return m, cmd
}

func (m *Model) setInput(value string) {
	m.applyInputError(m.session.SetInput(value))
	m.offset = 0
}

func (m *Model) applyInputError(err error) {
	switch {
	case errors.Is(err, index.ErrNotIndexed):
		m.notice = fmt.Sprintf("Group %q has not been indexed yet. Press ctrl+r to index it.", m.group)
	case err != nil:
		m.notice = err.Error()
	default:
		m.notice = ""
	}
}

func (m *Model) startIndexing() {
	if err := m.indexer.IndexFiles(m.group); err != nil {
		m.status = fmt.Sprintf("Index error: %v", err)
		return
	}
	m.status = "Indexing files: " + m.group
}

// activate opens the selected file, releasing the terminal to the editor.
func (m *Model) activate() tea.Cmd {
	record, err := m.session.Activate()
	if err != nil {
		if !errors.Is(err, session.ErrNothingSelected) {
			m.status = err.Error()
		}
		return nil
	}
	cmd := m.opener.take()
	path := record.FilePath
	m.logger.Info("opening file", "path", path)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return editorFinishedMsg{path: path, err: err}
	})
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	switch msg.Type {
	case tea.MouseWheelUp:
		m.session.MoveUp()
		m.scrollToCursor()
	case tea.MouseWheelDown:
		m.session.MoveDown()
		m.scrollToCursor()
	case tea.MouseLeft:
		row := msg.Y - listTop + m.offset
		if msg.Y < listTop || msg.Y >= listTop+m.listHeight() || row >= len(m.session.Results()) {
			return nil
		}
		now := m.now()
		double := m.lastClick.row == row && now.Sub(m.lastClick.at) <= doubleClickInterval
		m.session.Select(row)
		if double {
			m.lastClick = click{}
			return m.activate()
		}
		m.lastClick = click{row: row, at: now}
	}
	return nil
}

func (m *Model) listHeight() int {
	return max(1, m.height-chromeRows)
}

func (m *Model) scrollToCursor() {
	cursor := m.session.Cursor()
	height := m.listHeight()
	switch {
	case cursor < m.offset:
		m.offset = cursor
	case cursor >= m.offset+height:
		m.offset = cursor - height + 1
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n")
	b.WriteString(noticeStyle.Render(m.notice))
	b.WriteString("\n")

	results := m.session.Results()
	height := m.listHeight()
	end := min(len(results), m.offset+height)
	lineStyle := lipgloss.NewStyle()
	if m.width > 0 {
		lineStyle = lineStyle.MaxWidth(m.width)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(lineStyle.Render(m.renderRecord(results[i], i == m.session.Cursor())))
		b.WriteString("\n")
	}
	for i := end - m.offset; i < height; i++ {
		b.WriteString("\n")
	}

	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderRecord(record index.Record, selected bool) string {
	name := record.FileName
	marker := "  "
	if selected {
		name = selectedStyle.Render(name)
		marker = selectedStyle.Render("> ")
	}
	return marker + name + "  " + dimStyle.Render("["+record.ProjectKey+"] "+record.FilePath)
}

func (m *Model) statusLine() string {
	parts := []string{m.group}
	if m.session.State() == session.StateRebuilding || m.session.State() == session.StateRefining {
		parts = append(parts, fmt.Sprintf("%d files", len(m.session.Results())))
	}
	if m.status != "" {
		parts = append(parts, m.status)
	}
	return strings.Join(parts, " · ")
}

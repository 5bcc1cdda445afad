// Package tui provides a Bubble Tea terminal user interface for dstask.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/dstask/internal/credentials"
	"github.com/handiism/dstask/internal/download"
	"github.com/handiism/dstask/internal/model"
	"github.com/handiism/dstask/internal/status"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B"))

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

// State represents the current UI state.
type State int

const (
	StateConnecting State = iota
	StateTasks
	StatePrompt
	StateAdd
	StateError
)

const maxLogs = 6

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state   State
	table   table.Model
	input   textinput.Model
	spinner spinner.Model
	logs    []status.Event
	err     error

	ctx     context.Context
	host    string
	manager *download.Manager
	tasks   []model.Task
	synced  time.Time

	// Prompts raised by the core while an action or login runs.
	prompt  *promptMsg
	pending []promptMsg

	busy    bool
	verbose bool

	width  int
	height int
}

// Message types
type (
	// connectedMsg is sent once login finished.
	connectedMsg struct {
		host    string
		manager *download.Manager
		err     error
	}

	// tasksMsg carries a fresh snapshot from the sync loop.
	tasksMsg struct {
		tasks []model.Task
		at    time.Time
	}

	// statusMsg carries one status event.
	statusMsg status.Event

	// actionDoneMsg is sent when a foreground action returns.
	actionDoneMsg struct {
		err error
	}
)

// NewModel creates a new TUI model. ctx bounds every action it starts.
func NewModel(ctx context.Context, verbose bool) Model {
	ti := textinput.New()
	ti.CharLimit = 2000
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Title", Width: 40},
			{Title: "Size", Width: 10},
			{Title: "Done", Width: 7},
			{Title: "Status", Width: 16},
			{Title: "Down", Width: 12},
			{Title: "Up", Width: 12},
			{Title: "Destination", Width: 24},
		}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4ECDC4")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#1A1A1A")).
		Background(lipgloss.Color("#4ECDC4"))
	t.SetStyles(styles)

	return Model{
		state:   StateConnecting,
		table:   t,
		input:   ti,
		spinner: sp,
		ctx:     ctx,
		verbose: verbose,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-12, 5))
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelPrompts()
			return m, tea.Quit
		}
		switch m.state {
		case StatePrompt:
			return m.updatePrompt(msg)
		case StateAdd:
			return m.updateAdd(msg)
		case StateTasks:
			return m.updateTasks(msg)
		default:
			if msg.String() == "q" || msg.String() == "esc" {
				m.cancelPrompts()
				return m, tea.Quit
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case promptMsg:
		if m.prompt != nil {
			m.pending = append(m.pending, msg)
			return m, nil
		}
		if m.state == StateAdd {
			m.closeAdd()
		}
		m.openPrompt(msg)
		return m, textinput.Blink

	case connectedMsg:
		if msg.err != nil {
			m.state = StateError
			m.err = msg.err
			return m, nil
		}
		m.host = msg.host
		m.manager = msg.manager
		if m.prompt == nil {
			m.state = StateTasks
		}

	case tasksMsg:
		m.synced = msg.at
		m.setTasks(msg.tasks)

	case statusMsg:
		if msg.Level == status.LevelVerbose && !m.verbose {
			return m, nil
		}
		m.logs = append(m.logs, status.Event(msg))
		if len(m.logs) > maxLogs {
			m.logs = m.logs[len(m.logs)-maxLogs:]
		}

	case actionDoneMsg:
		m.busy = false
	}

	return m, tea.Batch(cmds...)
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.answerPrompt(promptReply{err: credentials.ErrAborted})
		return m, nil
	case "enter":
		value := m.input.Value()
		if value == "" && !m.prompt.secret {
			value = m.prompt.def
		}
		m.answerPrompt(promptReply{value: value})
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.closeAdd()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.input.Value())
		m.closeAdd()
		if value == "" {
			return m, nil
		}
		return m, m.run(func(ctx context.Context) error {
			_, err := m.manager.Create(ctx, createRequest(value))
			return err
		})
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateTasks(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		return m, tea.Quit

	case "v":
		m.verbose = !m.verbose
		return m, nil

	case "a":
		m.state = StateAdd
		m.manager.BeginPrompt()
		m.input.Reset()
		m.input.EchoMode = textinput.EchoNormal
		m.input.Placeholder = "magnet:?xt=… or https://… or /path/file.torrent"
		m.input.Focus()
		return m, textinput.Blink

	case "x":
		return m, m.run(m.manager.ClearCompleted)
	}

	if task, ok := m.selected(); ok {
		switch msg.String() {
		case "p":
			return m, m.run(func(ctx context.Context) error { return m.manager.Pause(ctx, task.ID) })
		case "r":
			return m, m.run(func(ctx context.Context) error { return m.manager.Resume(ctx, task.ID) })
		case "c":
			return m, m.run(func(ctx context.Context) error { return m.manager.Complete(ctx, task.ID) })
		case "d", "D":
			force := msg.String() == "D"
			return m, m.run(func(ctx context.Context) error { return m.manager.Delete(ctx, []string{task.ID}, force) })
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// run starts a foreground action and refreshes the table once it ends.
func (m *Model) run(fn func(ctx context.Context) error) tea.Cmd {
	m.busy = true
	ctx, manager := m.ctx, m.manager
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		err := fn(ctx)
		manager.Tick(ctx)
		return actionDoneMsg{err: err}
	})
}

func (m *Model) openPrompt(req promptMsg) {
	m.prompt = &req
	m.state = StatePrompt
	m.input.Reset()
	m.input.Placeholder = req.def
	m.input.EchoMode = textinput.EchoNormal
	if req.secret {
		m.input.EchoMode = textinput.EchoPassword
		m.input.EchoCharacter = '•'
	}
	m.input.Focus()
}

func (m *Model) answerPrompt(r promptReply) {
	m.prompt.reply <- r
	m.prompt = nil
	m.input.Reset()
	m.input.Blur()

	if len(m.pending) > 0 {
		next := m.pending[0]
		m.pending = m.pending[1:]
		m.openPrompt(next)
		return
	}
	if m.manager != nil {
		m.state = StateTasks
	} else {
		m.state = StateConnecting
	}
}

// cancelPrompts releases every goroutine waiting on an answer.
func (m *Model) cancelPrompts() {
	for m.prompt != nil {
		m.answerPrompt(promptReply{err: credentials.ErrAborted})
	}
}

func (m *Model) closeAdd() {
	m.manager.EndPrompt()
	m.input.Reset()
	m.input.Blur()
	m.state = StateTasks
}

func (m *Model) setTasks(tasks []model.Task) {
	m.tasks = tasks
	rows := make([]table.Row, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow(t)
	}
	m.table.SetRows(rows)
	if c := m.table.Cursor(); c >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m Model) selected() (model.Task, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.tasks) {
		return model.Task{}, false
	}
	return m.tasks[c], true
}

// createRequest treats an existing local path as a torrent file and
// anything else as one or more URLs.
func createRequest(value string) download.CreateRequest {
	if info, err := os.Stat(value); err == nil && !info.IsDir() {
		return download.CreateRequest{File: value}
	}
	urls := strings.FieldsFunc(value, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\n' || r == '\t'
	})
	return download.CreateRequest{URLs: urls}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("Download Station"))
	if m.host != "" {
		b.WriteString(dimStyle.Render("  " + m.host))
	}
	if m.busy {
		b.WriteString(" ")
		b.WriteString(m.spinner.View())
	}
	b.WriteString("\n\n")

	switch m.state {
	case StateConnecting:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Connecting..."))
		b.WriteString("\n")
	case StateTasks:
		b.WriteString(m.viewTasks())
	case StatePrompt:
		b.WriteString(m.viewPrompt(m.prompt.label))
	case StateAdd:
		b.WriteString(m.viewPrompt("New task"))
	case StateError:
		b.WriteString(m.viewError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderLogs())

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.helpText()))

	return b.String()
}

func (m Model) viewTasks() string {
	if len(m.tasks) == 0 {
		return dimStyle.Render("No tasks.") + "\n"
	}
	summary := fmt.Sprintf("%d task(s)", len(m.tasks))
	if !m.synced.IsZero() {
		summary += " · updated " + m.synced.Format("15:04:05")
	}
	return m.table.View() + "\n" + infoStyle.Render(summary) + "\n"
}

func (m Model) viewPrompt(label string) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Render(label + ":"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n")
	return boxStyle.Render(b.String()) + "\n"
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		msg := m.err.Error()
		if errors.Is(m.err, credentials.ErrAborted) {
			msg = "cancelled"
		}
		b.WriteString(fmt.Sprintf("  %s", msg))
	}
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case status.LevelError:
			style = errorStyle
			prefix = "✗"
		case status.LevelWarning:
			style = warningStyle
			prefix = "!"
		case status.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case status.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) helpText() string {
	switch m.state {
	case StateTasks:
		return "a: add • p: pause • r: resume • c: complete • d: delete • D: delete, keep partial data • x: clear done • v: verbose • q: quit"
	case StatePrompt, StateAdd:
		return "enter: confirm • esc: cancel"
	case StateConnecting, StateError:
		return "q: quit"
	}
	return ""
}

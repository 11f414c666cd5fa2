// Package ui is the terminal front end of the todo list.
package ui

import (
	"context"
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/timada-org/taskflow/internal/session"
	"github.com/timada-org/taskflow/internal/todolist"
	"github.com/timada-org/taskflow/pkg/todo"
)

type screen int

const (
	screenConfigError screen = iota
	screenLoading
	screenGate
	screenList
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

const (
	gateInvalidEmail = "Please enter a valid email address"
	gateSaveFailed   = "Could not save your email. Please try again."
	gateReadFailed   = "Could not read your saved email."
)

type (
	restoredMsg struct {
		email string
		ok    bool
		err   error
	}
	persistedMsg struct {
		email string
		err   error
	}
	loadedMsg struct {
		err error
	}
	createdMsg struct {
		todo todo.Todo
		err  error
	}
	doneMsg struct {
		err error
	}
	changeMsg struct {
		change todolist.Change
	}
)

type Model struct {
	ctx     context.Context
	todos   *todolist.List
	session *session.Session

	screen  screen
	mode    mode
	items   []todo.Todo
	cursor  int
	editID  int64
	gateErr string
	width   int

	input   textinput.Model
	spinner spinner.Model
	help    help.Model
	keys    keyMap
}

func New(ctx context.Context, todos *todolist.List, sess *session.Session) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:     ctx,
		todos:   todos,
		session: sess,
		screen:  screenLoading,
		input:   input,
		spinner: sp,
		help:    help.New(),
		keys:    newKeyMap(),
	}

	if !todos.Configured() {
		m.screen = screenConfigError
	}

	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenConfigError {
		return nil
	}

	return tea.Batch(m.spinner.Tick, m.restore())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		if m.screen != screenLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case restoredMsg:
		if msg.err != nil || !msg.ok {
			if msg.err != nil {
				m.gateErr = gateReadFailed
			}
			m.openGate()
			return m, nil
		}
		m.screen = screenLoading
		return m, m.load(msg.email)

	case persistedMsg:
		if msg.err != nil {
			m.gateErr = gateSaveFailed
			if errors.Is(msg.err, session.ErrInvalidEmail) {
				m.gateErr = gateInvalidEmail
			}
			return m, nil
		}
		m.gateErr = ""
		m.input.Reset()
		m.input.Blur()
		m.screen = screenLoading
		return m, m.load(msg.email)

	case loadedMsg:
		if m.screen != screenConfigError {
			m.screen = screenList
		}
		m.refresh()
		return m, nil

	case createdMsg:
		m.refresh()
		if msg.err == nil && msg.todo.ID != 0 {
			m.closeInput()
			m.cursor = 0
		}
		return m, nil

	case doneMsg, changeMsg:
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case screenGate:
		return m.handleGateKey(msg)
	case screenList:
		switch m.mode {
		case modeAdd:
			return m.handleAddKey(msg)
		case modeEdit:
			return m.handleEditKey(msg)
		}
		return m.handleListKey(msg)
	}

	if key.Matches(msg, m.keys.Quit) || msg.Type == tea.KeyEsc {
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleGateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		email := strings.TrimSpace(m.input.Value())
		if !todo.ValidateEmail(email) {
			m.gateErr = gateInvalidEmail
			return m, nil
		}
		return m, m.persist(email)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		return m, m.create(m.input.Value())
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closeInput()
		return m, nil
	case tea.KeyEnter:
		title := m.input.Value()
		if strings.TrimSpace(title) == "" {
			return m, nil
		}
		id := m.editID
		m.closeInput()
		return m, m.rename(id, title)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	selected, ok := m.selected()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		m.input.Reset()
		m.input.Placeholder = "What needs to be done?"
		m.input.Focus()
	case key.Matches(msg, m.keys.Edit):
		if !ok || selected.Completed {
			return m, nil
		}
		m.mode = modeEdit
		m.editID = selected.ID
		m.input.SetValue(selected.Title)
		m.input.CursorEnd()
		m.input.Placeholder = "Edit task title..."
		m.input.Focus()
	case key.Matches(msg, m.keys.Toggle):
		if ok {
			return m, m.setCompleted(selected.ID, !selected.Completed)
		}
	case key.Matches(msg, m.keys.Delete):
		if ok {
			return m, m.remove(selected.ID)
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.load(m.todos.Owner())
	case key.Matches(msg, m.keys.Dismiss):
		m.todos.ClearErr()
	}

	return m, nil
}

func (m *Model) openGate() {
	m.screen = screenGate
	m.input.Reset()
	m.input.Placeholder = "your.email@example.com"
	m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = modeBrowse
	m.editID = 0
	m.input.Reset()
	m.input.Blur()
}

func (m *Model) refresh() {
	m.items = m.todos.Todos()
	if m.cursor >= len(m.items) {
		m.cursor = len(m.items) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m Model) selected() (todo.Todo, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return todo.Todo{}, false
	}

	return m.items[m.cursor], true
}

func (m Model) restore() tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		email, ok, err := sess.Restore(ctx)
		return restoredMsg{email: email, ok: ok, err: err}
	}
}

func (m Model) persist(email string) tea.Cmd {
	ctx, sess := m.ctx, m.session
	return func() tea.Msg {
		return persistedMsg{email: email, err: sess.Persist(ctx, email)}
	}
}

func (m Model) load(email string) tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		return loadedMsg{err: todos.LoadAll(ctx, email)}
	}
}

func (m Model) create(title string) tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		created, err := todos.Create(ctx, title)
		return createdMsg{todo: created, err: err}
	}
}

func (m Model) rename(id int64, title string) tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		return doneMsg{err: todos.Rename(ctx, id, title)}
	}
}

func (m Model) setCompleted(id int64, completed bool) tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		return doneMsg{err: todos.SetCompleted(ctx, id, completed)}
	}
}

func (m Model) remove(id int64) tea.Cmd {
	ctx, todos := m.ctx, m.todos
	return func() tea.Msg {
		return doneMsg{err: todos.Remove(ctx, id)}
	}
}

// Run starts the program and forwards list changes to it until the user
// quits or ctx is done.
func Run(ctx context.Context, todos *todolist.List, sess *session.Session) error {
	p := tea.NewProgram(New(ctx, todos, sess), tea.WithAltScreen(), tea.WithContext(ctx))

	unsubscribe := todos.Subscribe(func(change todolist.Change) {
		p.Send(changeMsg{change: change})
	})
	defer unsubscribe()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

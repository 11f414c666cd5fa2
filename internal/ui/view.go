package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/timada-org/taskflow/internal/todolist"
	"github.com/timada-org/taskflow/pkg/todo"
)

func (m Model) View() string {
	switch m.screen {
	case screenConfigError:
		return m.configErrorView()
	case screenLoading:
		return panelStyle.Render(m.spinner.View() + " Loading your workspace...")
	case screenGate:
		return m.gateView()
	default:
		return m.listView()
	}
}

func (m Model) configErrorView() string {
	lines := []string{
		errorStyle.Render("Configuration Error"),
		"",
		todolist.NotConfiguredMessage,
		mutedStyle.Render("Set TASKFLOW_BACKEND_URL and TASKFLOW_BACKEND_KEY, then restart."),
		"",
		mutedStyle.Render("q quit"),
	}

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) gateView() string {
	lines := []string{
		titleStyle.Render("Welcome to TaskFlow"),
		mutedStyle.Render("Your minimalist productivity companion"),
		"",
		"Enter your email to get started",
		m.input.View(),
	}

	if m.gateErr != "" {
		lines = append(lines, errorStyle.Render(m.gateErr))
	}

	lines = append(lines, "", mutedStyle.Render("enter continue • esc quit"))

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) listView() string {
	stats := m.todos.Stats()

	var b strings.Builder

	fmt.Fprintf(&b, "%s   %s %d  %s %d  %s %d\n",
		titleStyle.Render("TaskFlow"),
		successStyle.Render("✔"), stats.Done,
		pendingStyle.Render("•"), stats.Pending,
		accentStyle.Render("Total"), stats.Total,
	)
	fmt.Fprintf(&b, "%s\n\n", mutedStyle.Render("Welcome back, "+m.todos.Owner()))

	if m.mode != modeBrowse {
		label := "Add new task"
		if m.mode == modeEdit {
			label = "Edit task"
		}
		b.WriteString(panelStyle.Render(label+"\n"+m.input.View()) + "\n")
	}

	if len(m.items) == 0 {
		b.WriteString("No tasks yet\n")
		b.WriteString(mutedStyle.Render("Press a to add your first task") + "\n")
	}

	for i, t := range m.items {
		b.WriteString(renderItem(t, i == m.cursor) + "\n")
	}

	if err := m.todos.Err(); err != "" {
		b.WriteString("\n" + errorStyle.Render("✖ "+err) + "\n")
	}

	b.WriteString("\n" + m.help.View(m.keys))

	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func renderItem(t todo.Todo, selected bool) string {
	box := mutedStyle.Render(boxUnchecked)
	title := t.Title
	if t.Completed {
		box = successStyle.Render(boxChecked)
		title = doneStyle.Render(title)
	}

	prefix := "  "
	if selected {
		prefix = selectedStyle.Render(">") + " "
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, prefix, box, " ", title)
}
